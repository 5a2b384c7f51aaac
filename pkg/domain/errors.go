package domain

import "errors"

// ErrMalformedEnvelope is returned when the body is not a well-formed XML-RPC method call.
var ErrMalformedEnvelope = errors.New("malformed method call")

// ErrMalformedPayload is returned when newPost parameters do not have the expected shape.
var ErrMalformedPayload = errors.New("malformed newPost payload")

// ErrAuthFailed is returned when the authenticator itself fails.
var ErrAuthFailed = errors.New("authentication failed")

// ErrAuthRejected is returned when the authenticator returns a falsy result.
var ErrAuthRejected = errors.New("authentication rejected")

// ErrHandler is returned when any fan-out handler fails.
var ErrHandler = errors.New("handler failed")
