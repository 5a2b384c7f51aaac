package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRequest EventType = "request"
	EventHandler EventType = "handler"
	EventRelay   EventType = "relay"
)

// Outcome is the final decision for an XML-RPC request.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFault   Outcome = "fault"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
}

// RequestEvent is emitted once per XML-RPC request, after the response is decided.
type RequestEvent struct {
	EventBase
	Method   string        `json:"method"`
	Outcome  Outcome       `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// HandlerEvent is emitted when a fan-out handler returns.
type HandlerEvent struct {
	EventBase
	Handler  string        `json:"handler"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// RelayEvent is emitted when an outbound relay completes.
type RelayEvent struct {
	EventBase
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}

// Hooks defines callbacks for pipeline observability. Nil fields are skipped.
type Hooks struct {
	OnRequest func(context.Context, *RequestEvent)
	OnHandler func(context.Context, *HandlerEvent)
	OnRelay   func(context.Context, *RelayEvent)
}

// MergeHooks returns hooks that call every non-nil callback of hs in order.
func MergeHooks(hs ...Hooks) Hooks {
	var merged Hooks
	for _, h := range hs {
		merged.OnRequest = chain(merged.OnRequest, h.OnRequest)
		merged.OnHandler = chain(merged.OnHandler, h.OnHandler)
		merged.OnRelay = chain(merged.OnRelay, h.OnRelay)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
