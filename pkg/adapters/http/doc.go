// Package http exposes the metaWeblog XML-RPC endpoint as net/http middleware.
//
// Server.Middleware is compatible with chi's Router.Use and with any router that
// accepts func(http.Handler) http.Handler.
package http
