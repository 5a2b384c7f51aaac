package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/wphook/pkg/domain"
	"github.com/aretw0/wphook/pkg/xmlrpc"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Defaults for the paths a metaWeblog client talks to.
const (
	DefaultPath        = "/xmlrpc.php"
	DefaultAdminPrefix = "/wp-admin"

	// DefaultMaxBodySize bounds the XML-RPC request body.
	DefaultMaxBodySize int64 = 10 << 20
)

// Engine runs the newPost pipeline.
type Engine interface {
	NewPost(ctx context.Context, params []any) (*domain.Document, error)
}

// Relayer forwards a transformed document to the URL it carries.
type Relayer interface {
	Dispatch(ctx context.Context, doc *domain.Document) bool
}

// Server terminates the metaWeblog XML-RPC endpoint in front of another handler.
type Server struct {
	Engine      Engine
	Relay       Relayer
	Logger      *slog.Logger
	Hooks       domain.Hooks
	Path        string
	AdminPrefix string
	MaxBodySize int64
	Now         func() time.Time
}

// NewServer creates a server with the default paths. relay may be nil.
func NewServer(engine Engine, relay Relayer, logger *slog.Logger) *Server {
	return &Server{
		Engine:      engine,
		Relay:       relay,
		Logger:      logger,
		Path:        DefaultPath,
		AdminPrefix: DefaultAdminPrefix,
		MaxBodySize: DefaultMaxBodySize,
		Now:         time.Now,
	}
}

// Middleware wraps next. Admin paths are acknowledged, the XML-RPC path is
// served, and every other request reaches next untouched.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case s.isAdmin(r.URL.Path):
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == s.Path:
			s.ServeXMLRPC(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) isAdmin(path string) bool {
	prefix := strings.TrimSuffix(s.AdminPrefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// ServeXMLRPC decodes a method call and answers it.
func (s *Server) ServeXMLRPC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := domain.WithRequestID(r.Context(), requestID(r))

	body := r.Body
	if s.MaxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, s.MaxBodySize)
	}

	env, err := xmlrpc.DecodeMethodCall(body)
	if err != nil {
		s.fault(ctx, w, "", start, err)
		return
	}

	s.Logger.Debug("XML-RPC call", "request_id", domain.RequestIDFromContext(ctx), "method", env.MethodName)

	switch env.MethodName {
	case xmlrpc.MethodSupportedMethods:
		s.success(ctx, w, env.MethodName, start, xmlrpc.SupportedMethodsValue)
	case xmlrpc.MethodGetRecentPosts:
		s.success(ctx, w, env.MethodName, start, xmlrpc.RecentPostsValue)
	case xmlrpc.MethodNewPost:
		s.newPost(ctx, w, env, start)
	default:
		// Unknown methods get an empty 200, not a fault.
		xmlrpc.WriteEmpty(w)
		s.emit(ctx, env.MethodName, domain.OutcomeSuccess, start, nil)
	}
}

func (s *Server) newPost(ctx context.Context, w http.ResponseWriter, env *xmlrpc.Envelope, start time.Time) {
	doc, err := s.Engine.NewPost(ctx, env.Params)
	if err != nil {
		s.fault(ctx, w, env.MethodName, start, err)
		return
	}

	if doc != nil && s.Relay != nil {
		if s.Relay.Dispatch(ctx, doc) {
			s.Logger.Debug("Relay dispatched", "request_id", domain.RequestIDFromContext(ctx))
		}
	}

	postID := strconv.FormatInt(s.Now().UnixMilli(), 10)
	s.success(ctx, w, env.MethodName, start, xmlrpc.StringValue(postID))
}

func (s *Server) success(ctx context.Context, w http.ResponseWriter, method string, start time.Time, value string) {
	xmlrpc.WriteSuccess(w, value)
	s.emit(ctx, method, domain.OutcomeSuccess, start, nil)
}

func (s *Server) fault(ctx context.Context, w http.ResponseWriter, method string, start time.Time, err error) {
	s.Logger.Warn("XML-RPC request failed",
		"request_id", domain.RequestIDFromContext(ctx),
		"method", method,
		"reason", reason(err),
		"error", err,
	)
	xmlrpc.WriteFault(w, xmlrpc.FaultNotFound)
	s.emit(ctx, method, domain.OutcomeFault, start, err)
}

func (s *Server) emit(ctx context.Context, method string, outcome domain.Outcome, start time.Time, err error) {
	if s.Hooks.OnRequest == nil {
		return
	}
	s.Hooks.OnRequest(ctx, &domain.RequestEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventRequest,
			RequestID: domain.RequestIDFromContext(ctx),
		},
		Method:   method,
		Outcome:  outcome,
		Duration: time.Since(start),
		Err:      err,
	})
}

// reason names the error class for logs.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.Is(err, domain.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, domain.ErrAuthFailed):
		return "auth_error"
	case errors.Is(err, domain.ErrAuthRejected):
		return "auth_rejected"
	case errors.Is(err, domain.ErrHandler):
		return "handler_error"
	}
	return "unknown"
}

func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
