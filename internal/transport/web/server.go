// Package web exposes the gateway and account service as a JSON HTTP API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/account"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/pkg/log"
)

// maxBodyBytes leaves room for a base64 attachment at the gateway's limit.
const maxBodyBytes = 12 << 20

type Options struct {
	Addr        string
	JWTSecret   string
	TrustProxy  bool
	CORSOrigins []string
}

type Chatter interface {
	Chat(ctx context.Context, req gateway.Request) (gateway.Response, error)
}

type AccountService interface {
	History(ctx context.Context, email string) ([]core.SessionSummary, error)
	Session(ctx context.Context, email string, id int64) (*core.Session, error)
	DeleteSession(ctx context.Context, email string, id int64) error
	Feedback(ctx context.Context, email string, sessionID int64, content, feedback string) error
	Goals(ctx context.Context, email string) ([]core.Goal, error)
	AddGoal(ctx context.Context, email, title string) ([]core.Goal, error)
	CompleteGoal(ctx context.Context, email string, id int64) ([]core.Goal, error)
	DeleteGoal(ctx context.Context, email string, id int64) ([]core.Goal, error)
	Badge(ctx context.Context, email string) (account.Badge, error)
	CheckIn(ctx context.Context, email string) (int, error)
	UserCount(ctx context.Context) (int, error)
}

type Server struct {
	opts     Options
	chat     Chatter
	accounts AccountService
	auth     *authenticator
	srv      *http.Server
}

func NewServer(opts Options, chat Chatter, accounts AccountService) *Server {
	s := &Server{
		opts:     opts,
		chat:     chat,
		accounts: accounts,
		auth:     newAuthenticator(opts.JWTSecret),
	}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /api/history", s.withAccount(s.handleHistory))
	mux.HandleFunc("POST /api/get-session", s.withAccount(s.handleGetSession))
	mux.HandleFunc("POST /api/delete-session", s.withAccount(s.handleDeleteSession))
	mux.HandleFunc("POST /api/feedback", s.withAccount(s.handleFeedback))
	mux.HandleFunc("GET /api/goals", s.withAccount(s.handleGoals))
	mux.HandleFunc("POST /api/goals", s.withAccount(s.handleGoalAction))
	mux.HandleFunc("POST /api/check-in", s.withAccount(s.handleCheckIn))
	mux.HandleFunc("GET /api/badge-status", s.withAccount(s.handleBadge))
	mux.HandleFunc("GET /api/user-count", s.handleUserCount)

	return requestID(recoverer(cors(s.opts.CORSOrigins, mux)))
}

func (s *Server) Start(ctx context.Context) error {
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	log.FromCtx(ctx).Info().
		Str("addr", s.opts.Addr).
		Bool("jwt", s.auth.verifying()).
		Msg("starting http server")
	if !s.auth.verifying() && !loopbackOnly(s.opts.Addr) {
		log.FromCtx(ctx).Warn().
			Str("addr", s.opts.Addr).
			Msg("COACH_JWT_SECRET is unset on a non-loopback address: any client can act as any account by declaring its email")
	}

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// loopbackOnly reports whether addr only accepts local connections.
// An empty host binds every interface.
func loopbackOnly(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
