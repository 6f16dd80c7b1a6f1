// Package server exposes planner workspaces over a JSON HTTP API.
//
// # Routes
//
//	POST   /api/auth/signup         create an account, returns a token
//	POST   /api/auth/login          returns a token and sets the session cookie
//	POST   /api/auth/logout         ends the cookie session
//	GET    /api/garden              palette, plants, selection and usage counts
//	POST   /api/palette             add a template
//	DELETE /api/palette/{id}        remove a template
//	POST   /api/plants              place a plant
//	PATCH  /api/plants/{id}         move a plant
//	DELETE /api/plants/{id}         delete a plant
//	POST   /api/events              apply a pointer or selection event
//	GET    /api/garden/render.{fmt} render as svg, png, json or pdf
//	GET    /health/live             liveness
//	GET    /health/ready            readiness (pings the store)
//
// Garden routes accept either "Authorization: Bearer <token>" or the
// session cookie set at login.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/pipeline"
	"github.com/matzehuels/gardengrid/pkg/planner"
	"github.com/matzehuels/gardengrid/pkg/session"
	"github.com/matzehuels/gardengrid/pkg/storage"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "gardengrid_session"

// Options configures a Server.
type Options struct {
	Identity *identity.Service
	Sessions session.Store
	Planners *planner.Manager
	Runner   *pipeline.Runner
	Store    storage.Store

	SessionTTL    time.Duration
	SecureCookies bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Logger *log.Logger
}

// Server serves the gardengrid API.
type Server struct {
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds a server and its routes. Identity, Sessions, Planners and Store
// are required.
func New(opts Options) (*Server, error) {
	if opts.Identity == nil || opts.Sessions == nil || opts.Planners == nil || opts.Store == nil {
		return nil, fmt.Errorf("server: identity, sessions, planners and store are required")
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Server{opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", s.handleLive)
	r.Get("/health/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/login", s.handleLogIn)
		r.Post("/auth/logout", s.handleLogOut)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/garden", s.handleGarden)
			r.Get("/garden/render.{format}", s.handleRender)

			r.Post("/palette", s.handleAddTemplate)
			r.Delete("/palette/{id}", s.handleRemoveTemplate)

			r.Post("/plants", s.handlePlace)
			r.Patch("/plants/{id}", s.handleMove)
			r.Delete("/plants/{id}", s.handleDelete)

			r.Post("/events", s.handleEvent)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
