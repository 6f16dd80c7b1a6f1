package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gardengrid/pkg/errors"
	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/observability"
)

type ctxKey int

const userKey ctxKey = 0

func withUser(ctx context.Context, u identity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// userFrom returns the authenticated user set by requireUser.
func userFrom(ctx context.Context) identity.User {
	u, _ := ctx.Value(userKey).(identity.User)
	return u
}

// requireUser authenticates by bearer token or, failing that, by session
// cookie.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := s.authenticate(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

func (s *Server) authenticate(r *http.Request) (identity.User, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || token == "" {
			return identity.User{}, errors.New(errors.ErrCodeUnauthorized, "malformed authorization header")
		}
		return s.opts.Identity.Verify(token)
	}

	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return identity.User{}, errors.New(errors.ErrCodeUnauthorized, "authentication required")
	}
	sess, err := s.opts.Sessions.Get(r.Context(), c.Value)
	if err != nil {
		return identity.User{}, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil {
		return identity.User{}, errors.New(errors.ErrCodeSessionExpired, "session expired, please log in again")
	}
	return identity.User{ID: sess.UserID, Email: sess.Email}, nil
}

// logRequests logs each request at debug level and reports it to the HTTP
// hooks under its route pattern.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
