package server

import (
	"net/http"
	"time"

	"github.com/matzehuels/gardengrid/pkg/identity"
	"github.com/matzehuels/gardengrid/pkg/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      identity.User `json:"user"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.opts.Identity.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("signed up", "user", u.ID)
	s.startSession(w, r, u, http.StatusCreated)
}

func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.opts.Identity.LogIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("logged in", "user", u.ID)
	s.startSession(w, r, u, http.StatusOK)
}

// startSession issues a token, stores a cookie session carrying it and
// writes both to the response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u identity.User, status int) {
	token, exp, err := s.opts.Identity.Issue(u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := session.New(u.ID, u.Email, token, s.opts.SessionTTL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.opts.Sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, authResponse{Token: token, ExpiresAt: exp, User: u})
}

func (s *Server) handleLogOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := s.opts.Sessions.Delete(r.Context(), c.Value); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
