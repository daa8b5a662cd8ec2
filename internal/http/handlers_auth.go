package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"zeendr/internal/core"
	applog "zeendr/internal/log"
	"zeendr/internal/services"
)

const sessionCookie = "zeendr_session"

type sessionKey struct{}

func sessionFrom(ctx context.Context) core.Session {
	s, _ := ctx.Value(sessionKey{}).(core.Session)
	return s
}

func withSession(ctx context.Context, s core.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// username is the acting user recorded in status history.
func username(r *http.Request) string {
	return sessionFrom(r.Context()).User.Username
}

// requestToken returns the bearer token, or the session cookie when the
// request has no Authorization header.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// authenticate rejects requests without a live session.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.svc.Auth.Authenticate(r.Context(), requestToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := withSession(r.Context(), session)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUser, session.User.Username))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates destructive and parameter routes.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := services.RequireAdmin(sessionFrom(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginResponse struct {
	Token         string         `json:"token"`
	LogoURL       string         `json:"logo_url"`
	Establishment string         `json:"establecimiento"`
	Username      string         `json:"usuario"`
	Role          core.Role      `json:"rol"`
	ExpiresAt     core.Timestamp `json:"expira"`
}

// handleLogin accepts JSON from API clients and a form post from the
// dashboard login page; the form flow sets the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.svc.Auth.Login(r.Context(), p.Get("usuario"), p.Get("contrasena"))

	if !p.IsJSON() {
		if err != nil {
			status := statusFor(err)
			msg := services.ErrInvalidCredentials.Error()
			if status == http.StatusInternalServerError {
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Login failed", applog.FieldError, err)
				msg = "error interno del servidor"
			}
			s.renderLogin(w, r, status, msg)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt.Time,
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteStrictMode,
		})
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:         session.Token,
		LogoURL:       session.User.LogoURL,
		Establishment: session.User.Establishment,
		Username:      session.User.Username,
		Role:          session.User.Role,
		ExpiresAt:     session.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.Logout(r.Context(), sessionFrom(r.Context()).Token); err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
