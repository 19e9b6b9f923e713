package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/backend"
	"cms-console/internal/session"
)

const (
	noticeSuccess = "success"
	noticeError   = "error"
	noticeInfo    = "info"
)

const messageExpired = "Your session has expired, please sign in again"

func token(r *http.Request) string {
	return session.FromContext(r.Context()).Token()
}

func subject(r *http.Request) access.Subject {
	return session.FromContext(r.Context()).Subject()
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends a 303, or an HX-Redirect header when htmx made the request.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) flash(r *http.Request, kind, message string) {
	s.sessions.Flash(r.Context(), kind, message)
}

// teardown ends the session after the backend rejected its token.
func (s *Server) teardown(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("session teardown failed")
	}
	s.flash(r, noticeError, messageExpired)
	s.redirect(w, r, "/login")
}

// fail reports a backend error as a notice and sends the user back. A 401
// ends the session instead.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback, back string) {
	if backend.IsUnauthorized(err) {
		s.teardown(w, r)
		return
	}
	hlog.FromRequest(r).Warn().Err(err).Msg(fallback)
	s.flash(r, noticeError, backend.Message(err, fallback))
	s.redirect(w, r, back)
}

// statusFor maps a backend failure to the status of the page that reports it.
func statusFor(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// safeNext only allows local paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}

func formValues(r *http.Request, key string) []string {
	values := make([]string, 0, len(r.Form[key]))
	for _, v := range r.Form[key] {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func trimmed(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
