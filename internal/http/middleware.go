package http

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/session"
)

func requestIDField(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			logger := zerolog.Ctx(r.Context())
			logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// recoverer turns a panic in any page into the diagnostic panel instead of
// a dropped connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			hlog.FromRequest(r).Error().
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", stack).
				Msg("page panicked")
			s.renderPanel(w, r, fmt.Errorf("%v", rec), stack)
		}()
		next.ServeHTTP(w, r)
	})
}

// loadSession resolves the session once per request: token decode first,
// then the profile fetch.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Init(r.Context())
		if sess.IsAuthenticated() {
			logger := zerolog.Ctx(r.Context())
			logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user", sess.Username())
			})
		}
		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

type gateFunc func(*http.Request) access.Gate

func allow(g access.Gate) gateFunc {
	return func(*http.Request) access.Gate { return g }
}

func moduleAction(action access.Action) gateFunc {
	return func(r *http.Request) access.Gate {
		return access.ModuleGate(chi.URLParam(r, "module"), action)
	}
}

// guard is the only place route access is decided. A session still loading
// gets the loading page, an anonymous one goes to /login and a denied one
// to the landing page.
func (s *Server) guard(gate gateFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			switch {
			case sess.IsLoading():
				s.renderLoading(w, r)
				return
			case !sess.IsAuthenticated():
				s.redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()))
				return
			}
			if !gate(r).Allows(sess.Subject()) {
				hlog.FromRequest(r).Info().Str("path", r.URL.Path).Msg("access denied")
				s.flash(r, noticeError, "You do not have access to that page")
				s.redirect(w, r, access.LandingPath)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
