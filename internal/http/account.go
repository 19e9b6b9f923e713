package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/hlog"

	"cms-console/internal/backend"
	"cms-console/internal/session"
)

type accountForm struct {
	Next     string
	Username string
	Email    string
	Error    string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).IsAuthenticated() {
		s.redirect(w, r, "/dashboard")
		return
	}
	s.render(w, r, http.StatusOK, "login.html", "Sign in", accountForm{Next: r.URL.Query().Get("next")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", "Sign in", accountForm{Error: "Invalid request"})
		return
	}
	data := accountForm{Next: r.FormValue("next"), Username: trimmed(r, "username")}
	password := r.FormValue("password")
	if data.Username == "" || password == "" {
		data.Error = "Username and password are required"
		s.render(w, r, http.StatusBadRequest, "login.html", "Sign in", data)
		return
	}

	sess, err := s.sessions.Login(r.Context(), data.Username, password)
	if err != nil {
		status := http.StatusBadGateway
		outcome := "error"
		data.Error = "Login failed"
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			data.Error = authErr.Message
			if authErr.Reason == session.ReasonCredentials {
				status, outcome = http.StatusUnauthorized, "invalid"
			}
		}
		s.metrics.Logins.WithLabelValues(outcome).Inc()
		hlog.FromRequest(r).Info().Err(err).Str("username", data.Username).Msg("login failed")
		s.render(w, r, status, "login.html", "Sign in", data)
		return
	}
	s.metrics.Logins.WithLabelValues("success").Inc()
	s.flash(r, noticeSuccess, "Welcome back, "+sess.Username())
	s.redirect(w, r, safeNext(data.Next))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("logout failed")
	}
	s.flash(r, noticeInfo, "You have been signed out")
	s.redirect(w, r, "/login")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", "Create account", accountForm{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	reg := backend.Registration{
		Username: trimmed(r, "username"),
		Email:    trimmed(r, "email"),
		Password: r.FormValue("password"),
	}
	data := accountForm{Username: reg.Username, Email: reg.Email}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		data.Error = "Username, email and password are required"
		s.render(w, r, http.StatusBadRequest, "register.html", "Create account", data)
		return
	}
	msg, err := s.api.Register(r.Context(), reg)
	if err != nil {
		data.Error = backend.Message(err, "Registration failed")
		s.render(w, r, statusFor(err), "register.html", "Create account", data)
		return
	}
	if strings.TrimSpace(msg) == "" {
		msg = "Account created. Check your email for the verification code"
	}
	s.flash(r, noticeSuccess, msg)
	s.redirect(w, r, "/verify?email="+url.QueryEscape(reg.Email))
}

func (s *Server) handleVerifyPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "verify.html", "Verify account", accountForm{Email: r.URL.Query().Get("email")})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	data := accountForm{Email: trimmed(r, "email")}
	otp := trimmed(r, "otp")
	if data.Email == "" || otp == "" {
		data.Error = "Email and verification code are required"
		s.render(w, r, http.StatusBadRequest, "verify.html", "Verify account", data)
		return
	}
	if err := s.api.VerifyAccount(r.Context(), data.Email, otp); err != nil {
		data.Error = backend.Message(err, "Verification failed")
		s.render(w, r, statusFor(err), "verify.html", "Verify account", data)
		return
	}
	s.flash(r, noticeSuccess, "Account verified, you can sign in now")
	s.redirect(w, r, "/login")
}

func (s *Server) handleForgotPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot.html", "Forgot password", accountForm{})
}

func (s *Server) handleForgot(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	data := accountForm{Email: trimmed(r, "email")}
	if data.Email == "" {
		data.Error = "Please enter your email"
		s.render(w, r, http.StatusBadRequest, "forgot.html", "Forgot password", data)
		return
	}
	if err := s.api.ForgotPassword(r.Context(), data.Email); err != nil {
		data.Error = backend.Message(err, "Could not send the reset code")
		s.render(w, r, statusFor(err), "forgot.html", "Forgot password", data)
		return
	}
	s.flash(r, noticeSuccess, "Check your inbox for the reset code")
	s.redirect(w, r, "/reset-password?email="+url.QueryEscape(data.Email))
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "reset.html", "Reset password", accountForm{Email: r.URL.Query().Get("email")})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	data := accountForm{Email: trimmed(r, "email")}
	otp := trimmed(r, "otp")
	password := r.FormValue("newPassword")
	if data.Email == "" || otp == "" || password == "" {
		data.Error = "Please fill in all fields"
		s.render(w, r, http.StatusBadRequest, "reset.html", "Reset password", data)
		return
	}
	if err := s.api.ResetPassword(r.Context(), data.Email, otp, password); err != nil {
		data.Error = backend.Message(err, "Password reset failed")
		s.render(w, r, statusFor(err), "reset.html", "Reset password", data)
		return
	}
	s.flash(r, noticeSuccess, "Password reset, sign in with your new password")
	s.redirect(w, r, "/login")
}
