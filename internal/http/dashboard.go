package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cms-console/internal/access"
	"cms-console/internal/backend"
	"cms-console/internal/session"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	data := map[string]any{
		"Roles":       sess.Roles(),
		"Permissions": sess.Permissions(),
	}
	s.renderDashboard(w, r, http.StatusOK, "dashboard.html", "Dashboard", data)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	data := map[string]any{
		"Username":    sess.Username(),
		"Email":       sess.Email(),
		"User":        sess.User(),
		"Roles":       sess.Roles(),
		"Permissions": sess.Permissions(),
	}
	if claims := sess.Claims(); claims != nil && claims.ExpiresAt != nil {
		data["ExpiresAt"] = claims.ExpiresAt.Time
	}
	s.renderDashboard(w, r, http.StatusOK, "profile.html", "Profile", data)
}

func (s *Server) handleMyNotifications(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	data := map[string]any{"Email": sess.Email()}
	if sess.Email() == "" {
		data["Error"] = "Your profile has no email address"
		s.renderDashboard(w, r, http.StatusOK, "notifications.html", "My notifications", data)
		return
	}
	items, err := s.api.MyNotifications(r.Context(), sess.Token(), sess.Email())
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load notifications")
		s.renderDashboard(w, r, statusFor(err), "notifications.html", "My notifications", data)
		return
	}
	data["Items"] = items
	s.renderDashboard(w, r, http.StatusOK, "notifications.html", "My notifications", data)
}

func (s *Server) handleNotificationManager(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Categories": backend.NotificationCategories}
	history, err := s.api.NotificationHistory(r.Context(), token(r))
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load notification history")
	}
	data["History"] = history
	s.renderDashboard(w, r, http.StatusOK, "notify_manage.html", "Notifications", data)
}

func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	category, ok := backend.ParseCategory(r.FormValue("category"))
	n := backend.ManualNotification{
		Email:       trimmed(r, "email"),
		Subject:     trimmed(r, "subject"),
		MessageBody: trimmed(r, "messageBody"),
		Category:    category,
	}
	if n.Email == "" || n.Subject == "" || n.MessageBody == "" || !ok {
		s.flash(r, noticeError, "Email, subject, message and a valid category are required")
		s.redirect(w, r, "/notifications/manage")
		return
	}
	if err := s.api.SendNotification(r.Context(), token(r), n); err != nil {
		s.fail(w, r, err, "Failed to send notification", "/notifications/manage")
		return
	}
	s.flash(r, noticeSuccess, "Notification sent to "+n.Email)
	s.redirect(w, r, "/notifications/manage")
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	category, ok := backend.ParseCategory(r.FormValue("category"))
	b := backend.Broadcast{
		Subject:     trimmed(r, "subject"),
		MessageBody: trimmed(r, "messageBody"),
		Category:    category,
	}
	if b.Subject == "" || b.MessageBody == "" || !ok {
		s.flash(r, noticeError, "Subject, message and a valid category are required")
		s.redirect(w, r, "/notifications/manage")
		return
	}
	if err := s.api.Broadcast(r.Context(), token(r), b); err != nil {
		s.fail(w, r, err, "Broadcast failed", "/notifications/manage")
		return
	}
	s.flash(r, noticeSuccess, "Broadcast queued for all users")
	s.redirect(w, r, "/notifications/manage")
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "notificationID")
	if err := s.api.DeleteNotification(r.Context(), token(r), id); err != nil {
		s.fail(w, r, err, "Failed to delete notification", "/notifications/manage")
		return
	}
	s.flash(r, noticeSuccess, "Notification deleted")
	s.redirect(w, r, "/notifications/manage")
}

// can reports whether the request's subject passes the gate for action on
// module. Used to show or hide buttons, never to authorize.
func can(r *http.Request, module string, action access.Action) bool {
	return access.ModuleGate(module, action).Allows(subject(r))
}
