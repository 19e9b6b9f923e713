package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/backend"
	"cms-console/internal/config"
	"cms-console/internal/form"
	"cms-console/internal/metrics"
	"cms-console/internal/schema"
	"cms-console/internal/session"
)

type Server struct {
	cfg      config.Config
	api      *backend.Client
	sessions *session.Store
	forms    *form.Registry
	schemas  *schema.Fetcher
	metrics  *metrics.Metrics
	log      zerolog.Logger
	pages    map[string]*template.Template
}

func NewServer(cfg config.Config, api *backend.Client, sessions *session.Store, forms *form.Registry, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		forms:    forms,
		schemas:  schema.NewFetcher(api),
		metrics:  m,
		log:      logger,
		pages:    pages,
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(requestIDField)
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(s.recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Manager().LoadAndSave)
		r.Use(s.loadSession)

		r.Get("/session", s.handleSessionState)

		// Public site and account flows.
		r.Get(access.LandingPath, s.handleLanding)
		r.Get("/view/{module}", s.handlePublicList)
		r.Get("/view/{module}/{postID}", s.handlePublicDetail)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/register", s.handleRegisterPage)
		r.Post("/register", s.handleRegister)
		r.Get("/verify", s.handleVerifyPage)
		r.Post("/verify", s.handleVerify)
		r.Get("/forgot-password", s.handleForgotPage)
		r.Post("/forgot-password", s.handleForgot)
		r.Get("/reset-password", s.handleResetPage)
		r.Post("/reset-password", s.handleReset)

		// Dashboard.
		authed := r.With(s.guard(allow(access.Gate{})))
		authed.Get("/dashboard", s.handleDashboard)
		authed.Get("/profile", s.handleProfile)
		authed.Get("/notifications", s.handleMyNotifications)

		admin := r.With(s.guard(allow(access.AdminGate())))
		admin.Get("/users", s.handleUsers)
		admin.Post("/users", s.handleCreateUser)
		admin.Post("/users/{userID}/roles", s.handleSetUserRoles)
		admin.Post("/users/{userID}/delete", s.handleDeleteUser)
		admin.Get("/roles", s.handleRoles)
		admin.Post("/roles", s.handleCreateRole)
		admin.Post("/roles/{roleID}/delete", s.handleDeleteRole)
		admin.Get("/roles/{roleID}/permissions", s.handleRolePermissions)
		admin.Post("/roles/{roleID}/permissions", s.handleSaveRolePermissions)
		admin.Get("/modules", s.handleModules)
		admin.Post("/modules", s.handleCreateModule)
		admin.Post("/modules/{moduleID}/delete", s.handleDeleteModule)
		admin.Get("/builder", s.handleBuilder)
		admin.Post("/builder", s.handleBuilderUpdate)
		admin.Post("/builder/fields", s.handleBuilderAddField)
		admin.Post("/builder/fields/{fieldID}", s.handleBuilderEditField)
		admin.Post("/builder/fields/{fieldID}/move", s.handleBuilderMoveField)
		admin.Post("/builder/fields/{fieldID}/delete", s.handleBuilderRemoveField)
		admin.Post("/builder/save", s.handleBuilderSave)
		admin.Post("/builder/reset", s.handleBuilderReset)

		notify := r.With(s.guard(allow(access.NotificationGate())))
		notify.Get("/notifications/manage", s.handleNotificationManager)
		notify.Post("/notifications/send", s.handleSendNotification)
		notify.Post("/notifications/broadcast", s.handleBroadcast)
		notify.Post("/notifications/{notificationID}/delete", s.handleDeleteNotification)

		r.With(s.guard(moduleAction(access.ActionRead))).Get("/cms/{module}", s.handleModulePosts)
		r.With(s.guard(moduleAction(access.ActionRead))).Get("/cms/{module}/posts/{postID}", s.handlePostDetail)
		r.With(s.guard(moduleAction(access.ActionCreate))).Get("/cms/{module}/new", s.handleNewPost)
		r.With(s.guard(moduleAction(access.ActionUpdate))).Get("/cms/{module}/posts/{postID}/edit", s.handleEditPost)
		r.With(s.guard(moduleAction(access.ActionDelete))).Post("/cms/{module}/posts/{postID}/delete", s.handleDeletePost)

		// Form instances check their own module gate once loaded.
		authed.Get("/forms/{formID}", s.handleForm)
		authed.Post("/forms/{formID}", s.handleSubmitForm)
		authed.Post("/forms/{formID}/type", s.handleFormType)
		authed.Post("/forms/{formID}/uploads/{field}", s.handleUpload)
		authed.Post("/forms/{formID}/discard", s.handleDiscardForm)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusNotFound, "not_found.html", "Not Found", nil)
	})

	return r
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	payload := map[string]any{
		"isAuthenticated": sess.IsAuthenticated(),
		"isLoading":       sess.IsLoading(),
		"roles":           nonNil(sess.Roles()),
		"permissions":     nonNil(sess.Permissions()),
		"user":            sess.User(),
	}
	writeJSON(w, http.StatusOK, payload)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
