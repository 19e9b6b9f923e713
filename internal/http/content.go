package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/backend"
	"cms-console/internal/content"
	"cms-console/internal/session"
)

// excludedPublicModules hold site chrome, not browsable content.
var excludedPublicModules = map[string]bool{
	"NOTIFICATION": true,
	"FOOTER":       true,
	"HEADER":       true,
}

type valueView struct {
	Key   string
	Label string
	Value string
	Image bool
}

type postRow struct {
	ID         string
	Title      string
	SchemaType string
	Published  bool
	Author     string
	Date       string
	LastAction string
	Preview    []valueView
}

func newValueView(key string, v any) valueView {
	return valueView{
		Key:   key,
		Label: access.DisplayName(key),
		Value: content.FormatValue(v),
		Image: content.IsImageValue(v),
	}
}

func newPostRow(p content.Post) postRow {
	row := postRow{
		ID:         p.ID.String(),
		Title:      content.DisplayTitle(p),
		SchemaType: p.SchemaType,
		Published:  p.Published,
		Author:     p.CreatedByUsername,
		Date:       p.EntryDateTime,
		LastAction: p.LastAction,
	}
	if row.Date == "" {
		row.Date = p.CreatedAt
	}
	titleKey, _ := content.TitleKey(p.Data)
	for _, k := range content.PreviewKeys(p.Data, titleKey) {
		v, _ := p.Data.Get(k)
		row.Preview = append(row.Preview, newValueView(k, v))
	}
	return row
}

func postValues(p content.Post) []valueView {
	values := make([]valueView, 0, p.Data.Len())
	for _, k := range p.Data.Keys() {
		v, _ := p.Data.Get(k)
		values = append(values, newValueView(k, v))
	}
	return values
}

func moduleParam(r *http.Request) string {
	return access.ModuleKey(chi.URLParam(r, "module"))
}

func (s *Server) handleModulePosts(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	filter := strings.TrimSpace(r.URL.Query().Get("type"))
	data := map[string]any{
		"Module":    access.NewNavModule(module),
		"Type":      filter,
		"CanCreate": can(r, module, access.ActionCreate),
		"CanUpdate": can(r, module, access.ActionUpdate),
		"CanDelete": can(r, module, access.ActionDelete),
	}

	types, err := s.api.SchemaTypes(r.Context(), token(r), module)
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Str("module", module).Msg("schema types unavailable")
		data["TypesError"] = backend.Message(err, "Failed to load content types")
	}
	data["Types"] = types

	posts, err := s.api.Posts(r.Context(), token(r), module)
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		data["Error"] = backend.Message(err, "Failed to load posts")
		s.renderDashboard(w, r, statusFor(err), "posts.html", access.DisplayName(module), data)
		return
	}
	rows := make([]postRow, 0, len(posts))
	for _, p := range posts {
		if filter != "" && p.SchemaType != filter {
			continue
		}
		rows = append(rows, newPostRow(p))
	}
	data["Posts"] = rows
	s.renderDashboard(w, r, http.StatusOK, "posts.html", access.DisplayName(module), data)
}

func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	post, err := s.api.Post(r.Context(), token(r), chi.URLParam(r, "postID"))
	if err != nil {
		s.fail(w, r, err, "Failed to load post", "/cms/"+access.ModuleSlug(module))
		return
	}
	data := map[string]any{
		"Module":    access.NewNavModule(module),
		"Post":      newPostRow(post),
		"Values":    postValues(post),
		"CanUpdate": can(r, module, access.ActionUpdate),
		"CanDelete": can(r, module, access.ActionDelete),
	}
	s.renderDashboard(w, r, http.StatusOK, "post.html", content.DisplayTitle(post), data)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	back := "/cms/" + access.ModuleSlug(moduleParam(r))
	if err := s.api.DeletePost(r.Context(), token(r), chi.URLParam(r, "postID")); err != nil {
		s.fail(w, r, err, "Failed to delete post", back)
		return
	}
	s.flash(r, noticeSuccess, "Post deleted")
	s.redirect(w, r, back)
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess.IsAuthenticated() && access.CanAccessDashboard(sess.Subject()) {
		s.redirect(w, r, "/dashboard")
		return
	}
	data := map[string]any{}
	names, err := s.api.PublicModules(r.Context())
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("public modules unavailable")
		data["Error"] = backend.Message(err, "Content is unavailable right now")
	}
	modules := make([]access.NavModule, 0, len(names))
	for _, name := range names {
		m := access.NewNavModule(name)
		if m.Key == "" || excludedPublicModules[m.Key] {
			continue
		}
		modules = append(modules, m)
	}
	data["Modules"] = modules
	s.render(w, r, http.StatusOK, "home.html", "Home", data)
}

func (s *Server) handlePublicList(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	data := map[string]any{"Module": access.NewNavModule(module)}
	if excludedPublicModules[module] {
		s.render(w, r, http.StatusNotFound, "not_found.html", "Not Found", nil)
		return
	}
	posts, err := s.api.PublicPosts(r.Context(), module)
	if err != nil {
		data["Error"] = backend.Message(err, "Failed to load posts")
		s.render(w, r, statusFor(err), "public_list.html", access.DisplayName(module), data)
		return
	}
	rows := make([]postRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, newPostRow(p))
	}
	data["Posts"] = rows
	s.render(w, r, http.StatusOK, "public_list.html", access.DisplayName(module), data)
}

func (s *Server) handlePublicDetail(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	post, err := s.api.Post(r.Context(), "", chi.URLParam(r, "postID"))
	if err != nil {
		status := statusFor(err)
		if backend.IsUnauthorized(err) {
			status = http.StatusNotFound
		}
		s.render(w, r, status, "public_post.html", "Post", map[string]any{
			"Module": access.NewNavModule(module),
			"Error":  backend.Message(err, "This post is not available"),
		})
		return
	}
	s.render(w, r, http.StatusOK, "public_post.html", content.DisplayTitle(post), map[string]any{
		"Module": access.NewNavModule(module),
		"Post":   newPostRow(post),
		"Values": postValues(post),
	})
}
