package http

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/content"
	"cms-console/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var shared = []string{"templates/layout.html", "templates/partials.html"}

var funcs = template.FuncMap{
	"isImage":     content.IsImageValue,
	"formatValue": content.FormatValue,
	"slug":        access.ModuleSlug,
	"displayName": access.DisplayName,
}

// parsePages builds one template set per page so every page can define its
// own "content" block.
func parsePages() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		if name == "layout.html" || name == "partials.html" {
			continue
		}
		patterns := append(append([]string(nil), shared...), file)
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, patterns...)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

type page struct {
	Title     string
	Session   *session.Session
	Notices   []session.Notice
	Dashboard bool
	Nav       []access.NavModule
	Admin     bool
	Notify    bool
	Data      any
}

func (s *Server) newPage(r *http.Request, title string, data any) page {
	sess := session.FromContext(r.Context())
	p := page{Title: title, Session: sess, Data: data}
	if !sess.IsLoading() {
		p.Notices = s.sessions.Notices(r.Context())
	}
	return p
}

// render writes a page with the public chrome.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	s.execute(w, r, status, name, "layout", s.newPage(r, title, data))
}

// renderDashboard writes a page with the sidebar navigation.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p := s.newPage(r, title, data)
	p.Dashboard = true
	subject := p.Session.Subject()
	p.Admin = access.AdminGate().Allows(subject)
	p.Notify = access.CanManageNotifications(subject)
	p.Nav = access.ResolveModules(r.Context(), subject, p.Session.Permissions(), s.api, p.Session.Token())
	s.execute(w, r, status, name, "layout", p)
}

// renderFragment writes a single named block for htmx swaps.
func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, status int, name, block string, data any) {
	s.execute(w, r, status, name, block, data)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, name, block string, data any) {
	t, ok := s.pages[name]
	if !ok {
		s.renderPanel(w, r, errUnknownPage(name), nil)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("template failed")
		s.renderPanel(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type panel struct {
	Error string
	Stack string
	Path  string
}

// renderPanel is the last-resort page: error text, stack and a reload link.
func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, err error, stack []byte) {
	data := panel{Error: err.Error(), Stack: string(stack), Path: r.URL.RequestURI()}
	var buf bytes.Buffer
	t, ok := s.pages["panel.html"]
	if !ok || t.ExecuteTemplate(&buf, "panel", data) != nil {
		http.Error(w, "Something went wrong: "+data.Error, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	s.execute(w, r, http.StatusServiceUnavailable, "loading.html", "loading", map[string]string{"Path": r.URL.RequestURI()})
}

type errUnknownPage string

func (e errUnknownPage) Error() string {
	return "unknown page " + string(e)
}
