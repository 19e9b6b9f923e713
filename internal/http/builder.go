package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"cms-console/internal/backend"
	"cms-console/internal/builder"
	"cms-console/internal/schema"
)

const draftKey = "builder.draft"

func (s *Server) loadDraft(r *http.Request) *builder.Draft {
	var d builder.Draft
	if _, err := s.sessions.GetJSON(r.Context(), draftKey, &d); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("discarding unreadable schema draft")
		return &builder.Draft{}
	}
	return &d
}

func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request, d *builder.Draft) {
	if err := s.sessions.PutJSON(r.Context(), draftKey, d); err != nil {
		s.flash(r, noticeError, "Could not keep the schema draft")
	}
	s.redirect(w, r, "/builder")
}

func (s *Server) handleBuilder(w http.ResponseWriter, r *http.Request) {
	modules, demo, err := builder.ModuleOptions(r.Context(), s.api, token(r))
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Msg("module list unavailable, using demo modules")
	}
	data := map[string]any{
		"Draft":   s.loadDraft(r),
		"Modules": modules,
		"Demo":    demo,
		"Kinds":   schema.Kinds,
	}
	s.renderDashboard(w, r, http.StatusOK, "builder.html", "Schema Builder", data)
}

func (s *Server) handleBuilderUpdate(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d := s.loadDraft(r)
	d.Module = trimmed(r, "module")
	d.SchemaType = trimmed(r, "schemaType")
	s.saveDraft(w, r, d)
}

func (s *Server) handleBuilderAddField(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d := s.loadDraft(r)
	if _, err := d.AddField(schema.Kind(r.FormValue("type"))); err != nil {
		s.flash(r, noticeError, err.Error())
	}
	s.saveDraft(w, r, d)
}

func (s *Server) handleBuilderEditField(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d := s.loadDraft(r)
	err := d.UpdateField(chi.URLParam(r, "fieldID"), func(f *schema.Field) {
		applyFieldForm(r, f)
	})
	if err != nil {
		s.flash(r, noticeError, err.Error())
	}
	s.saveDraft(w, r, d)
}

// applyFieldForm copies the field editor inputs onto f. Blank numeric
// inputs clear their constraint.
func applyFieldForm(r *http.Request, f *schema.Field) {
	f.Name = trimmed(r, "name")
	f.Label = trimmed(r, "label")
	f.Placeholder = trimmed(r, "placeholder")
	f.Required = r.FormValue("required") != ""
	f.GridWidth = 2
	if r.FormValue("gridWidth") == "1" {
		f.GridWidth = 1
	}
	f.DefaultValue = defaultValue(f.Type, r.FormValue("defaultValue"))

	v := schema.Validation{
		MinLength: intInput(r, "minLength"),
		MaxLength: intInput(r, "maxLength"),
		Min:       floatInput(r, "min"),
		Max:       floatInput(r, "max"),
		Pattern:   trimmed(r, "pattern"),
	}
	if v == (schema.Validation{}) {
		f.Validation = nil
		return
	}
	f.Validation = &v
}

func defaultValue(kind schema.Kind, raw string) any {
	raw = strings.TrimSpace(raw)
	switch kind {
	case schema.KindToggle, schema.KindCheckbox:
		if raw == "" {
			return nil
		}
		return raw == "true" || raw == "on"
	case schema.KindImage:
		return nil
	case schema.KindNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	if raw == "" {
		return nil
	}
	return raw
}

func intInput(r *http.Request, key string) *int {
	n, err := strconv.Atoi(trimmed(r, key))
	if err != nil {
		return nil
	}
	return &n
}

func floatInput(r *http.Request, key string) *float64 {
	n, err := strconv.ParseFloat(trimmed(r, key), 64)
	if err != nil {
		return nil
	}
	return &n
}

// handleBuilderMoveField accepts either a drop target ("over") or a
// one-step direction ("up", "down").
func (s *Server) handleBuilderMoveField(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	d := s.loadDraft(r)
	id := chi.URLParam(r, "fieldID")
	over := r.FormValue("over")
	if over == "" {
		over = neighbour(d, id, r.FormValue("direction"))
	}
	if over != "" {
		if err := d.MoveField(id, over); err != nil {
			s.flash(r, noticeError, err.Error())
		}
	}
	s.saveDraft(w, r, d)
}

func neighbour(d *builder.Draft, id, direction string) string {
	for i, f := range d.Fields {
		if f.ID != id {
			continue
		}
		switch {
		case direction == "up" && i > 0:
			return d.Fields[i-1].ID
		case direction == "down" && i < len(d.Fields)-1:
			return d.Fields[i+1].ID
		}
	}
	return ""
}

func (s *Server) handleBuilderRemoveField(w http.ResponseWriter, r *http.Request) {
	d := s.loadDraft(r)
	if err := d.RemoveField(chi.URLParam(r, "fieldID")); err != nil {
		s.flash(r, noticeError, err.Error())
	}
	s.saveDraft(w, r, d)
}

func (s *Server) handleBuilderSave(w http.ResponseWriter, r *http.Request) {
	d := s.loadDraft(r)
	saved, err := builder.Save(r.Context(), s.api, token(r), d)
	switch {
	case err == nil:
		s.flash(r, noticeSuccess, "Schema "+saved.SchemaType+" saved successfully!")
	case backend.IsUnauthorized(err):
		s.teardown(w, r)
		return
	case errors.Is(err, builder.ErrNoModule), errors.Is(err, builder.ErrNoSchemaType), errors.Is(err, builder.ErrNoFields):
		s.flash(r, noticeError, err.Error())
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			s.flash(r, noticeError, backend.Message(err, "Failed to save schema"))
		} else {
			s.flash(r, noticeError, err.Error())
		}
	}
	s.redirect(w, r, "/builder")
}

func (s *Server) handleBuilderReset(w http.ResponseWriter, r *http.Request) {
	s.sessions.Remove(r.Context(), draftKey)
	s.redirect(w, r, "/builder")
}
