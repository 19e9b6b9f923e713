package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"cms-console/internal/access"
	"cms-console/internal/backend"
	"cms-console/internal/form"
	"cms-console/internal/schema"
)

const maxUploadSize = 32 << 20

type fieldFragment struct {
	FormID string
	Field  form.FieldView
}

type formPage struct {
	Form   form.View
	Module access.NavModule
	Fields []fieldFragment
	Types  []string
}

func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	schemaType := schema.NormalizeType(r.URL.Query().Get("type"))
	inst := s.forms.NewCreate(s.sessions.ID(r.Context()), module, schemaType)
	if !s.loadForm(w, r, inst, module, schemaType) {
		return
	}
	s.redirect(w, r, "/forms/"+inst.ID())
}

func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	module := moduleParam(r)
	postID := chi.URLParam(r, "postID")
	post, err := s.api.Post(r.Context(), token(r), postID)
	if err != nil {
		s.fail(w, r, err, "Failed to load post", "/cms/"+access.ModuleSlug(module))
		return
	}
	inst := s.forms.NewEdit(s.sessions.ID(r.Context()), module, post.SchemaType, postID, post.Data.Map())
	if !s.loadForm(w, r, inst, module, post.SchemaType) {
		return
	}
	s.redirect(w, r, "/forms/"+inst.ID())
}

// loadForm fetches the schema for inst. A schema failure leaves the form in
// its empty state with a notice; only a rejected token stops the request.
func (s *Server) loadForm(w http.ResponseWriter, r *http.Request, inst *form.Instance, module, schemaType string) bool {
	err := inst.Load(r.Context(), s.schemas, token(r), module, schemaType)
	switch {
	case err == nil, errors.Is(err, form.ErrStale):
		return true
	case backend.IsUnauthorized(err):
		s.forms.Discard(r.Context(), s.sessions.ID(r.Context()), inst.ID())
		s.teardown(w, r)
		return false
	}
	hlog.FromRequest(r).Warn().Err(err).Str("module", module).Str("schema_type", schemaType).Msg("schema load failed")
	s.flash(r, noticeError, backend.Message(err, "Failed to load the form schema"))
	return true
}

// formFor resolves the form instance named in the URL for the current
// browser session and re-checks the module gate for its mode.
func (s *Server) formFor(w http.ResponseWriter, r *http.Request) (*form.Instance, form.View, bool) {
	inst, ok := s.forms.Get(s.sessions.ID(r.Context()), chi.URLParam(r, "formID"))
	if !ok {
		s.render(w, r, http.StatusNotFound, "not_found.html", "Form expired", map[string]string{
			"Message": "This form has expired. Open it again from the module page.",
		})
		return nil, form.View{}, false
	}
	view := inst.View()
	action := access.ActionCreate
	if view.Mode == form.ModeEdit {
		action = access.ActionUpdate
	}
	if !can(r, view.Module, action) {
		s.flash(r, noticeError, "You do not have access to that page")
		s.redirect(w, r, access.LandingPath)
		return nil, form.View{}, false
	}
	return inst, view, true
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, inst *form.Instance) {
	view := inst.View()
	data := formPage{Form: view, Module: access.NewNavModule(view.Module)}
	for _, f := range view.Fields {
		data.Fields = append(data.Fields, fieldFragment{FormID: view.ID, Field: f})
	}
	if view.Mode == form.ModeCreate {
		types, err := s.api.SchemaTypes(r.Context(), token(r), view.Module)
		if err != nil {
			if backend.IsUnauthorized(err) {
				s.teardown(w, r)
				return
			}
			hlog.FromRequest(r).Warn().Err(err).Str("module", view.Module).Msg("schema types unavailable")
		}
		data.Types = types
	}
	title := "New " + access.DisplayName(view.Module)
	if view.Mode == form.ModeEdit {
		title = "Edit " + access.DisplayName(view.Module)
	}
	s.renderDashboard(w, r, status, "form.html", title, data)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	inst, _, ok := s.formFor(w, r)
	if !ok {
		return
	}
	s.renderForm(w, r, http.StatusOK, inst)
}

// submittedValues reads schema fields from the request. Unchecked boxes are
// absent from a form post and read as false; images only change by upload.
func submittedValues(r *http.Request, view form.View) map[string]any {
	values := make(map[string]any, len(view.Fields))
	for _, f := range view.Fields {
		switch f.Control {
		case form.ControlImage:
			continue
		case form.ControlSwitch, form.ControlCheckbox:
			values[f.Name] = r.FormValue(f.Name) != ""
		default:
			if _, ok := r.Form[f.Name]; ok {
				values[f.Name] = r.FormValue(f.Name)
			}
		}
	}
	return values
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	inst, view, ok := s.formFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.flash(r, noticeError, "Invalid form submission")
		s.renderForm(w, r, http.StatusBadRequest, inst)
		return
	}
	if err := inst.Bind(submittedValues(r, view)); err != nil {
		s.flash(r, noticeError, "This form has no schema loaded")
		s.renderForm(w, r, http.StatusConflict, inst)
		return
	}

	res, err := inst.Submit(r.Context(), s.api, token(r))
	mode := view.Mode.String()
	var invalid schema.Errors
	var submitErr *form.SubmitError
	switch {
	case err == nil:
		s.metrics.Submissions.WithLabelValues(mode, "success").Inc()
		s.flash(r, noticeSuccess, res.Message)
		s.redirect(w, r, "/forms/"+inst.ID())
	case errors.As(err, &invalid):
		s.metrics.Submissions.WithLabelValues(mode, "invalid").Inc()
		s.renderForm(w, r, http.StatusUnprocessableEntity, inst)
	case errors.As(err, &submitErr):
		if backend.IsUnauthorized(err) {
			s.teardown(w, r)
			return
		}
		s.metrics.Submissions.WithLabelValues(mode, "error").Inc()
		hlog.FromRequest(r).Warn().Err(err).Str("module", view.Module).Msg("submission failed")
		s.flash(r, noticeError, submitErr.Message)
		s.renderForm(w, r, statusFor(err), inst)
	case errors.Is(err, form.ErrBusy):
		s.flash(r, noticeInfo, "Please wait for the current upload or save to finish")
		s.renderForm(w, r, http.StatusConflict, inst)
	default:
		s.flash(r, noticeError, "This form has no schema loaded")
		s.renderForm(w, r, http.StatusConflict, inst)
	}
}

func (s *Server) handleFormType(w http.ResponseWriter, r *http.Request) {
	inst, view, ok := s.formFor(w, r)
	if !ok {
		return
	}
	if view.Mode != form.ModeCreate {
		s.redirect(w, r, "/forms/"+inst.ID())
		return
	}
	_ = r.ParseForm()
	schemaType := schema.NormalizeType(r.FormValue("schemaType"))
	if !s.loadForm(w, r, inst, view.Module, schemaType) {
		return
	}
	s.redirect(w, r, "/forms/"+inst.ID())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	inst, _, ok := s.formFor(w, r)
	if !ok {
		return
	}
	field := chi.URLParam(r, "field")
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.uploadResult(w, r, inst, field, http.StatusBadRequest, "Please choose a file to upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.uploadResult(w, r, inst, field, http.StatusBadRequest, "Please choose a file to upload")
		return
	}
	defer file.Close()

	_, err = inst.Upload(r.Context(), s.api, token(r), field, header.Filename, file)
	var uploadErr *form.UploadError
	switch {
	case err == nil:
		s.metrics.Uploads.WithLabelValues("success").Inc()
		s.uploadResult(w, r, inst, field, http.StatusOK, "")
	case backend.IsUnauthorized(err):
		s.metrics.Uploads.WithLabelValues("failure").Inc()
		s.teardown(w, r)
	case errors.As(err, &uploadErr):
		s.metrics.Uploads.WithLabelValues("failure").Inc()
		status := statusFor(err)
		switch {
		case errors.Is(err, form.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, form.ErrNotImageField):
			status = http.StatusBadRequest
		}
		hlog.FromRequest(r).Warn().Err(err).Str("field", field).Msg("upload failed")
		s.uploadResult(w, r, inst, field, status, uploadErr.Message)
	case errors.Is(err, form.ErrStale):
		s.uploadResult(w, r, inst, field, http.StatusConflict, "The form changed while the file was uploading")
	default:
		s.uploadResult(w, r, inst, field, http.StatusConflict, "This form has no schema loaded")
	}
}

// uploadResult answers htmx with the re-rendered field, and a plain form
// post with a redirect back to the form.
func (s *Server) uploadResult(w http.ResponseWriter, r *http.Request, inst *form.Instance, field string, status int, message string) {
	if isHTMX(r) {
		for _, f := range inst.View().Fields {
			if f.Name != field {
				continue
			}
			if message != "" {
				f.Error = message
			}
			s.renderFragment(w, r, status, "form.html", "field", fieldFragment{FormID: inst.ID(), Field: f})
			return
		}
		writeError(w, http.StatusNotFound, "unknown_field")
		return
	}
	if message != "" {
		s.flash(r, noticeError, message)
	} else {
		s.flash(r, noticeSuccess, "Image uploaded")
	}
	s.redirect(w, r, "/forms/"+inst.ID())
}

func (s *Server) handleDiscardForm(w http.ResponseWriter, r *http.Request) {
	inst, view, ok := s.formFor(w, r)
	if !ok {
		return
	}
	s.forms.Discard(context.WithoutCancel(r.Context()), s.sessions.ID(r.Context()), inst.ID())
	s.redirect(w, r, "/cms/"+access.ModuleSlug(view.Module))
}
