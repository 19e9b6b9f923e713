// Package form holds the state of one schema-driven content form between
// requests: values, per-field upload flags and the submission lock.
package form

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"cms-console/internal/backend"
	"cms-console/internal/content"
	"cms-console/internal/schema"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

const (
	MessageCreated = "Content Saved Successfully!"
	MessageUpdated = "Content Updated Successfully!"
	messageFailed  = "Failed to save content"
	messageUpload  = "Image upload failed"
)

type Uploader interface {
	Upload(ctx context.Context, token, filename string, file io.Reader) (string, error)
}

type Submitter interface {
	CreatePost(ctx context.Context, token, module, schemaType string, data content.Data) error
	UpdatePost(ctx context.Context, token, id string, data content.Data) error
}

// Upload is a file pushed to the backend on behalf of a form.
type Upload struct {
	Field string
	URL   string
	At    time.Time
}

type Instance struct {
	id      string
	owner   string
	mode    Mode
	editID  string
	initial map[string]any
	orphans func([]Upload)
	now     func() time.Time

	mu         sync.Mutex
	module     string
	schemaType string
	generation uint64
	schema     *schema.Schema
	validator  *schema.Validator
	values     map[string]any
	errors     schema.Errors
	uploading  map[string]bool
	submitting bool
	pending    []Upload
	touched    time.Time
}

func newInstance(id, owner string, mode Mode, module, schemaType, editID string, initial map[string]any, now func() time.Time) *Instance {
	return &Instance{
		id:         id,
		owner:      owner,
		mode:       mode,
		editID:     editID,
		initial:    schema.EditValues(initial),
		now:        now,
		module:     module,
		schemaType: schemaType,
		values:     map[string]any{},
		uploading:  map[string]bool{},
		touched:    now(),
	}
}

func (f *Instance) ID() string {
	return f.id
}

func (f *Instance) Mode() Mode {
	return f.mode
}

func (f *Instance) EditID() string {
	return f.editID
}

// Load fetches the schema, builds its validator and resets all state. If a
// later Load starts before this one finishes, this result is dropped.
func (f *Instance) Load(ctx context.Context, fetcher *schema.Fetcher, token, module, schemaType string) error {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	f.module, f.schemaType = module, schemaType
	f.schema, f.validator = nil, nil
	f.values = map[string]any{}
	f.errors = nil
	f.uploading = map[string]bool{}
	f.touched = f.now()
	f.mu.Unlock()

	s, err := fetcher.Fetch(ctx, token, module, schemaType)
	var v *schema.Validator
	if err == nil {
		v, err = schema.GenerateValidator(s.Structure)
		if err != nil {
			err = &schema.FetchError{Module: module, SchemaType: schemaType, Err: err}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return ErrStale
	}
	if err != nil {
		return err
	}
	f.schema = &s
	f.validator = v
	if s.SchemaType != "" && f.schemaType == "" {
		f.schemaType = s.SchemaType
	}
	f.values = f.startingValues()
	return nil
}

func (f *Instance) startingValues() map[string]any {
	if f.mode == ModeEdit {
		return schema.EditValues(f.initial)
	}
	return schema.Defaults(f.schema.Structure)
}

// SetValue records one field value. Only schema fields are accepted.
func (f *Instance) SetValue(name string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validator == nil {
		return ErrNoSchema
	}
	if _, ok := f.schema.Field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	f.values[name] = value
	delete(f.errors, name)
	f.touched = f.now()
	return nil
}

// Bind applies submitted values for every schema field present in values.
func (f *Instance) Bind(values map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validator == nil {
		return ErrNoSchema
	}
	for _, field := range f.schema.Structure {
		v, ok := values[field.Name]
		if !ok {
			continue
		}
		f.values[field.Name] = v
	}
	f.touched = f.now()
	return nil
}

func (f *Instance) Value(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return v, ok
}

// Upload pushes a file for an image field and stores only the returned URL.
// On failure the field keeps whatever value it had.
func (f *Instance) Upload(ctx context.Context, up Uploader, token, field, filename string, file io.Reader) (string, error) {
	f.mu.Lock()
	if f.validator == nil {
		f.mu.Unlock()
		return "", ErrNoSchema
	}
	fld, ok := f.schema.Field(field)
	if !ok || fld.Type != schema.KindImage {
		f.mu.Unlock()
		return "", &UploadError{Field: field, Message: "This field does not accept images", Err: ErrNotImageField}
	}
	if f.uploading[field] {
		f.mu.Unlock()
		return "", &UploadError{Field: field, Message: "An upload is already running for this field", Err: ErrBusy}
	}
	f.uploading[field] = true
	gen := f.generation
	f.mu.Unlock()

	url, err := up.Upload(ctx, token, filename, file)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.now()
	if gen == f.generation {
		delete(f.uploading, field)
	}
	if err != nil {
		return "", &UploadError{Field: field, Message: backend.Message(err, messageUpload), Err: err}
	}
	f.pending = append(f.pending, Upload{Field: field, URL: url, At: f.now()})
	if gen != f.generation {
		return "", ErrStale
	}
	f.values[field] = url
	delete(f.errors, field)
	return url, nil
}

// Result describes a successful submission.
type Result struct {
	Mode    Mode
	Message string
}

// Submit validates, then posts the data dictionary as one JSON blob. A
// create resets the form to its defaults, an edit keeps the submitted values.
func (f *Instance) Submit(ctx context.Context, sub Submitter, token string) (Result, error) {
	f.mu.Lock()
	if f.validator == nil {
		f.mu.Unlock()
		return Result{}, ErrNoSchema
	}
	if f.submitting || len(f.uploading) > 0 {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	out, errs := f.validator.Validate(f.values)
	if errs != nil {
		f.errors = errs
		f.mu.Unlock()
		return Result{}, errs
	}
	f.errors = nil
	f.submitting = true
	order := make([]string, 0, len(f.schema.Structure))
	for _, field := range f.schema.Structure {
		order = append(order, field.Name)
	}
	data := content.DataFrom(out, order)
	gen, module, schemaType := f.generation, f.module, f.schemaType
	f.mu.Unlock()

	var err error
	if f.mode == ModeCreate {
		err = sub.CreatePost(ctx, token, module, schemaType, data)
	} else {
		err = sub.UpdatePost(ctx, token, f.editID, data)
	}

	f.mu.Lock()
	f.submitting = false
	f.touched = f.now()
	if err != nil {
		f.mu.Unlock()
		return Result{}, &SubmitError{Message: backend.Message(err, messageFailed), Err: err}
	}
	orphaned := f.settleUploads(out)
	result := Result{Mode: f.mode, Message: MessageUpdated}
	if gen == f.generation {
		if f.mode == ModeCreate {
			result.Message = MessageCreated
			f.values = schema.Defaults(f.schema.Structure)
		} else {
			f.values = out
			f.initial = schema.EditValues(out)
		}
	}
	f.mu.Unlock()

	if len(orphaned) > 0 && f.orphans != nil {
		f.orphans(orphaned)
	}
	return result, nil
}

// settleUploads clears the pending list and returns uploads the submitted
// data no longer references.
func (f *Instance) settleUploads(submitted map[string]any) []Upload {
	var orphaned []Upload
	for _, u := range f.pending {
		if v, ok := submitted[u.Field].(string); ok && v == u.URL {
			continue
		}
		orphaned = append(orphaned, u)
	}
	f.pending = nil
	return orphaned
}

// takePending hands back uploads never committed by a submission.
func (f *Instance) takePending() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	pending := f.pending
	f.pending = nil
	return pending
}

func (f *Instance) idleSince() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	busy := f.submitting || len(f.uploading) > 0
	return f.touched, busy
}
