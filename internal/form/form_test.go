package form

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-console/internal/backend"
	"cms-console/internal/content"
	"cms-console/internal/schema"
)

type fakeSource struct {
	schemas map[string]schema.Schema
	gate    map[string]chan struct{}
	err     error
}

func (f *fakeSource) Schema(ctx context.Context, _ string, module, schemaType string) (schema.Schema, error) {
	key := module + "/" + schemaType
	if ch, ok := f.gate[key]; ok {
		<-ch
	}
	if f.err != nil {
		return schema.Schema{}, f.err
	}
	return f.schemas[key], nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	created []content.Data
	updated map[string]content.Data
	err     error
}

func (f *fakeSubmitter) CreatePost(_ context.Context, _ string, module, schemaType string, data content.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, data)
	return nil
}

func (f *fakeSubmitter) UpdatePost(_ context.Context, _ string, id string, data content.Data) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.updated == nil {
		f.updated = map[string]content.Data{}
	}
	f.updated[id] = data
	return nil
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) Upload(_ context.Context, _ string, _ string, file io.Reader) (string, error) {
	_, _ = io.ReadAll(file)
	return f.url, f.err
}

func eventSchema() schema.Schema {
	return schema.Schema{
		SchemaName: "Event",
		SchemaType: "EVENT",
		Structure: []schema.Field{
			{Name: "title", Label: "Title", Type: schema.KindText, Required: true},
			{Name: "seats", Label: "Seats", Type: schema.KindNumber, DefaultValue: 10.0},
			{Name: "cover", Label: "Cover", Type: schema.KindImage},
			{Name: "day", Label: "Day", Type: schema.KindDate},
		},
	}
}

func newFetcher(src *fakeSource) *schema.Fetcher {
	return schema.NewFetcher(src)
}

func loadedCreate(t *testing.T, reg *Registry) *Instance {
	t.Helper()
	src := &fakeSource{schemas: map[string]schema.Schema{"ACADEMIC/EVENT": eventSchema()}}
	inst := reg.NewCreate("owner", "ACADEMIC", "EVENT")
	require.NoError(t, inst.Load(context.Background(), newFetcher(src), "tok", "ACADEMIC", "EVENT"))
	return inst
}

func TestCreateSubmitResetsToDefaults(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	v, _ := inst.Value("seats")
	assert.Equal(t, 10.0, v)

	require.NoError(t, inst.Bind(map[string]any{"title": "Open day", "seats": "12", "day": "2026-05-01"}))
	sub := &fakeSubmitter{}
	res, err := inst.Submit(context.Background(), sub, "tok")
	require.NoError(t, err)
	assert.Equal(t, MessageCreated, res.Message)

	require.Len(t, sub.created, 1)
	assert.Equal(t, []string{"title", "seats", "day"}, sub.created[0].Keys())
	seats, _ := sub.created[0].Get("seats")
	assert.Equal(t, 12.0, seats)

	_, hasTitle := inst.Value("title")
	assert.False(t, hasTitle)
	v, _ = inst.Value("seats")
	assert.Equal(t, 10.0, v)
}

func TestEditSubmitKeepsValues(t *testing.T) {
	src := &fakeSource{schemas: map[string]schema.Schema{"ACADEMIC/EVENT": eventSchema()}}
	reg := NewRegistry(time.Minute, nil)
	inst := reg.NewEdit("owner", "ACADEMIC", "EVENT", "42", map[string]any{"title": "Old"})
	require.NoError(t, inst.Load(context.Background(), newFetcher(src), "tok", "ACADEMIC", "EVENT"))

	_, hasSeats := inst.Value("seats")
	assert.False(t, hasSeats, "edit must not apply defaults")

	require.NoError(t, inst.SetValue("title", "New"))
	sub := &fakeSubmitter{}
	res, err := inst.Submit(context.Background(), sub, "tok")
	require.NoError(t, err)
	assert.Equal(t, MessageUpdated, res.Message)
	require.Contains(t, sub.updated, "42")

	v, _ := inst.Value("title")
	assert.Equal(t, "New", v)
}

func TestValidationFailureKeepsInput(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	require.NoError(t, inst.Bind(map[string]any{"title": "", "seats": "many"}))

	_, err := inst.Submit(context.Background(), &fakeSubmitter{}, "tok")
	var errs schema.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "Title is required", errs["title"])
	assert.Equal(t, "Seats must be a number", errs["seats"])

	view := inst.View()
	assert.Equal(t, "Title is required", view.Fields[0].Error)
	assert.Equal(t, "many", view.Fields[1].Value)
}

func TestSubmissionFailureSurfacesBackendMessage(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	require.NoError(t, inst.SetValue("title", "Keep me"))

	_, err := inst.Submit(context.Background(), &fakeSubmitter{err: &backend.APIError{Status: 409, Message: "Duplicate entry"}}, "tok")
	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "Duplicate entry", subErr.Message)

	_, err = inst.Submit(context.Background(), &fakeSubmitter{err: errors.New("dial tcp")}, "tok")
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "Failed to save content", subErr.Message)

	v, _ := inst.Value("title")
	assert.Equal(t, "Keep me", v)
}

func TestUploadFailureKeepsExistingValue(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	require.NoError(t, inst.SetValue("cover", "https://cdn/old.png"))

	_, err := inst.Upload(context.Background(), &fakeUploader{err: errors.New("too large")}, "tok", "cover", "a.png", strings.NewReader("x"))
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "cover", upErr.Field)

	v, _ := inst.Value("cover")
	assert.Equal(t, "https://cdn/old.png", v)
	assert.False(t, inst.View().Uploading)

	url, err := inst.Upload(context.Background(), &fakeUploader{url: "https://cdn/new.png"}, "tok", "cover", "b.png", strings.NewReader("y"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/new.png", url)
	v, _ = inst.Value("cover")
	assert.Equal(t, "https://cdn/new.png", v)
}

func TestUploadRejectsNonImageField(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	_, err := inst.Upload(context.Background(), &fakeUploader{url: "u"}, "tok", "title", "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotImageField)
}

func TestReloadDropsStaleSchema(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{
		schemas: map[string]schema.Schema{
			"ACADEMIC/EVENT": eventSchema(),
			"ACADEMIC/NEWS":  {SchemaType: "NEWS", Structure: []schema.Field{{Name: "headline", Type: schema.KindText}}},
		},
		gate: map[string]chan struct{}{"ACADEMIC/EVENT": release},
	}
	fetcher := newFetcher(src)
	inst := NewRegistry(time.Minute, nil).NewCreate("owner", "ACADEMIC", "EVENT")

	done := make(chan error, 1)
	go func() {
		done <- inst.Load(context.Background(), fetcher, "tok", "ACADEMIC", "EVENT")
	}()
	// Wait for the first load to bump the generation before starting the second.
	require.Eventually(t, func() bool {
		inst.mu.Lock()
		defer inst.mu.Unlock()
		return inst.generation == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, inst.Load(context.Background(), fetcher, "tok", "ACADEMIC", "NEWS"))
	close(release)
	assert.ErrorIs(t, <-done, ErrStale)

	view := inst.View()
	require.Len(t, view.Fields, 1)
	assert.Equal(t, "headline", view.Fields[0].Name)
	assert.Equal(t, "NEWS", view.SchemaType)
}

func TestReloadResetsValues(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	require.NoError(t, inst.SetValue("title", "draft"))

	src := &fakeSource{schemas: map[string]schema.Schema{"ACADEMIC/EVENT": eventSchema()}}
	require.NoError(t, inst.Load(context.Background(), newFetcher(src), "tok", "ACADEMIC", "EVENT"))
	_, has := inst.Value("title")
	assert.False(t, has)
}

func TestSchemaFailureLeavesNoSchemaState(t *testing.T) {
	inst := NewRegistry(time.Minute, nil).NewCreate("owner", "ACADEMIC", "EVENT")
	err := inst.Load(context.Background(), newFetcher(&fakeSource{err: errors.New("down")}), "tok", "ACADEMIC", "EVENT")
	var fetchErr *schema.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.False(t, inst.View().Loaded)
	assert.ErrorIs(t, inst.SetValue("title", "x"), ErrNoSchema)
	_, err = inst.Submit(context.Background(), &fakeSubmitter{}, "tok")
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestViewControls(t *testing.T) {
	inst := loadedCreate(t, NewRegistry(time.Minute, nil))
	require.NoError(t, inst.SetValue("day", "2026-05-01T22:00:00-07:00"))
	view := inst.View()
	require.Len(t, view.Fields, 4)
	assert.Equal(t, ControlInput, view.Fields[0].Control)
	assert.Equal(t, "number", view.Fields[1].InputType)
	assert.Equal(t, ControlImage, view.Fields[2].Control)
	assert.Equal(t, "2026-05-01", view.Fields[3].Value)
}
