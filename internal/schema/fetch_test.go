package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	schema          Schema
	err             error
	module, gotType string
}

func (s *stubSource) Schema(_ context.Context, _ string, module, schemaType string) (Schema, error) {
	s.module, s.gotType = module, schemaType
	return s.schema, s.err
}

func TestFetchNormalizesModuleAndStructure(t *testing.T) {
	src := &stubSource{schema: Schema{SchemaName: "Events", SchemaType: "EVENT"}}
	s, err := NewFetcher(src).Fetch(context.Background(), "tok", "about-us", "EVENT")
	require.NoError(t, err)
	assert.Equal(t, "ABOUT_US", src.module)
	assert.Equal(t, "EVENT", src.gotType)
	assert.NotNil(t, s.Structure)
	assert.Empty(t, s.Structure)
}

func TestFetchWrapsBackendFailure(t *testing.T) {
	cause := errors.New("connection refused")
	_, err := NewFetcher(&stubSource{err: cause}).Fetch(context.Background(), "tok", "PROGRAM", "")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "PROGRAM", fetchErr.Module)
	assert.ErrorIs(t, err, cause)
}

func TestFetchRejectsDuplicateFieldNames(t *testing.T) {
	src := &stubSource{schema: Schema{Structure: []Field{{Name: "a"}, {Name: "a"}}}}
	_, err := NewFetcher(src).Fetch(context.Background(), "tok", "PROGRAM", "")
	assert.Error(t, err)
}
