package schema

import (
	"context"
	"fmt"
	"strings"
)

// Source is the backend call that returns a schema for a module, scoped to
// schemaType when it is non-empty.
type Source interface {
	Schema(ctx context.Context, token, module, schemaType string) (Schema, error)
}

// FetchError reports a schema that could not be loaded. No placeholder
// schema is ever substituted.
type FetchError struct {
	Module     string
	SchemaType string
	Err        error
}

func (e *FetchError) Error() string {
	target := e.Module
	if e.SchemaType != "" {
		target += "/" + e.SchemaType
	}
	return fmt.Sprintf("could not load schema %s: %v", target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	src Source
}

func NewFetcher(src Source) *Fetcher {
	return &Fetcher{src: src}
}

// Fetch loads the schema for module (and schemaType, when given) and
// normalizes an absent structure to an empty list.
func (f *Fetcher) Fetch(ctx context.Context, token, module, schemaType string) (Schema, error) {
	module = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(module), "-", "_"))
	schemaType = strings.TrimSpace(schemaType)
	if module == "" {
		return Schema{}, &FetchError{Module: module, SchemaType: schemaType, Err: fmt.Errorf("module is required")}
	}
	s, err := f.src.Schema(ctx, token, module, schemaType)
	if err != nil {
		return Schema{}, &FetchError{Module: module, SchemaType: schemaType, Err: err}
	}
	if s.Structure == nil {
		s.Structure = []Field{}
	}
	if err := CheckNames(s.Structure); err != nil {
		return Schema{}, &FetchError{Module: module, SchemaType: schemaType, Err: err}
	}
	return s, nil
}
