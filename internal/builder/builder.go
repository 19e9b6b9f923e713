// Package builder edits schema drafts and turns them into the schema
// document the backend stores.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cms-console/internal/schema"
)

var (
	ErrNoModule     = errors.New("Please select a module")
	ErrNoSchemaType = errors.New("Please enter a schema type")
	ErrNoFields     = errors.New("Add at least one field")
	ErrNoField      = errors.New("field not found")
)

// DemoModules stand in when the module list cannot be fetched. Pages that
// use them must say so.
var DemoModules = []string{"DEMO_ACADEMIC", "DEMO_BLOG"}

type DraftField struct {
	ID string `json:"id"`
	schema.Field
}

// Draft is a schema under construction. The selected module becomes the
// schema name.
type Draft struct {
	Module     string       `json:"module"`
	SchemaType string       `json:"schemaType"`
	Fields     []DraftField `json:"fields"`
	Counter    int          `json:"counter"`
}

// AddField appends a field of kind with builder defaults and returns its id.
func (d *Draft) AddField(kind schema.Kind) (string, error) {
	if !kind.Known() {
		return "", fmt.Errorf("unknown field type %q", kind)
	}
	d.Counter++
	name := fmt.Sprintf("field_%d", d.Counter)
	for d.hasName(name) {
		d.Counter++
		name = fmt.Sprintf("field_%d", d.Counter)
	}
	f := DraftField{
		ID: uuid.NewString(),
		Field: schema.Field{
			Name:      name,
			Label:     "New " + kind.Label(),
			Type:      kind,
			GridWidth: 2,
			Required:  false,
		},
	}
	d.Fields = append(d.Fields, f)
	return f.ID, nil
}

func (d *Draft) hasName(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (d *Draft) index(id string) int {
	for i, f := range d.Fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) UpdateField(id string, update func(*schema.Field)) error {
	i := d.index(id)
	if i < 0 {
		return ErrNoField
	}
	update(&d.Fields[i].Field)
	return nil
}

func (d *Draft) RemoveField(id string) error {
	i := d.index(id)
	if i < 0 {
		return ErrNoField
	}
	d.Fields = append(d.Fields[:i], d.Fields[i+1:]...)
	return nil
}

// MoveField moves the field with id to the position currently held by the
// field with overID, shifting the fields in between.
func (d *Draft) MoveField(id, overID string) error {
	from, to := d.index(id), d.index(overID)
	if from < 0 || to < 0 {
		return ErrNoField
	}
	if from == to {
		return nil
	}
	moved := d.Fields[from]
	fields := append(d.Fields[:from:from], d.Fields[from+1:]...)
	fields = append(fields[:to], append([]DraftField{moved}, fields[to:]...)...)
	d.Fields = fields
	return nil
}

// Build validates the draft and returns the schema document to store.
func (d *Draft) Build() (schema.Schema, error) {
	module := strings.TrimSpace(d.Module)
	if module == "" {
		return schema.Schema{}, ErrNoModule
	}
	schemaType := schema.NormalizeType(d.SchemaType)
	if schemaType == "" {
		return schema.Schema{}, ErrNoSchemaType
	}
	if len(d.Fields) == 0 {
		return schema.Schema{}, ErrNoFields
	}
	structure := make([]schema.Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		field := f.Field
		field.Name = strings.TrimSpace(field.Name)
		field.Label = strings.TrimSpace(field.Label)
		if field.GridWidth != 1 {
			field.GridWidth = 2
		}
		structure = append(structure, field)
	}
	s := schema.Schema{SchemaName: module, SchemaType: schemaType, Structure: structure}

	v, err := schema.GenerateValidator(structure)
	if err != nil {
		return schema.Schema{}, err
	}
	for _, f := range structure {
		if f.DefaultValue == nil {
			continue
		}
		if _, err := v.ValidateField(f.Name, f.DefaultValue); err != nil {
			return schema.Schema{}, fmt.Errorf("default for %s: %w", f.DisplayLabel(), err)
		}
	}
	if err := CheckContract(s); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}

type ModuleLister interface {
	ModuleNames(ctx context.Context, token string) ([]string, error)
}

// ModuleOptions lists modules for the builder. On failure it returns the
// demo modules and demo=true.
func ModuleOptions(ctx context.Context, lister ModuleLister, token string) (modules []string, demo bool, err error) {
	names, err := lister.ModuleNames(ctx, token)
	if err != nil {
		return append([]string(nil), DemoModules...), true, err
	}
	return names, false, nil
}

type Saver interface {
	SaveSchema(ctx context.Context, token string, s schema.Schema) error
}

// Save builds the draft and posts it.
func Save(ctx context.Context, saver Saver, token string, d *Draft) (schema.Schema, error) {
	s, err := d.Build()
	if err != nil {
		return schema.Schema{}, err
	}
	if err := saver.SaveSchema(ctx, token, s); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}
