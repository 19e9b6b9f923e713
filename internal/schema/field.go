// Package schema turns backend field declarations into validation rules and
// default values for content forms.
package schema

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindRichText Kind = "rich-text"
	KindEmail    Kind = "email"
	KindURL      Kind = "url"
	KindNumber   Kind = "number"
	KindToggle   Kind = "toggle"
	KindCheckbox Kind = "checkbox"
	KindDate     Kind = "date"
	KindImage    Kind = "image"
)

// Kinds lists every field kind in builder order.
var Kinds = []Kind{
	KindText, KindTextarea, KindRichText, KindEmail, KindURL,
	KindNumber, KindToggle, KindCheckbox, KindDate, KindImage,
}

func (k Kind) Known() bool {
	for _, kind := range Kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Label is the human name shown in the builder palette.
func (k Kind) Label() string {
	switch k {
	case KindRichText:
		return "Rich Text"
	case KindURL:
		return "URL"
	case "":
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

type Validation struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
}

type Field struct {
	Name         string      `json:"name"`
	Label        string      `json:"label"`
	Type         Kind        `json:"type"`
	Placeholder  string      `json:"placeholder,omitempty"`
	GridWidth    int         `json:"gridWidth,omitempty"`
	Required     bool        `json:"required"`
	DefaultValue any         `json:"defaultValue,omitempty"`
	Validation   *Validation `json:"validation,omitempty"`
}

// Wide reports whether the field spans both layout columns.
func (f Field) Wide() bool {
	return f.GridWidth == 2
}

func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

type Schema struct {
	SchemaName string  `json:"schemaName"`
	SchemaType string  `json:"schemaType"`
	Structure  []Field `json:"structure"`
}

// Field returns the field called name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Structure {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CheckNames enforces unique, non-empty field names.
func CheckNames(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("field %d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate field name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// NormalizeType upper-cases a schema type and joins words with underscores.
func NormalizeType(schemaType string) string {
	return strings.ToUpper(strings.Join(strings.Fields(schemaType), "_"))
}
