package schema

import (
	"sort"
	"strings"
)

// Errors maps field names to their first validation failure.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation passed"
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Validator holds one rule per field, in schema order.
type Validator struct {
	fields []Field
	rules  map[string]Rule
}

func GenerateValidator(fields []Field) (*Validator, error) {
	if err := CheckNames(fields); err != nil {
		return nil, err
	}
	v := &Validator{
		fields: append([]Field(nil), fields...),
		rules:  make(map[string]Rule, len(fields)),
	}
	for _, f := range fields {
		rule, err := RuleFor(f)
		if err != nil {
			return nil, err
		}
		v.rules[f.Name] = rule
	}
	return v, nil
}

func (v *Validator) Fields() []Field {
	return v.fields
}

// ValidateField checks a single value and returns its coerced form.
func (v *Validator) ValidateField(name string, value any) (any, error) {
	rule, ok := v.rules[name]
	if !ok {
		return value, nil
	}
	return Apply(rule, value)
}

// Validate checks every schema field. The returned map carries coerced
// values for schema fields and passes unknown keys through untouched.
func (v *Validator) Validate(values map[string]any) (map[string]any, Errors) {
	out := make(map[string]any, len(values))
	for k, val := range values {
		out[k] = val
	}
	errs := Errors{}
	for _, f := range v.fields {
		coerced, err := Apply(v.rules[f.Name], values[f.Name])
		if err != nil {
			errs[f.Name] = err.Error()
			continue
		}
		if coerced == nil {
			delete(out, f.Name)
			continue
		}
		out[f.Name] = coerced
	}
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// Defaults returns the declared default values for a create form.
func Defaults(fields []Field) map[string]any {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.DefaultValue != nil {
			values[f.Name] = f.DefaultValue
		}
	}
	return values
}

// EditValues copies an existing post's data verbatim; declared defaults are
// ignored even for fields the post lacks.
func EditValues(data map[string]any) map[string]any {
	values := make(map[string]any, len(data))
	for k, v := range data {
		values[k] = v
	}
	return values
}
