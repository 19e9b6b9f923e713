package form

import (
	"cms-console/internal/content"
	"cms-console/internal/schema"
)

type FieldView struct {
	Name        string
	Label       string
	Kind        schema.Kind
	Control     Control
	InputType   string
	Placeholder string
	Wide        bool
	Required    bool
	Value       string
	Checked     bool
	Error       string
	Uploading   bool
	IsImage     bool
}

type View struct {
	ID         string
	Module     string
	SchemaType string
	Mode       Mode
	EditID     string
	Loaded     bool
	Submitting bool
	Uploading  bool
	Fields     []FieldView
}

// View snapshots the form for rendering.
func (f *Instance) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		ID:         f.id,
		Module:     f.module,
		SchemaType: f.schemaType,
		Mode:       f.mode,
		EditID:     f.editID,
		Loaded:     f.validator != nil,
		Submitting: f.submitting,
		Uploading:  len(f.uploading) > 0,
	}
	if f.schema == nil {
		return v
	}
	v.Fields = make([]FieldView, 0, len(f.schema.Structure))
	for _, field := range f.schema.Structure {
		control, inputType := ControlFor(field.Type)
		value := f.values[field.Name]
		fv := FieldView{
			Name:        field.Name,
			Label:       field.DisplayLabel(),
			Kind:        field.Type,
			Control:     control,
			InputType:   inputType,
			Placeholder: field.Placeholder,
			Wide:        field.Wide(),
			Required:    field.Required && field.Type != schema.KindImage,
			Error:       f.errors[field.Name],
			Uploading:   f.uploading[field.Name],
			IsImage:     content.IsImageValue(value),
		}
		switch control {
		case ControlSwitch, ControlCheckbox:
			fv.Checked = truthy(value)
		case ControlDate:
			if s, ok := value.(string); ok {
				if d, err := schema.NormalizeDate(s); err == nil {
					fv.Value = d
					break
				}
			}
			fv.Value = content.FormatValue(value)
		default:
			fv.Value = content.FormatValue(value)
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "on" || b == "1"
	}
	return false
}
