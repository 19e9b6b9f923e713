package form

import "cms-console/internal/schema"

type Control string

const (
	ControlInput    Control = "input"
	ControlTextarea Control = "textarea"
	ControlRichText Control = "rich-text"
	ControlSwitch   Control = "switch"
	ControlCheckbox Control = "checkbox"
	ControlDate     Control = "date"
	ControlImage    Control = "image"
)

// ControlFor maps a field kind to its input control and, for plain inputs,
// the HTML input type.
func ControlFor(kind schema.Kind) (Control, string) {
	switch kind {
	case schema.KindText:
		return ControlInput, "text"
	case schema.KindEmail:
		return ControlInput, "email"
	case schema.KindURL:
		return ControlInput, "url"
	case schema.KindNumber:
		return ControlInput, "number"
	case schema.KindTextarea:
		return ControlTextarea, ""
	case schema.KindRichText:
		return ControlRichText, ""
	case schema.KindToggle:
		return ControlSwitch, "checkbox"
	case schema.KindCheckbox:
		return ControlCheckbox, "checkbox"
	case schema.KindDate:
		return ControlDate, "date"
	case schema.KindImage:
		return ControlImage, "file"
	}
	return ControlInput, "text"
}
