package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var syntax = validator.New()

var (
	errInvalidEmail = errors.New("Invalid email address")
	errInvalidURL   = errors.New("Invalid URL")
)

// Rule is a closed set: StringRule, NumberRule, BoolRule, DateRule, ImageRule.
type Rule interface {
	rule()
}

type StringFormat int

const (
	FormatPlain StringFormat = iota
	FormatEmail
	FormatURL
)

type StringRule struct {
	Label     string
	Required  bool
	Format    StringFormat
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp
}

type NumberRule struct {
	Label    string
	Required bool
	Min      *float64
	Max      *float64
}

type BoolRule struct {
	Label    string
	Required bool
}

type DateRule struct {
	Label    string
	Required bool
}

// ImageRule accepts anything; the uploaded URL is its own proof.
type ImageRule struct{}

func (StringRule) rule() {}
func (NumberRule) rule() {}
func (BoolRule) rule()   {}
func (DateRule) rule()   {}
func (ImageRule) rule()  {}

// RuleFor derives the rule for one field. Unknown kinds validate as plain text.
func RuleFor(f Field) (Rule, error) {
	label := f.DisplayLabel()
	var v Validation
	if f.Validation != nil {
		v = *f.Validation
	}
	switch f.Type {
	case KindText, KindTextarea, KindRichText, KindEmail, KindURL:
		r := StringRule{Label: label, Required: f.Required, MinLength: v.MinLength, MaxLength: v.MaxLength}
		switch f.Type {
		case KindEmail:
			r.Format = FormatEmail
		case KindURL:
			r.Format = FormatURL
		}
		if v.Pattern != "" {
			re, err := regexp.Compile(v.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: invalid pattern: %w", f.Name, err)
			}
			r.Pattern = re
		}
		return r, nil
	case KindNumber:
		return NumberRule{Label: label, Required: f.Required, Min: v.Min, Max: v.Max}, nil
	case KindToggle, KindCheckbox:
		return BoolRule{Label: label, Required: f.Required}, nil
	case KindDate:
		return DateRule{Label: label, Required: f.Required}, nil
	case KindImage:
		return ImageRule{}, nil
	default:
		return StringRule{Label: label, Required: f.Required, MinLength: v.MinLength, MaxLength: v.MaxLength}, nil
	}
}

// Apply checks value against rule and returns the coerced value. A nil
// result with a nil error means the field is absent.
func Apply(rule Rule, value any) (any, error) {
	switch r := rule.(type) {
	case StringRule:
		return r.apply(value)
	case NumberRule:
		return r.apply(value)
	case BoolRule:
		return r.apply(value)
	case DateRule:
		return r.apply(value)
	case ImageRule:
		return value, nil
	}
	panic(fmt.Sprintf("schema: unhandled rule %T", rule))
}

func requiredError(label string) error {
	return fmt.Errorf("%s is required", label)
}

func (r StringRule) apply(value any) (any, error) {
	s, ok := stringValue(value)
	if !ok {
		return nil, fmt.Errorf("%s must be text", r.Label)
	}
	if s == "" {
		if r.Required {
			return nil, requiredError(r.Label)
		}
		if value == nil {
			return nil, nil
		}
		return "", nil
	}
	length := len([]rune(s))
	if r.MinLength != nil && length < *r.MinLength {
		return nil, fmt.Errorf("%s must be at least %d chars", r.Label, *r.MinLength)
	}
	if r.MaxLength != nil && length > *r.MaxLength {
		return nil, fmt.Errorf("%s must be at most %d chars", r.Label, *r.MaxLength)
	}
	switch r.Format {
	case FormatEmail:
		if syntax.Var(s, "email") != nil {
			return nil, errInvalidEmail
		}
	case FormatURL:
		if syntax.Var(s, "url") != nil {
			return nil, errInvalidURL
		}
	}
	if r.Pattern != nil && !r.Pattern.MatchString(s) {
		return nil, fmt.Errorf("%s has an invalid format", r.Label)
	}
	return s, nil
}

func (r NumberRule) apply(value any) (any, error) {
	n, present, err := numberValue(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", r.Label)
	}
	if !present {
		if r.Required {
			return nil, requiredError(r.Label)
		}
		return nil, nil
	}
	if r.Min != nil && n < *r.Min {
		return nil, fmt.Errorf("%s must be at least %s", r.Label, formatNumber(*r.Min))
	}
	if r.Max != nil && n > *r.Max {
		return nil, fmt.Errorf("%s must be at most %s", r.Label, formatNumber(*r.Max))
	}
	return n, nil
}

func (r BoolRule) apply(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		if r.Required {
			return nil, requiredError(r.Label)
		}
		return nil, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "1", "yes":
			return true, nil
		case "false", "off", "0", "no", "":
			return false, nil
		}
	}
	return nil, fmt.Errorf("%s must be true or false", r.Label)
}

func (r DateRule) apply(value any) (any, error) {
	var (
		date string
		err  error
	)
	switch v := value.(type) {
	case nil:
	case time.Time:
		date = FormatDate(v)
	case string:
		date, err = NormalizeDate(v)
	default:
		err = fmt.Errorf("unsupported date value %T", value)
	}
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", r.Label)
	}
	if date == "" {
		if r.Required {
			return nil, requiredError(r.Label)
		}
		if value == nil {
			return nil, nil
		}
		return "", nil
	}
	return date, nil
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

func numberValue(value any) (float64, bool, error) {
	var n float64
	switch v := value.(type) {
	case nil:
		return 0, false, nil
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case int32:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, err
		}
		n = f
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, err
		}
		n = f
	default:
		return 0, false, fmt.Errorf("not a number: %T", value)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, fmt.Errorf("not a finite number")
	}
	return n, true, nil
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
