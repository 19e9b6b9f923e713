package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleFields() []Field {
	return []Field{
		{Name: "title", Label: "Title", Type: KindText, Required: true, DefaultValue: "Untitled",
			Validation: &Validation{MinLength: intPtr(3), MaxLength: intPtr(40)}},
		{Name: "summary", Label: "Summary", Type: KindTextarea},
		{Name: "body", Label: "Body", Type: KindRichText},
		{Name: "contact", Label: "Contact", Type: KindEmail, DefaultValue: "info@example.com"},
		{Name: "site", Label: "Site", Type: KindURL},
		{Name: "seats", Label: "Seats", Type: KindNumber, DefaultValue: 7.0,
			Validation: &Validation{Min: floatPtr(5), Max: floatPtr(10)}},
		{Name: "featured", Label: "Featured", Type: KindToggle, DefaultValue: true},
		{Name: "archived", Label: "Archived", Type: KindCheckbox},
		{Name: "startsOn", Label: "Starts On", Type: KindDate, DefaultValue: "2026-09-01"},
		{Name: "cover", Label: "Cover", Type: KindImage, Required: true},
	}
}

func TestEveryFieldAcceptsItsDefaultAndEmptyWhenOptional(t *testing.T) {
	fields := sampleFields()
	v, err := GenerateValidator(fields)
	require.NoError(t, err)

	for _, f := range fields {
		if f.DefaultValue != nil {
			_, err := v.ValidateField(f.Name, f.DefaultValue)
			assert.NoError(t, err, "default of %s", f.Name)
		}
		if !f.Required {
			_, err := v.ValidateField(f.Name, nil)
			assert.NoError(t, err, "absent %s", f.Name)
			if f.Type != KindNumber && f.Type != KindToggle && f.Type != KindCheckbox {
				_, err = v.ValidateField(f.Name, "")
				assert.NoError(t, err, "empty %s", f.Name)
			}
		}
	}
}

func TestRequiredTextFamilyNamesTheField(t *testing.T) {
	for _, kind := range []Kind{KindText, KindTextarea, KindRichText, KindEmail, KindURL} {
		v, err := GenerateValidator([]Field{{Name: "f", Label: "Headline", Type: kind, Required: true}})
		require.NoError(t, err)
		_, err = v.ValidateField("f", "")
		require.Error(t, err, kind)
		assert.Contains(t, err.Error(), "Headline", kind)
	}
}

func TestImageIsNeverRequired(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "cover", Type: KindImage, Required: true}})
	require.NoError(t, err)
	_, errs := v.Validate(map[string]any{})
	assert.Nil(t, errs)
}

func TestNumberBounds(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "n", Label: "N", Type: KindNumber,
		Validation: &Validation{Min: floatPtr(5), Max: floatPtr(10)}}})
	require.NoError(t, err)

	for _, bad := range []any{4, 11, "4", 11.0} {
		_, err := v.ValidateField("n", bad)
		assert.Error(t, err, "%v", bad)
	}
	for _, good := range []any{5, 10, "5", " 10 ", 7.5} {
		got, err := v.ValidateField("n", good)
		require.NoError(t, err, "%v", good)
		assert.IsType(t, float64(0), got)
	}
	_, err = v.ValidateField("n", "ten")
	assert.EqualError(t, err, "N must be a number")
}

func TestZeroBoundsApply(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "n", Label: "N", Type: KindNumber,
		Validation: &Validation{Min: floatPtr(0)}}})
	require.NoError(t, err)
	_, err = v.ValidateField("n", -1)
	assert.Error(t, err)
}

func TestTextLengthMessages(t *testing.T) {
	v, err := GenerateValidator(sampleFields())
	require.NoError(t, err)

	_, err = v.ValidateField("title", "ab")
	assert.EqualError(t, err, "Title must be at least 3 chars")
	_, err = v.ValidateField("title", string(make([]byte, 41)))
	assert.EqualError(t, err, "Title must be at most 40 chars")
	_, err = v.ValidateField("contact", "not-an-email")
	assert.EqualError(t, err, "Invalid email address")
	_, err = v.ValidateField("site", "no scheme")
	assert.EqualError(t, err, "Invalid URL")
	_, err = v.ValidateField("site", "https://example.com/a")
	assert.NoError(t, err)
}

func TestPattern(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "code", Label: "Code", Type: KindText,
		Validation: &Validation{Pattern: "^[A-Z]{3}$"}}})
	require.NoError(t, err)
	_, err = v.ValidateField("code", "ABC")
	assert.NoError(t, err)
	_, err = v.ValidateField("code", "abc")
	assert.Error(t, err)

	_, err = GenerateValidator([]Field{{Name: "code", Type: KindText, Validation: &Validation{Pattern: "("}}})
	assert.Error(t, err)
}

func TestBooleanCoercion(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "on", Type: KindCheckbox, Required: true}})
	require.NoError(t, err)

	got, err := v.ValidateField("on", "on")
	require.NoError(t, err)
	assert.Equal(t, true, got)
	got, err = v.ValidateField("on", false)
	require.NoError(t, err)
	assert.Equal(t, false, got)
	_, err = v.ValidateField("on", nil)
	assert.Error(t, err)
}

func TestDateRoundTripsAcrossZones(t *testing.T) {
	v, err := GenerateValidator([]Field{{Name: "d", Label: "Day", Type: KindDate}})
	require.NoError(t, err)

	got, err := v.ValidateField("d", "2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", got)

	for _, zone := range []string{"America/Los_Angeles", "Asia/Tokyo", "UTC"} {
		loc, err := time.LoadLocation(zone)
		require.NoError(t, err)
		picked := time.Date(2026, 3, 5, 23, 30, 0, 0, loc)
		got, err := v.ValidateField("d", picked)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-05", got, zone)

		again, err := v.ValidateField("d", picked.Format(time.RFC3339))
		require.NoError(t, err)
		assert.Equal(t, "2026-03-05", again, zone)
	}

	_, err = v.ValidateField("d", "05/03/2026")
	assert.EqualError(t, err, "Day must be a date (YYYY-MM-DD)")
}

func TestValidateCollectsEveryFieldError(t *testing.T) {
	v, err := GenerateValidator(sampleFields())
	require.NoError(t, err)

	out, errs := v.Validate(map[string]any{
		"title":   "",
		"seats":   "12",
		"contact": "x",
		"extra":   "kept",
	})
	require.Len(t, errs, 3)
	assert.Equal(t, "Title is required", errs["title"])
	assert.Equal(t, "Seats must be at most 10", errs["seats"])
	assert.Equal(t, "kept", out["extra"])
}

func TestGenerateValidatorRejectsDuplicateNames(t *testing.T) {
	_, err := GenerateValidator([]Field{{Name: "a", Type: KindText}, {Name: "a", Type: KindNumber}})
	assert.Error(t, err)
}

func TestDefaultsAndEditValues(t *testing.T) {
	fields := sampleFields()
	defaults := Defaults(fields)
	assert.Equal(t, "Untitled", defaults["title"])
	_, has := defaults["summary"]
	assert.False(t, has)

	edit := EditValues(map[string]any{"summary": "kept"})
	_, has = edit["title"]
	assert.False(t, has, "edit values must ignore defaults")
	assert.Equal(t, "kept", edit["summary"])
}

func TestUnknownKindFallsBackToText(t *testing.T) {
	rule, err := RuleFor(Field{Name: "x", Type: Kind("color")})
	require.NoError(t, err)
	assert.IsType(t, StringRule{}, rule)
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, "NEWS_ITEM", NormalizeType("  news   item "))
	assert.Equal(t, "EVENT", NormalizeType("Event"))
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "Rich Text", KindRichText.Label())
	assert.Equal(t, "Number", KindNumber.Label())
	assert.True(t, KindDate.Known())
	assert.False(t, Kind("color").Known())
}
