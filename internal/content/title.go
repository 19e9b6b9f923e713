package content

import (
	"regexp"
	"strings"
)

const (
	shortStringLimit = 100
	previewLimit     = 3
	untitled         = "Untitled Post"
)

var (
	titleKeys    = []string{"title", "name", "headline", "subject"}
	imagePattern = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|webp)$`)
)

// IsImageValue reports whether v looks like an uploaded image URL.
func IsImageValue(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return imagePattern.MatchString(s) || strings.Contains(s, "/content/images") || strings.Contains(s, "/cms/upload")
}

// TitleKey picks the data key used as a post's title: a title-like key
// not holding an image, else the first short non-image string, else the first non-image value,
// else the first key.
func TitleKey(d Data) (string, bool) {
	keys := d.keys
	if len(keys) == 0 {
		return "", false
	}
	for _, k := range keys {
		lower := strings.ToLower(k)
		for _, candidate := range titleKeys {
			if lower == candidate && !IsImageValue(d.values[k]) {
				return k, true
			}
		}
	}
	for _, k := range keys {
		s, ok := d.values[k].(string)
		if ok && s != "" && len([]rune(s)) < shortStringLimit && !IsImageValue(s) {
			return k, true
		}
	}
	for _, k := range keys {
		if !IsImageValue(d.values[k]) {
			return k, true
		}
	}
	return keys[0], true
}

// DisplayTitle never returns an image URL; such titles fall back to the id.
func DisplayTitle(p Post) string {
	key, ok := TitleKey(p.Data)
	if !ok {
		return untitled
	}
	value := p.Data.values[key]
	if IsImageValue(value) {
		if p.ID != "" {
			return "Post #" + p.ID.String()
		}
		return untitled
	}
	title := strings.TrimSpace(FormatValue(value))
	if title == "" {
		return untitled
	}
	return title
}

// PreviewKeys lists up to three scalar keys other than the title key.
func PreviewKeys(d Data, titleKey string) []string {
	out := make([]string, 0, previewLimit)
	for _, k := range d.keys {
		if len(out) == previewLimit {
			break
		}
		if k == titleKey {
			continue
		}
		switch d.values[k].(type) {
		case map[string]any, []any:
			continue
		}
		out = append(out, k)
	}
	return out
}
