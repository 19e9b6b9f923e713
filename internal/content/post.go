package content

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

type Post struct {
	ID                ID
	SchemaType        string
	Data              Data
	Published         bool
	AttachmentPath    string
	CreatedByUsername string
	CreatedAt         string
	EntryDateTime     string
	LastAction        string
}

type postWire struct {
	ID         ID              `json:"id"`
	SchemaType string          `json:"schemaType"`
	Schema     *schemaRef      `json:"schema"`
	Data       json.RawMessage `json:"data"`
	Published  bool            `json:"published"`
	Attachment string          `json:"attachmentPath"`
	CreatedBy  string          `json:"createdByUsername"`
	CreatedBy2 string          `json:"created_by_username"`
	CreatedAt  string          `json:"createdAt"`
	EntryDate  string          `json:"entryDateTime"`
	LastAction string          `json:"lastAction"`
}

type schemaRef struct {
	SchemaType string `json:"schemaType"`
}

// UnmarshalJSON tolerates data sent as a JSON-encoded string and takes the
// schema type from either the post or its nested schema.
func (p *Post) UnmarshalJSON(b []byte) error {
	var w postWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = Post{
		ID:                w.ID,
		SchemaType:        w.SchemaType,
		Published:         w.Published,
		AttachmentPath:    w.Attachment,
		CreatedByUsername: w.CreatedBy,
		CreatedAt:         w.CreatedAt,
		EntryDateTime:     w.EntryDate,
		LastAction:        w.LastAction,
		Data:              decodeData(w.Data),
	}
	if p.CreatedByUsername == "" {
		p.CreatedByUsername = w.CreatedBy2
	}
	if p.SchemaType == "" && w.Schema != nil {
		p.SchemaType = w.Schema.SchemaType
	}
	return nil
}

func decodeData(raw json.RawMessage) Data {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return NewData()
		}
		raw = []byte(inner)
	}
	var d Data
	if len(raw) == 0 || json.Unmarshal(raw, &d) != nil {
		return NewData()
	}
	return d
}

// SchemaTypes deduplicates, drops empties and sorts schema type names.
func SchemaTypes(types []string) []string {
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
