package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Data is a post's field dictionary. Key order follows the stored document,
// which drives title detection.
type Data struct {
	keys   []string
	values map[string]any
}

func NewData() Data {
	return Data{values: map[string]any{}}
}

// DataFrom builds Data from values, ordering keys as listed in order first
// and appending any remaining keys in sorted order.
func DataFrom(values map[string]any, order []string) Data {
	d := NewData()
	for _, k := range order {
		if v, ok := values[k]; ok {
			d.Set(k, v)
		}
	}
	rest := make([]string, 0)
	for k := range values {
		if _, ok := d.values[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		d.Set(k, values[k])
	}
	return d
}

func (d *Data) Set(key string, value any) {
	if d.values == nil {
		d.values = map[string]any{}
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

func (d Data) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d Data) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d Data) Len() int {
	return len(d.keys)
}

// Map returns a copy of the values.
func (d Data) Map() map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

func (d Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps numbers as json.Number so integers beyond float64
// precision survive an edit.
func (d *Data) UnmarshalJSON(b []byte) error {
	*d = NewData()
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("content data: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("content data: unexpected key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		d.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// ID accepts both numeric and string identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// FormatValue renders a data value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
