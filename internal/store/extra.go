package store

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Registry and index entries are shared with the quiz front end, which may
// store fields of its own on them. Those fields are carried in Extra and
// written back unchanged after the known fields.

var (
	subjectKeys = []string{"id", "name", "dir", "created_at", "updated_at"}
	chapterKeys = []string{"id", "title", "file", "count", "updated_at"}
)

// MarshalJSON writes the known fields followed by Extra in key order.
func (s Subject) MarshalJSON() ([]byte, error) {
	type plain Subject
	return marshalWithExtra(plain(s), s.Extra)
}

// UnmarshalJSON reads the known fields and keeps every other key in Extra.
func (s *Subject) UnmarshalJSON(data []byte) error {
	type plain Subject
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, subjectKeys)
	if err != nil {
		return err
	}
	*s = Subject(p)
	s.Extra = extra
	return nil
}

// MarshalJSON writes the known fields followed by Extra in key order.
func (c Chapter) MarshalJSON() ([]byte, error) {
	type plain Chapter
	return marshalWithExtra(plain(c), c.Extra)
}

// UnmarshalJSON reads the known fields and keeps every other key in Extra.
func (c *Chapter) UnmarshalJSON(data []byte) error {
	type plain Chapter
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownKeys(data, chapterKeys)
	if err != nil {
		return err
	}
	*c = Chapter(p)
	c.Extra = extra
	return nil
}

func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := encodeJSON(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := bytes.NewBuffer(data[:len(data)-1])
	for _, k := range keys {
		key, err := encodeJSON(k)
		if err != nil {
			return nil, err
		}
		out.WriteByte(',')
		out.Write(key)
		out.WriteByte(':')
		out.Write(extra[k])
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}
