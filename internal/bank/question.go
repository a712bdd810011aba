// Package bank turns question bank exports into flat question records and
// groups them into chapters.
//
// Question records are opaque: they are carried as the raw JSON they were read
// from, so field order, number formatting and non-ASCII text survive a round
// trip untouched. The only field ever read is the optional "chapter" label.
package bank

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ChapterField is the record field holding a question's chapter label.
const ChapterField = "chapter"

// Question is one question record as raw JSON.
type Question []byte

// MarshalJSON returns the record verbatim.
func (q Question) MarshalJSON() ([]byte, error) {
	if len(q) == 0 {
		return []byte("null"), nil
	}
	return q, nil
}

// UnmarshalJSON stores a copy of data.
func (q *Question) UnmarshalJSON(data []byte) error {
	*q = append((*q)[:0], data...)
	return nil
}

// Chapter returns the trimmed chapter label, or "" when the record is not an
// object or its chapter field is missing or not a string.
func (q Question) Chapter() string {
	r := q.result()
	if !r.IsObject() {
		return ""
	}
	label := r.Get(ChapterField)
	if label.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(label.String())
}

// Text returns the record's "question" field when it is a string, and the
// compact JSON of the whole record otherwise.
func (q Question) Text() string {
	r := q.result()
	if r.IsObject() {
		if text := r.Get("question"); text.Type == gjson.String {
			return text.String()
		}
	}
	return string(pretty.Ugly(q))
}

// Field returns a top-level string field of the record, or "".
func (q Question) Field(name string) string {
	r := q.result()
	if !r.IsObject() {
		return ""
	}
	v := r.Get(gjson.Escape(name))
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// Options returns the record's "options" field flattened to display strings.
// Both array form and keyed form ({"A": "...", "B": "..."}) are accepted.
func (q Question) Options() []string {
	r := q.result()
	if !r.IsObject() {
		return nil
	}
	opts := r.Get("options")
	var out []string
	switch {
	case opts.IsArray():
		opts.ForEach(func(_, v gjson.Result) bool {
			out = append(out, v.String())
			return true
		})
	case opts.IsObject():
		opts.ForEach(func(k, v gjson.Result) bool {
			out = append(out, k.String()+". "+v.String())
			return true
		})
	}
	return out
}

func (q Question) result() gjson.Result {
	return gjson.ParseBytes(q)
}
