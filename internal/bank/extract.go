package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile reads a question bank export from disk and returns its contents
// once they are known to be valid JSON.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	return data, nil
}

// Extract finds the question records in a parsed export. The first matching
// shape wins:
//
//  1. an object whose "questions" key holds an array (used even when empty)
//  2. an object with a value, in document order, that is a non-empty array
//     whose first element is an object carrying a "question" key
//  3. a top-level array
//
// Anything else yields no questions.
func Extract(content []byte) ([]Question, error) {
	if !gjson.ValidBytes(content) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.ParseBytes(content)

	switch {
	case root.IsObject():
		if qs := root.Get("questions"); qs.IsArray() {
			return elements(qs), nil
		}
		var found gjson.Result
		root.ForEach(func(_, v gjson.Result) bool {
			if looksLikeQuestionList(v) {
				found = v
				return false
			}
			return true
		})
		if found.Exists() {
			return elements(found), nil
		}
		return nil, nil
	case root.IsArray():
		return elements(root), nil
	default:
		return nil, nil
	}
}

func looksLikeQuestionList(v gjson.Result) bool {
	if !v.IsArray() {
		return false
	}
	first := v.Get("0")
	return first.IsObject() && first.Get("question").Exists()
}

func elements(arr gjson.Result) []Question {
	var out []Question
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Question(v.Raw))
		return true
	})
	return out
}

// FallbackLabel is the chapter label for records without one: the source
// file name without its extension.
func FallbackLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MarshalChapter renders the records of one chapter as an indented JSON array.
// Records keep their key order and values; only whitespace changes and
// \uXXXX escapes are written as literal characters.
func MarshalChapter(qs []Question) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, q := range qs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if len(q) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(literalUnicode(q))
	}
	buf.WriteByte(']')
	return pretty.PrettyOptions(buf.Bytes(), &pretty.Options{
		Width:  80,
		Prefix: "",
		Indent: "  ",
	})
}
