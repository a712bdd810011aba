package bank

import (
	"bytes"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// literalUnicode rewrites \uXXXX escapes inside JSON strings as the UTF-8
// characters they encode. Quotes, backslashes, control characters and
// unpaired surrogates stay escaped.
func literalUnicode(src []byte) []byte {
	if !bytes.Contains(src, []byte(`\u`)) {
		return src
	}

	out := make([]byte, 0, len(src))
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if !inString {
			inString = c == '"'
			out = append(out, c)
			continue
		}

		switch c {
		case '"':
			inString = false
			out = append(out, c)
		case '\\':
			if r, n := decodeUnicodeEscape(src[i:]); n > 0 {
				out = utf8.AppendRune(out, r)
				i += n - 1
				continue
			}
			out = append(out, c)
			if i+1 < len(src) {
				i++
				out = append(out, src[i])
			}
		default:
			out = append(out, c)
		}
	}
	return out
}

// decodeUnicodeEscape decodes the \uXXXX escape (or surrogate pair) at the
// start of b and returns the rune and the number of bytes consumed, or 0 when
// the escape must be kept as written.
func decodeUnicodeEscape(b []byte) (rune, int) {
	r, ok := hexEscape(b)
	if !ok {
		return 0, 0
	}
	if utf16.IsSurrogate(r) {
		low, ok := hexEscape(b[6:])
		if !ok {
			return 0, 0
		}
		r = utf16.DecodeRune(r, low)
		if r == utf8.RuneError {
			return 0, 0
		}
		return r, 12
	}
	if r < 0x20 || r == '"' || r == '\\' {
		return 0, 0
	}
	return r, 6
}

func hexEscape(b []byte) (rune, bool) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[2:6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
