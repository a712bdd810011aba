package catalog

import (
	"strings"
	"unicode/utf8"
)

// BuildFTSQuery builds an FTS5 MATCH expression scoped to the content column.
// Plain words, quoted phrases, AND/OR/NOT between terms, parentheses and
// trailing-* prefix terms pass through; every other token is quoted as a
// phrase so punctuation in quiz text cannot break the query.
func BuildFTSQuery(userQuery string) string {
	expr := sanitizeFTSQuery(strings.TrimSpace(userQuery))
	if expr == "" {
		return `content:""`
	}
	return "content: (" + expr + ")"
}

type ftsKind int

const (
	ftsTerm ftsKind = iota
	ftsOperator
	ftsOpen
	ftsClose
)

type ftsToken struct {
	kind ftsKind
	text string
}

func isQuerySpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// tokenizeFTSQuery splits q into words, phrases and parentheses. An
// unterminated phrase runs to the end of the query.
func tokenizeFTSQuery(q string) []ftsToken {
	var toks []ftsToken
	i := 0
	for i < len(q) {
		c := q[i]
		switch {
		case isQuerySpace(c):
			i++
		case c == '(':
			toks = append(toks, ftsToken{ftsOpen, "("})
			i++
		case c == ')':
			toks = append(toks, ftsToken{ftsClose, ")"})
			i++
		case c == '"':
			end := strings.IndexByte(q[i+1:], '"')
			if end < 0 {
				toks = append(toks, ftsToken{ftsTerm, quotePhrase(q[i+1:])})
				return toks
			}
			toks = append(toks, ftsToken{ftsTerm, quotePhrase(q[i+1 : i+1+end])})
			i += end + 2
		default:
			start := i
			for i < len(q) && !isQuerySpace(q[i]) && q[i] != '"' && q[i] != '(' && q[i] != ')' {
				i++
			}
			word := q[start:i]
			switch {
			case word == "AND" || word == "OR" || word == "NOT":
				toks = append(toks, ftsToken{ftsOperator, word})
			case isBareword(word) && word != "NEAR":
				toks = append(toks, ftsToken{ftsTerm, word})
			default:
				toks = append(toks, ftsToken{ftsTerm, quotePhrase(word)})
			}
		}
	}
	return toks
}

// isBareword reports whether w can be passed to FTS5 unquoted: ASCII letters,
// digits, underscore and any non-ASCII character, with an optional trailing *
// for prefix queries.
func isBareword(w string) bool {
	w = strings.TrimSuffix(w, "*")
	if w == "" {
		return false
	}
	for i := 0; i < len(w); {
		r, size := utf8.DecodeRuneInString(w[i:])
		i += size
		if r >= utf8.RuneSelf && r != utf8.RuneError {
			continue
		}
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func quotePhrase(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// sanitizeFTSQuery rewrites q into an expression FTS5 always parses.
// Operators without a term on both sides become phrases, unmatched closing
// parentheses are dropped, open groups are closed and empty groups removed.
func sanitizeFTSQuery(q string) string {
	toks := tokenizeFTSQuery(q)
	out := make([]ftsToken, 0, len(toks))
	depth := 0

	last := func() ftsKind {
		if len(out) == 0 {
			return ftsOpen
		}
		return out[len(out)-1].kind
	}
	// demoteTrailingOperator turns an operator with nothing after it into a
	// search term.
	demoteTrailingOperator := func() {
		if n := len(out); n > 0 && out[n-1].kind == ftsOperator {
			out[n-1] = ftsToken{ftsTerm, quotePhrase(out[n-1].text)}
		}
	}
	closeGroup := func() {
		demoteTrailingOperator()
		if n := len(out); n > 0 && out[n-1].kind == ftsOpen {
			out = out[:n-1]
			demoteTrailingOperator()
		} else {
			out = append(out, ftsToken{ftsClose, ")"})
		}
		depth--
	}

	for i, tok := range toks {
		switch tok.kind {
		case ftsOperator:
			prev := last()
			hasNext := i+1 < len(toks) && toks[i+1].kind != ftsClose
			if (prev == ftsTerm || prev == ftsClose) && hasNext {
				out = append(out, tok)
			} else {
				out = append(out, ftsToken{ftsTerm, quotePhrase(tok.text)})
			}
		case ftsOpen:
			out = append(out, tok)
			depth++
		case ftsClose:
			if depth > 0 {
				closeGroup()
			}
		default:
			out = append(out, tok)
		}
	}
	for depth > 0 {
		closeGroup()
	}
	demoteTrailingOperator()

	var b strings.Builder
	for i, tok := range out {
		if i > 0 && out[i-1].kind != ftsOpen && tok.kind != ftsClose {
			b.WriteByte(' ')
		}
		b.WriteString(tok.text)
	}
	return b.String()
}
