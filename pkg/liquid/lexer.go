package liquid

// The lexer scans template source and yields tokens for text and the three
// Liquid delimiter forms: output {{ }}, tags {% %}, and comments {# #}.
// A hyphen inside a delimiter ({{- or -%}) asks for adjacent whitespace to be
// trimmed; the lexer records it and the parser does the trimming.

import (
	"bytes"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokOutputStart // {{ or {{-
	tokOutputEnd   // }} or -}}
	tokTagStart    // {% or {%-
	tokTagEnd      // %} or -%}
	tokCommStart   // {#
	tokCommEnd     // #}
	tokContent     // content inside a delimiter
)

var tokenNames = map[tokenKind]string{
	tokEOF:         "end of template",
	tokText:        "text",
	tokOutputStart: "{{",
	tokOutputEnd:   "}}",
	tokTagStart:    "{%",
	tokTagEnd:      "%}",
	tokCommStart:   "{#",
	tokCommEnd:     "#}",
	tokContent:     "content",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	val  string
	pos  int // byte offset in source
	line int
	trim bool
}

type lexer struct {
	src []byte
	i   int
	n   int

	// line of linePos, advanced lazily
	linePos int
	line    int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, n: len(src), line: 1}
}

// lineAt returns the line of byte offset pos. Offsets are requested in
// increasing order.
func (l *lexer) lineAt(pos int) int {
	if pos > l.linePos {
		l.line += bytes.Count(l.src[l.linePos:pos], []byte{'\n'})
		l.linePos = pos
	}
	return l.line
}

func (l *lexer) tok(kind tokenKind, val string, pos int, trim bool) token {
	return token{kind: kind, val: val, pos: pos, line: l.lineAt(pos), trim: trim}
}

func (l *lexer) hasPrefix(s string) bool {
	return l.i+len(s) <= l.n && string(l.src[l.i:l.i+len(s)]) == s
}

// rest returns the unscanned source.
func (l *lexer) rest() string { return string(l.src[l.i:]) }

// skip advances past n bytes of source.
func (l *lexer) skip(n int) { l.i += n }

// nextTokenOutside scans in text context and emits either a text token up to
// the next opening delimiter, an opening delimiter token, or EOF.
func (l *lexer) nextTokenOutside() token {
	if l.i >= l.n {
		return l.tok(tokEOF, "", l.i, false)
	}

	start := l.i
	for l.i < l.n {
		var kind tokenKind
		switch {
		case l.hasPrefix("{{"):
			kind = tokOutputStart
		case l.hasPrefix("{%"):
			kind = tokTagStart
		case l.hasPrefix("{#"):
			kind = tokCommStart
		default:
			l.i++
			continue
		}
		if l.i > start {
			return l.tok(tokText, string(l.src[start:l.i]), start, false)
		}
		l.i += 2
		trim := false
		if kind != tokCommStart && l.i < l.n && l.src[l.i] == '-' {
			l.i++
			trim = true
		}
		return l.tok(kind, "", start, trim)
	}
	return l.tok(tokText, string(l.src[start:l.n]), start, false)
}

var closers = map[tokenKind]string{
	tokOutputEnd: "}}",
	tokTagEnd:    "%}",
	tokCommEnd:   "#}",
}

// nextTokenInside scans inside a delimiter of the given closing kind,
// returning either a content chunk or the closing token.
func (l *lexer) nextTokenInside(close tokenKind) token {
	if l.i >= l.n {
		return l.tok(tokEOF, "", l.i, false)
	}
	delim := closers[close]
	start := l.i
	for l.i < l.n {
		trim := close != tokCommEnd && l.hasPrefix("-"+delim)
		if !trim && !l.hasPrefix(delim) {
			l.i++
			continue
		}
		if l.i > start {
			return l.tok(tokContent, string(l.src[start:l.i]), start, false)
		}
		l.i += len(delim)
		if trim {
			l.i++
		}
		return l.tok(close, "", start, trim)
	}
	return l.tok(tokContent, string(l.src[start:l.n]), start, false)
}

func trimLeftSpace(s string) string  { return strings.TrimLeft(s, " \t\r\n") }
func trimRightSpace(s string) string { return strings.TrimRight(s, " \t\r\n") }
