package expression

import (
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Rule pairs a token kind with the pattern recognising it. Rules are tried in
// order at every position and the first match wins.
type Rule struct {
	Kind    Kind
	Pattern string
}

type compiledRule struct {
	kind Kind
	re   *regexp2.Regexp
}

// Lexer turns expression source into tokens. A Lexer is immutable and safe
// for concurrent use.
type Lexer struct {
	name     string
	rules    []compiledRule
	keywords Keywords
}

// NewLexer compiles a rule table. Patterns use regexp2 syntax, so lookahead
// assertions are available.
func NewLexer(name string, rules []Rule, keywords Keywords) (*Lexer, error) {
	l := &Lexer{name: name, keywords: keywords}
	for _, r := range rules {
		re, err := regexp2.Compile(`\A(?:`+r.Pattern+`)`, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("%s lexer: rule %s: %w", name, r.Kind, err)
		}
		l.rules = append(l.rules, compiledRule{kind: r.Kind, re: re})
	}
	return l, nil
}

// MustLexer is like NewLexer but panics on a bad rule table.
func MustLexer(name string, rules []Rule, keywords Keywords) *Lexer {
	l, err := NewLexer(name, rules, keywords)
	if err != nil {
		panic(err)
	}
	return l
}

// Name returns the dialect name the lexer was built for.
func (l *Lexer) Name() string { return l.name }

// Scan returns a scanner positioned at the start of source.
func (l *Lexer) Scan(source string) *Scanner {
	return &Scanner{lexer: l, src: source, line: 1}
}

// Tokenize returns the tokens of source, excluding the trailing EOF. The
// sequence is lazy and can be ranged over any number of times.
func (l *Lexer) Tokenize(source string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		s := l.Scan(source)
		for {
			tok := s.Next()
			if tok.Kind == KindEOF || !yield(tok) {
				return
			}
		}
	}
}

// Tokens collects Tokenize into a slice.
func (l *Lexer) Tokens(source string) []Token {
	var out []Token
	for tok := range l.Tokenize(source) {
		out = append(out, tok)
	}
	return out
}

func (l *Lexer) match(rest string) (Kind, string) {
	for _, r := range l.rules {
		m, err := r.re.FindStringMatch(rest)
		if err != nil || m == nil || m.Length == 0 {
			continue
		}
		return r.kind, m.String()
	}
	return KindIllegal, ""
}

// Scanner produces tokens one at a time. Once the source is exhausted every
// call to Next returns an EOF token.
type Scanner struct {
	lexer *Lexer
	src   string
	pos   int
	line  int
}

// Next returns the next token. Input that matches no rule becomes an illegal
// token; the scanner itself never fails.
func (s *Scanner) Next() Token {
	for s.pos < len(s.src) {
		rest := s.src[s.pos:]
		kind, lexeme := s.lexer.match(rest)
		if lexeme == "" {
			_, size := utf8.DecodeRuneInString(rest)
			lexeme = rest[:size]
		}
		s.pos += len(lexeme)
		line := s.line

		switch kind {
		case KindSkip:
			continue
		case KindNewline:
			s.line += strings.Count(lexeme, "\n")
			continue
		case KindString:
			return Token{Line: line, Kind: KindString, Value: lexeme[1 : len(lexeme)-1]}
		case KindOperator:
			if op, ok := operators[lexeme]; ok {
				return Token{Line: line, Kind: op, Value: lexeme}
			}
			return Token{Line: line, Kind: KindIllegal, Value: lexeme}
		case KindIdentifier:
			if kw, ok := s.lexer.keywords[lexeme]; ok {
				return Token{Line: line, Kind: kw, Value: lexeme}
			}
		}
		return Token{Line: line, Kind: kind, Value: lexeme}
	}
	return Token{Line: s.line, Kind: KindEOF}
}
