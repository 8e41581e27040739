package expression

import "strings"

// TokenStream is a cursor over a scanner with one token of lookahead.
type TokenStream struct {
	scanner *Scanner
	current Token
	peek    Token
	// depth counts grouping parentheses that are open.
	depth int
}

// NewTokenStream reads the first two tokens from s.
func NewTokenStream(s *Scanner) *TokenStream {
	ts := &TokenStream{scanner: s}
	ts.current = s.Next()
	ts.peek = s.Next()
	return ts
}

// Current returns the token under the cursor.
func (s *TokenStream) Current() Token { return s.current }

// Peek returns the token after the current one.
func (s *TokenStream) Peek() Token { return s.peek }

// Next advances the cursor and returns the token that was current.
func (s *TokenStream) Next() Token {
	tok := s.current
	s.current = s.peek
	s.peek = s.scanner.Next()
	return tok
}

// Expect checks that the current token has one of the given kinds.
func (s *TokenStream) Expect(kinds ...Kind) error {
	for _, k := range kinds {
		if s.current.Kind == k {
			return nil
		}
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = string(k)
	}
	return NewSyntaxError(s.current.Line, strings.Join(want, " or "), s.current)
}

// Consume is Expect followed by Next.
func (s *TokenStream) Consume(kinds ...Kind) (Token, error) {
	if err := s.Expect(kinds...); err != nil {
		return Token{}, err
	}
	return s.Next(), nil
}

// ExpectEOF reports trailing tokens as a syntax error.
func (s *TokenStream) ExpectEOF() error {
	if s.current.Kind == KindEOF {
		return nil
	}
	return NewUnexpectedTokenError(s.current)
}
