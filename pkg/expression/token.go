package expression

import "fmt"

// Kind identifies the lexical category of a Token. Keyword kinds are spelled
// exactly like the keyword they stand for.
type Kind string

const (
	KindEOF     Kind = "eof"
	KindIllegal Kind = "illegal"

	// Consumed by the scanner and never emitted.
	KindNewline  Kind = "newline"
	KindSkip     Kind = "skip"
	KindOperator Kind = "operator"

	KindIdentifier  Kind = "identifier"
	KindString      Kind = "string"
	KindInteger     Kind = "integer"
	KindFloat       Kind = "float"
	KindNegative    Kind = "negative"
	KindDot         Kind = "dot"
	KindComma       Kind = "comma"
	KindColon       Kind = "colon"
	KindPipe        Kind = "pipe"
	KindLBracket    Kind = "lbracket"
	KindRBracket    Kind = "rbracket"
	KindLParen      Kind = "lparen"
	KindRParen      Kind = "rparen"
	KindRangeLParen Kind = "rangelparen"
	KindRange       Kind = "range"

	KindEq Kind = "=="
	KindNe Kind = "!="
	KindLg Kind = "<>"
	KindLt Kind = "<"
	KindGt Kind = ">"
	KindLe Kind = "<="
	KindGe Kind = ">="

	KindTrue     Kind = "true"
	KindFalse    Kind = "false"
	KindNil      Kind = "nil"
	KindNull     Kind = "null"
	KindEmpty    Kind = "empty"
	KindBlank    Kind = "blank"
	KindAnd      Kind = "and"
	KindOr       Kind = "or"
	KindContains Kind = "contains"
	KindNot      Kind = "not"
	KindIf       Kind = "if"
	KindElse     Kind = "else"
)

var operators = map[string]Kind{
	"==": KindEq,
	"!=": KindNe,
	"<>": KindLg,
	"<":  KindLt,
	">":  KindGt,
	"<=": KindLe,
	">=": KindGe,
}

// Token is a single lexeme. Tokens are values and never change after the
// scanner produces them.
type Token struct {
	Line  int
	Kind  Kind
	Value string
}

func (t Token) String() string {
	switch t.Kind {
	case KindEOF:
		return "end of expression"
	case KindString:
		return fmt.Sprintf("string %q", t.Value)
	case KindIdentifier, KindInteger, KindFloat, KindIllegal:
		return fmt.Sprintf("%s %q", t.Kind, t.Value)
	}
	return fmt.Sprintf("%q", t.Value)
}

// Keywords maps reserved spellings to their kinds.
type Keywords map[string]Kind

// NewKeywords builds a keyword set from keyword kinds.
func NewKeywords(kinds ...Kind) Keywords {
	kw := make(Keywords, len(kinds))
	for _, k := range kinds {
		kw[string(k)] = k
	}
	return kw
}

// With returns a copy of kw extended with more keyword kinds.
func (kw Keywords) With(kinds ...Kind) Keywords {
	out := make(Keywords, len(kw)+len(kinds))
	for s, k := range kw {
		out[s] = k
	}
	for _, k := range kinds {
		out[string(k)] = k
	}
	return out
}
