package expression

const (
	floatPattern      = `\d+\.(?!\.)\d*`
	integerPattern    = `\d+`
	stringPattern     = `"[^"]*"|'[^']*'`
	identifierPattern = `[a-zA-Z_][\w\-]*\??`
	// An opening parenthesis starts a range literal when ".." follows before
	// any other parenthesis. Quoted strings are skipped whole.
	rangeLParenPattern = `\((?=(?:[^()'"]|'[^']*'|"[^"]*")*?\.\.)`
)

var (
	ruleRangeLParen = Rule{KindRangeLParen, rangeLParenPattern}
	ruleRange       = Rule{KindRange, `\.\.`}
	ruleFloat       = Rule{KindFloat, floatPattern}
	ruleInteger     = Rule{KindInteger, integerPattern}
	ruleNegative    = Rule{KindNegative, `-`}
	ruleString      = Rule{KindString, stringPattern}
	ruleIdentifier  = Rule{KindIdentifier, identifierPattern}
	ruleDot         = Rule{KindDot, `\.`}
	ruleComma       = Rule{KindComma, `,`}
	ruleColon       = Rule{KindColon, `:`}
	rulePipe        = Rule{KindPipe, `\|`}
	ruleLBracket    = Rule{KindLBracket, `\[`}
	ruleRBracket    = Rule{KindRBracket, `]`}
	ruleLParen      = Rule{KindLParen, `\(`}
	ruleRParen      = Rule{KindRParen, `\)`}
	ruleNewline     = Rule{KindNewline, `\n`}
	ruleOperator    = Rule{KindOperator, `[!=<>]{1,2}`}
	ruleSkip        = Rule{KindSkip, `[ \t\r]+`}
	ruleIllegal     = Rule{KindIllegal, `.`}
)

var (
	literalKeywords = NewKeywords(KindTrue, KindFalse, KindNil, KindNull, KindEmpty, KindBlank)
	booleanKeywords = literalKeywords.With(KindAnd, KindOr, KindContains)
	notKeywords     = booleanKeywords.With(KindNot)
	inlineKeywords  = notKeywords.With(KindIf, KindElse)
)

// FilteredLexer tokenizes output statements: a primary expression followed
// by filters.
var FilteredLexer = MustLexer("filtered", []Rule{
	ruleRangeLParen, ruleRange, ruleFloat, ruleInteger, ruleNegative,
	ruleString, ruleIdentifier, ruleDot, ruleComma, ruleColon, rulePipe,
	ruleLBracket, ruleRBracket, ruleRParen,
	ruleNewline, ruleSkip, ruleIllegal,
}, literalKeywords)

// BooleanLexer tokenizes plain if and unless conditions.
var BooleanLexer = MustLexer("boolean", []Rule{
	ruleRangeLParen, ruleRange, ruleFloat, ruleInteger, ruleNegative,
	ruleString, ruleIdentifier, ruleDot, ruleLBracket, ruleRBracket, ruleRParen,
	ruleNewline, ruleOperator, ruleSkip, ruleIllegal,
}, booleanKeywords)

// NotLexer tokenizes conditions that allow the not operator and grouping
// parentheses.
var NotLexer = MustLexer("boolean-not", []Rule{
	ruleRangeLParen, ruleRange, ruleFloat, ruleInteger, ruleNegative,
	ruleString, ruleIdentifier, ruleDot, ruleLBracket, ruleRBracket,
	ruleLParen, ruleRParen,
	ruleNewline, ruleOperator, ruleSkip, ruleIllegal,
}, notKeywords)

// InlineIfLexer tokenizes inline conditional expressions.
var InlineIfLexer = MustLexer("inline-if", []Rule{
	ruleRangeLParen, ruleRange, ruleFloat, ruleInteger, ruleNegative,
	ruleString, ruleIdentifier, ruleDot, ruleComma, ruleLBracket, ruleRBracket,
	ruleLParen, ruleRParen, ruleColon, rulePipe,
	ruleNewline, ruleOperator, ruleSkip, ruleIllegal,
}, inlineKeywords)

// ArgumentsLexer tokenizes comma separated keyword arguments.
var ArgumentsLexer = MustLexer("arguments", []Rule{
	ruleRangeLParen, ruleRange, ruleFloat, ruleInteger, ruleNegative,
	ruleString, ruleIdentifier, ruleDot, ruleComma, ruleColon,
	ruleLBracket, ruleRBracket, ruleRParen,
	ruleNewline, ruleSkip, ruleIllegal,
}, literalKeywords)

// Dialects lists the built-in lexers by name.
var Dialects = map[string]*Lexer{
	FilteredLexer.Name():  FilteredLexer,
	BooleanLexer.Name():   BooleanLexer,
	NotLexer.Name():       NotLexer,
	InlineIfLexer.Name():  InlineIfLexer,
	ArgumentsLexer.Name(): ArgumentsLexer,
}
