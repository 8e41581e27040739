package expression

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Arguments are name: expression pairs in the order they were first written.
// A repeated name keeps its first position and takes the later expression.
type Arguments = orderedmap.OrderedMap[string, Expression]

// ParseArguments parses a comma separated list of keyword arguments.
func ParseArguments(src string) (*Arguments, error) {
	return ReadArguments(NewTokenStream(ArgumentsLexer.Scan(src)))
}

// ReadArguments parses keyword arguments from the current token to the end
// of s.
func ReadArguments(s *TokenStream) (*Arguments, error) {
	args := orderedmap.New[string, Expression]()
	for s.Current().Kind != KindEOF {
		name, err := s.Consume(KindIdentifier)
		if err != nil {
			return nil, err
		}
		if _, err := s.Consume(KindColon); err != nil {
			return nil, err
		}
		v, err := DefaultParser.ParseExpression(s, PrecedenceLowest)
		if err != nil {
			return nil, err
		}
		args.Set(name.Value, v)

		if s.Current().Kind != KindComma {
			break
		}
		s.Next()
	}
	if err := s.ExpectEOF(); err != nil {
		return nil, err
	}
	return args, nil
}

// EvaluateArguments evaluates every argument against ctx, in order.
func EvaluateArguments(ctx Context, args *Arguments) (DictValue, error) {
	ns := make(DictValue, args.Len())
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		v, err := eval(ctx, pair.Value)
		if err != nil {
			return nil, err
		}
		ns[pair.Key] = v
	}
	return ns, nil
}

// FormatArguments renders arguments in canonical form.
func FormatArguments(args *Arguments) string {
	parts := make([]string, 0, args.Len())
	for pair := args.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, pair.Key+": "+pair.Value.String())
	}
	return strings.Join(parts, ", ")
}
