package expression

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Names are prefixed so they never collide with keywords.
func genName(prefix string) *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		return prefix + rapid.StringMatching(`[a-z0-9_]{0,5}`).Draw(t, "name")
	})
}

func genIdentifier(nested bool) *rapid.Generator[*Identifier] {
	return rapid.Custom(func(t *rapid.T) *Identifier {
		id := &Identifier{Path: []PathElement{PathName(genName("v").Draw(t, "root"))}}
		n := rapid.IntRange(0, 3).Draw(t, "segments")
		for i := 0; i < n; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "segment") {
			case 0:
				id.Path = append(id.Path, PathName(genName("k").Draw(t, "key")))
			case 1:
				id.Path = append(id.Path, PathName(rapid.StringMatching(`[a-z.]{1,3} [a-z.]{1,3}`).Draw(t, "quoted")))
			case 2:
				id.Path = append(id.Path, PathIndex(rapid.Int64Range(-5, 20).Draw(t, "index")))
			case 3:
				if nested {
					id.Path = append(id.Path, genIdentifier(false).Draw(t, "nested"))
				}
			}
		}
		return id
	})
}

func genLiteral() *rapid.Generator[Expression] {
	return rapid.Custom(func(t *rapid.T) Expression {
		switch rapid.IntRange(0, 6).Draw(t, "literal") {
		case 0:
			return &StringLiteral{Value: rapid.StringMatching(`[a-zA-Z .()]{0,6}`).Draw(t, "string")}
		case 1:
			return &IntegerLiteral{Value: rapid.Int64Range(-1000, 1000).Draw(t, "int")}
		case 2:
			return &FloatLiteral{Value: float64(rapid.IntRange(-400, 400).Draw(t, "quarters")) / 4}
		case 3:
			return &BooleanLiteral{Value: rapid.Bool().Draw(t, "bool")}
		case 4:
			return Nil{}
		case 5:
			return rapid.SampledFrom([]Expression{Empty{}, Blank{}}).Draw(t, "sentinel")
		default:
			return genIdentifier(true).Draw(t, "identifier")
		}
	})
}

func genRangeBound() *rapid.Generator[Expression] {
	return rapid.Custom(func(t *rapid.T) Expression {
		if rapid.Bool().Draw(t, "identifier bound") {
			return &Identifier{Path: []PathElement{PathName(genName("v").Draw(t, "bound"))}}
		}
		return &IntegerLiteral{Value: rapid.Int64Range(-10, 10).Draw(t, "bound")}
	})
}

var infixOperators = []string{"==", "!=", "<>", "<", ">", "<=", ">=", "contains", "and", "or"}

func genExpression(depth int) *rapid.Generator[Expression] {
	return rapid.Custom(func(t *rapid.T) Expression {
		choice := 0
		if depth > 0 {
			choice = rapid.IntRange(0, 4).Draw(t, "node")
		}
		switch choice {
		case 1:
			return &Infix{
				Left:     genExpression(depth-1).Draw(t, "left"),
				Operator: rapid.SampledFrom(infixOperators).Draw(t, "operator"),
				Right:    genExpression(depth-1).Draw(t, "right"),
			}
		case 2:
			return &Prefix{Operator: "not", Right: genExpression(depth-1).Draw(t, "operand")}
		case 3:
			return &Prefix{Operator: "-", Right: genIdentifier(false).Draw(t, "operand")}
		case 4:
			return &RangeLiteral{Start: genRangeBound().Draw(t, "start"), Stop: genRangeBound().Draw(t, "stop")}
		default:
			return genLiteral().Draw(t, "literal")
		}
	})
}

// Filter arguments bind tighter than any infix operator, so only primaries
// are generated for them.
func genFilters(label string) *rapid.Generator[[]*FilterCall] {
	return rapid.Custom(func(t *rapid.T) []*FilterCall {
		n := rapid.IntRange(0, 3).Draw(t, label)
		if n == 0 {
			return nil
		}
		filters := make([]*FilterCall, n)
		for i := range filters {
			fc := &FilterCall{Name: genName("f").Draw(t, "filter"), Line: 1}
			for j := rapid.IntRange(0, 2).Draw(t, "args"); j > 0; j-- {
				fc.Args = append(fc.Args, genLiteral().Draw(t, "arg"))
			}
			for j := rapid.IntRange(0, 2).Draw(t, "kwargs"); j > 0; j-- {
				fc.Kwargs = append(fc.Kwargs, KeywordArgument{
					Name:  genName("k").Draw(t, "kwarg"),
					Value: genLiteral().Draw(t, "value"),
				})
			}
			filters[i] = fc
		}
		return filters
	})
}

func genFilteredIf() *rapid.Generator[*FilteredIf] {
	return rapid.Custom(func(t *rapid.T) *FilteredIf {
		node := &FilteredIf{
			Expression: genExpression(2).Draw(t, "expression"),
			Filters:    genFilters("filters").Draw(t, "filters"),
		}
		if rapid.Bool().Draw(t, "conditional") {
			node.Condition = &Boolean{Expression: genExpression(3).Draw(t, "condition")}
			if rapid.Bool().Draw(t, "alternative") {
				node.Alternative = genExpression(2).Draw(t, "alternative")
			}
			node.TailFilters = genFilters("tail").Draw(t, "tail")
		}
		return node
	})
}

func TestFilteredIfRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		node := genFilteredIf().Draw(t, "node")
		src := node.String()

		parsed, err := ParseFilteredIf(src)
		require.NoError(t, err, src)
		require.Equal(t, src, parsed.String())
		require.True(t, EqualExpressions(node, parsed), src)
	})
}

func TestConditionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cond := &Boolean{Expression: genExpression(4).Draw(t, "condition")}
		src := cond.String()

		parsed, err := ParseCondition(src)
		require.NoError(t, err, src)
		require.Equal(t, src, parsed.String())
	})
}
