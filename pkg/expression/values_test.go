package expression

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeLen(t *testing.T) {
	tests := []struct {
		r    RangeValue
		want int64
	}{
		{RangeValue{Start: 1, Stop: 3}, 3},
		{RangeValue{Start: 3, Stop: 1}, 0},
		{RangeValue{Start: -2, Stop: -2}, 1},
		{RangeValue{Start: 1, Stop: math.MaxInt64}, math.MaxInt64},
		{RangeValue{Start: 0, Stop: math.MaxInt64}, math.MaxInt64},
		{RangeValue{Start: math.MinInt64, Stop: math.MaxInt64}, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Len())
		})
	}
}

func TestRangeAtAndIndexOf(t *testing.T) {
	huge := RangeValue{Start: 1, Stop: math.MaxInt64}

	v, ok := huge.At(4)
	require.True(t, ok)
	assert.Equal(t, IntValue(5), v)
	v, ok = huge.At(-1)
	require.True(t, ok)
	assert.Equal(t, IntValue(math.MaxInt64), v)
	_, ok = RangeValue{Start: 1, Stop: 3}.At(3)
	assert.False(t, ok)

	i, ok := huge.IndexOf(IntValue(5))
	require.True(t, ok)
	assert.EqualValues(t, 4, i)
	i, ok = huge.IndexOf(FloatValue(2))
	require.True(t, ok)
	assert.EqualValues(t, 1, i)
	_, ok = huge.IndexOf(FloatValue(2.5))
	assert.False(t, ok)
	_, ok = huge.IndexOf(IntValue(0))
	assert.False(t, ok)
	_, ok = huge.IndexOf(StringValue("1"))
	assert.False(t, ok)
}

func TestRangeSlice(t *testing.T) {
	tests := []struct {
		name          string
		r             RangeValue
		offset, limit int64
		want          RangeValue
	}{
		{"limit only", RangeValue{Start: 1, Stop: math.MaxInt64}, 0, 2, RangeValue{Start: 1, Stop: 2}},
		{"offset and limit", RangeValue{Start: 1, Stop: 10}, 8, 5, RangeValue{Start: 9, Stop: 10}},
		{"no limit", RangeValue{Start: 1, Stop: 10}, 3, -1, RangeValue{Start: 4, Stop: 10}},
		{"offset past the end", RangeValue{Start: 1, Stop: 3}, 7, -1, RangeValue{Start: 1, Stop: 0}},
		{"zero limit", RangeValue{Start: 1, Stop: 3}, 0, 0, RangeValue{Start: 1, Stop: 0}},
		{"negative offset", RangeValue{Start: 1, Stop: 3}, -4, 1, RangeValue{Start: 1, Stop: 1}},
		{"saturated length keeps the stop", RangeValue{Start: math.MinInt64, Stop: math.MaxInt64}, 1, -1, RangeValue{Start: math.MinInt64 + 1, Stop: math.MaxInt64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Slice(tt.offset, tt.limit))
		})
	}
}

func TestRangeItems(t *testing.T) {
	items, err := RangeValue{Start: -1, Stop: 1}.Items()
	require.NoError(t, err)
	assert.Equal(t, ListValue{IntValue(-1), IntValue(0), IntValue(1)}, items)

	items, err = RangeValue{Start: 1, Stop: MaxRangeItems}.Items()
	require.NoError(t, err)
	assert.Len(t, items, MaxRangeItems)

	_, err = RangeValue{Start: 0, Stop: MaxRangeItems}.Items()
	assert.True(t, errors.Is(err, ErrRangeTooLarge), "got %v", err)
	_, err = RangeValue{Start: 0, Stop: math.MaxInt64}.Items()
	assert.True(t, errors.Is(err, ErrRangeTooLarge), "got %v", err)

	assert.Equal(t, "0..9223372036854775807", ToGo(RangeValue{Start: 0, Stop: math.MaxInt64}))
	assert.Equal(t, []any{int64(1), int64(2)}, ToGo(RangeValue{Start: 1, Stop: 2}))
}

func TestRangeEquality(t *testing.T) {
	huge := RangeValue{Start: 0, Stop: math.MaxInt64}
	list := ListValue{IntValue(1), IntValue(2)}

	assert.True(t, Equal(RangeValue{Start: 1, Stop: 2}, list))
	assert.True(t, Equal(list, RangeValue{Start: 1, Stop: 2}))
	assert.False(t, Equal(huge, list))
	assert.False(t, Equal(list, huge))
	assert.True(t, Equal(huge, huge))
	assert.True(t, Equal(RangeValue{Start: 3, Stop: 1}, RangeValue{Start: 5, Stop: 0}))
	assert.True(t, Equal(RangeValue{Start: 3, Stop: 1}, ListValue{}))
	assert.False(t, Equal(huge, ListValue{}))
	assert.True(t, Contains(huge, IntValue(math.MaxInt64)))
}
