package parallel

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(x int) (int, error) {
	return x, nil
}

func TestMaxElementBy(t *testing.T) {
	tests := []struct {
		name     string
		items    []int
		expected int
	}{
		{"single", []int{5}, 0},
		{"ascending", []int{1, 2, 3, 4, 5}, 4},
		{"descending", []int{5, 4, 3, 2, 1}, 0},
		{"first of equal maxima", []int{1, 7, 3, 7, 2}, 1},
		{"negative", []int{-5, -1, -3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for threads := 1; threads <= 8; threads++ {
				result, err := MaxElementBy(tt.items, identity, threads)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result.Position, "threads=%d", threads)
				assert.Equal(t, tt.items[tt.expected], result.Value)
			}
		})
	}
}

func TestMinElementBy(t *testing.T) {
	items := []float64{3.5, 1.25, 9, 1.25, 4}
	for threads := 0; threads <= 6; threads++ {
		result, err := MinElementBy(items, func(x float64) (float64, error) { return x, nil }, threads)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Position)
		assert.Equal(t, 1.25, result.Value)
	}
}

func TestEmptyRangeIsNotFound(t *testing.T) {
	result, err := MaxElementBy([]int{}, identity, 4)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, NotFound, result.Position)

	result, err = MinElementBy[int, int](nil, identity, 0)
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestResultDoesNotDependOnThreadCount(t *testing.T) {
	r := rand.New(rand.NewPCG(20160404, 2))
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}
	values := make([]float64, len(items))
	for i := range values {
		values[i] = float64(r.IntN(50))
	}
	value := func(i int) (float64, error) { return values[i], nil }

	expectedMax, err := MaxElementBy(items, value, 1)
	require.NoError(t, err)
	expectedMin, err := MinElementBy(items, value, 1)
	require.NoError(t, err)

	for threads := 2; threads <= 33; threads++ {
		gotMax, err := MaxElementBy(items, value, threads)
		require.NoError(t, err)
		assert.Equal(t, expectedMax, gotMax, "threads=%d", threads)

		gotMin, err := MinElementBy(items, value, threads)
		require.NoError(t, err)
		assert.Equal(t, expectedMin, gotMin, "threads=%d", threads)
	}
}

func TestCustomComparator(t *testing.T) {
	words := []string{"go", "gopher", "g", "golang"}
	longest, err := ExtremeElementBy(words,
		func(w string) (int, error) { return len(w), nil },
		func(a, b int) bool { return a > b },
		3)
	require.NoError(t, err)
	assert.Equal(t, 1, longest.Position)
	assert.Equal(t, 6, longest.Value)
}

func TestErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	for _, threads := range []int{1, 4} {
		_, err := MaxElementBy(items, func(x int) (int, error) {
			if x == 57 {
				return 0, errBoom
			}
			return x, nil
		}, threads)
		assert.ErrorIs(t, err, errBoom)

		_, err = Map(items, func(x int) (int, error) {
			if x == 3 {
				return 0, errBoom
			}
			return x, nil
		}, threads)
		assert.ErrorIs(t, err, errBoom)
	}
}

func TestPanicIsRaisedOnCaller(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	for _, threads := range []int{1, 4} {
		assert.PanicsWithValue(t, "bad item", func() {
			_, _ = MaxElementBy(items, func(x int) (int, error) {
				if x == 6 {
					panic("bad item")
				}
				return x, nil
			}, threads)
		})
	}
}

func TestMapKeepsOrder(t *testing.T) {
	items := make([]int, 257)
	for i := range items {
		items[i] = i
	}
	for _, threads := range []int{0, 1, 3, 16, 500} {
		squares, err := Map(items, func(x int) (int, error) { return x * x, nil }, threads)
		require.NoError(t, err)
		require.Len(t, squares, len(items))
		for i, s := range squares {
			assert.Equal(t, i*i, s)
		}
	}

	empty, err := Map([]int{}, identity, 4)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
