package blockmesh

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestMappedCoords_EndPoints(t *testing.T) {
	gradings := []float64{1, 1 + 1e-7, 1 - 1e-7, 1.2, 2, 0.5, 10, 0.1, 1 + 2e-6}
	for n := 1; n <= 40; n++ {
		for _, g := range gradings {
			x, err := MappedCoords(n, g)
			require.NoError(t, err, "n=%d g=%v", n, g)
			require.Len(t, x, n+1)
			assert.InDelta(t, -1, x[0], MappedEndTol, "n=%d g=%v", n, g)
			assert.InDelta(t, 1, x[n], MappedEndTol, "n=%d g=%v", n, g)
			for i := 1; i <= n; i++ {
				if x[i] <= x[i-1] {
					t.Errorf("n=%d g=%v: mapped coordinates not increasing at %d: %v", n, g, i, x)
					break
				}
			}
		}
	}
}

func TestMappedCoords_Grading(t *testing.T) {
	{ // Uniform
		x, err := MappedCoords(4, 1)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{-1, -0.5, 0, 0.5, 1}, x, 1e-15)
	}
	{ // Last over first segment equals the grading, constant expansion ratio
		for _, g := range []float64{3, 0.25} {
			n := 6
			x, err := MappedCoords(n, g)
			require.NoError(t, err)
			first, last := x[1]-x[0], x[n]-x[n-1]
			assert.True(t, scalar.EqualWithinRel(last/first, g, 1e-12), "grading %v: ratio %v", g, last/first)
			r := math.Pow(g, 1/float64(n-1))
			for i := 2; i <= n; i++ {
				ratio := (x[i] - x[i-1]) / (x[i-1] - x[i-2])
				assert.True(t, scalar.EqualWithinRel(ratio, r, 1e-10), "expansion ratio at %d: %v != %v", i, ratio, r)
			}
		}
	}
	{ // A single segment ignores the grading
		x, err := MappedCoords(1, 5)
		require.NoError(t, err)
		assert.Equal(t, []float64{-1, 1}, x)
	}
}

func TestMappedCoords_Errors(t *testing.T) {
	var numErr *NumericError
	for _, g := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := MappedCoords(4, g)
		assert.True(t, errors.As(err, &numErr), "grading %v should be rejected, got %v", g, err)
	}
	var cfgErr *ConfigError
	_, err := MappedCoords(0, 1)
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "block_subdivisions", cfgErr.Field)

	edges, err := EdgeMappedCoords(3, []float64{1, 2, 0.5, 1})
	require.NoError(t, err)
	assert.Len(t, edges, 4)
	for _, x := range edges {
		assert.Len(t, x, 4)
	}
	_, err = EdgeMappedCoords(3, []float64{1, -2})
	assert.Error(t, err)
}
