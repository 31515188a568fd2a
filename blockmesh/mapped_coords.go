package blockmesh

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// Tolerance on the -1 and +1 end points of a mapped edge
	MappedEndTol = 150 * 2.220446049250313e-16
	// Gradings closer than this to 1 give a uniform subdivision
	UniformGradingTol = 1e-6
)

/*
MappedCoords subdivides the reference interval [-1,1] into segments pieces,
the ratio between the last and the first piece being grading. For a
geometric grading the expansion ratio between successive pieces is
r = grading^(1/(segments-1)) and point i is at 2(1-r^i)/(1-grading*r) - 1.
The denominator is evaluated as 1-r^segments, the same value, which keeps
the end points exact for gradings close to 1.
*/
func MappedCoords(segments int, grading float64) (x []float64, err error) {
	if segments < 1 {
		err = configErrorf("block_subdivisions", "segment count %d must be at least 1", segments)
		return
	}
	if !(grading > 0) || math.IsInf(grading, 0) {
		err = numericErrorf("grading %v must be positive and finite", grading)
		return
	}
	x = make([]float64, segments+1)
	if math.Abs(grading-1) > UniformGradingTol && segments > 1 {
		var (
			r     = math.Pow(grading, 1/float64(segments-1))
			denom = 1 - math.Pow(r, float64(segments))
		)
		for i := range x {
			x[i] = 2*(1-math.Pow(r, float64(i)))/denom - 1
		}
	} else {
		for i := range x {
			x[i] = float64(i)*2/float64(segments) - 1
		}
	}
	if !scalar.EqualWithinAbs(x[0], -1, MappedEndTol) || !scalar.EqualWithinAbs(x[segments], 1, MappedEndTol) {
		err = numericErrorf("mapped coordinates for %d segments with grading %v end at [%v, %v], not [-1, 1]",
			segments, grading, x[0], x[segments])
		x = nil
	}
	return
}

// EdgeMappedCoords subdivides every edge of one axis, result is [edge][point]
func EdgeMappedCoords(segments int, gradings []float64) (x [][]float64, err error) {
	x = make([][]float64, len(gradings))
	for e, g := range gradings {
		if x[e], err = MappedCoords(segments, g); err != nil {
			return nil, err
		}
	}
	return
}
