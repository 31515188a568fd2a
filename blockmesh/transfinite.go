package blockmesh

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BlockMapping places the structured nodes of one block by transfinite
// interpolation of its edge subdivisions
type BlockMapping struct {
	Dim      int
	Segments [3]int
	corners  *mat.Dense     // Corner coordinates [corner][dim]
	edges    [3][][]float64 // Mapped coordinates [axis][edge][index]
	sf       *mat.VecDense
}

func NewBlockMapping(bd *BlockData, block int) (bm *BlockMapping, err error) {
	var (
		dim = bd.Dimension
		nc  = NumCorners(dim)
		ne  = edgesPerAxis(dim)
	)
	bm = &BlockMapping{
		Dim:     dim,
		corners: mat.NewDense(nc, dim, nil),
		sf:      mat.NewVecDense(nc, nil),
	}
	for c, p := range bd.BlockPoints[block] {
		bm.corners.SetRow(c, bd.Points[p][:dim])
	}
	for d := 0; d < 3; d++ {
		bm.Segments[d] = 1
		if d < dim {
			bm.Segments[d] = bd.BlockSubdivisions[block][d]
		}
	}
	for d := 0; d < dim; d++ {
		gradings := bd.BlockGradings[block][d*ne : (d+1)*ne]
		if bm.edges[d], err = EdgeMappedCoords(bm.Segments[d], gradings); err != nil {
			return nil, err
		}
	}
	return
}

// MappedCoord blends the edge subdivisions into the reference coordinates
// of structured node (i,j,k), k is ignored in 2D
func (bm *BlockMapping) MappedCoord(i, j, k int) (xi [3]float64, err error) {
	if bm.Dim == 2 {
		return bm.mappedCoord2D(i, j)
	}
	var (
		k0, k1, k2, k3 = bm.edges[0][0][i], bm.edges[0][1][i], bm.edges[0][2][i], bm.edges[0][3][i]
		e0, e1, e2, e3 = bm.edges[1][0][j], bm.edges[1][1][j], bm.edges[1][2][j], bm.edges[1][3][j]
		z0, z1, z2, z3 = bm.edges[2][0][k], bm.edges[2][1][k], bm.edges[2][2][k], bm.edges[2][3][k]
	)
	w0K := (1-k0)*(1-e0)*(1-z0) + (1+k0)*(1-e1)*(1-z1)
	w1K := (1-k1)*(1+e0)*(1-z3) + (1+k1)*(1+e1)*(1-z2)
	w2K := (1-k2)*(1+e3)*(1+z3) + (1+k2)*(1+e2)*(1+z2)
	w3K := (1-k3)*(1-e3)*(1+z0) + (1+k3)*(1-e2)*(1+z1)

	w0E := (1-e0)*(1-k0)*(1-z0) + (1+e0)*(1-k1)*(1-z3)
	w1E := (1-e1)*(1+k0)*(1-z1) + (1+e1)*(1+k1)*(1-z2)
	w2E := (1-e2)*(1+k3)*(1+z1) + (1+e2)*(1+k2)*(1+z2)
	w3E := (1-e3)*(1-k3)*(1+z0) + (1+e3)*(1-k2)*(1+z3)

	w0Z := (1-z0)*(1-k0)*(1-e0) + (1+z0)*(1-k3)*(1-e3)
	w1Z := (1-z1)*(1+k0)*(1-e1) + (1+z1)*(1+k3)*(1-e2)
	w2Z := (1-z2)*(1+k1)*(1+e1) + (1+z2)*(1+k2)*(1+e2)
	w3Z := (1-z3)*(1-k1)*(1+e0) + (1+z3)*(1-k2)*(1+e3)

	if xi[0], err = blend(i, j, k, "ksi", [4]float64{w0K, w1K, w2K, w3K}, [4]float64{k0, k1, k2, k3}); err != nil {
		return
	}
	if xi[1], err = blend(i, j, k, "eta", [4]float64{w0E, w1E, w2E, w3E}, [4]float64{e0, e1, e2, e3}); err != nil {
		return
	}
	xi[2], err = blend(i, j, k, "zta", [4]float64{w0Z, w1Z, w2Z, w3Z}, [4]float64{z0, z1, z2, z3})
	return
}

func (bm *BlockMapping) mappedCoord2D(i, j int) (xi [3]float64, err error) {
	var (
		k0, k1 = bm.edges[0][0][i], bm.edges[0][1][i]
		e0, e1 = bm.edges[1][0][j], bm.edges[1][1][j]
	)
	w0K := (1-k0)*(1-e0) + (1+k0)*(1-e1)
	w1K := (1-k1)*(1+e0) + (1+k1)*(1+e1)
	w0E := (1-e0)*(1-k0) + (1+e0)*(1-k1)
	w1E := (1-e1)*(1+k0) + (1+e1)*(1+k1)

	if xi[0], err = blend(i, j, 0, "ksi", [4]float64{w0K, w1K}, [4]float64{k0, k1}); err != nil {
		return
	}
	xi[1], err = blend(i, j, 0, "eta", [4]float64{w0E, w1E}, [4]float64{e0, e1})
	return
}

func blend(i, j, k int, axis string, w, x [4]float64) (v float64, err error) {
	var wMag float64
	for n := range w {
		wMag += w[n]
		v += w[n] * x[n]
	}
	if wMag == 0 || math.IsNaN(wMag) || math.IsInf(wMag, 0) {
		err = numericErrorf("degenerate %s weights at node (%d,%d,%d)", axis, i, j, k)
		return
	}
	v /= wMag
	return
}

// ShapeFunction fills sf with the bilinear (2D) or trilinear (3D) corner
// weights at reference point xi
func ShapeFunction(dim int, xi [3]float64, sf *mat.VecDense) {
	for c := 0; c < NumCorners(dim); c++ {
		v := 1.
		for d := 0; d < dim; d++ {
			if cornerBits[c][d] == 1 {
				v *= 0.5 * (1 + xi[d])
			} else {
				v *= 0.5 * (1 - xi[d])
			}
		}
		sf.SetVec(c, v)
	}
}

// Coordinates writes the physical position of node (i,j,k) into out
func (bm *BlockMapping) Coordinates(i, j, k int, out []float64) (err error) {
	var xi [3]float64
	if xi, err = bm.MappedCoord(i, j, k); err != nil {
		return
	}
	ShapeFunction(bm.Dim, xi, bm.sf)
	x := mat.NewVecDense(bm.Dim, out[:bm.Dim])
	x.MulVec(bm.corners.T(), bm.sf)
	return
}
