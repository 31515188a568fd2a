package blockmesh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notargets/blockmesh/types"
)

// singleHex is one 3D block over the given corners
func singleHex(t *testing.T, corners [][]float64, segments []int, grading float64) *BlockData {
	bd := NewBlockData(3)
	bd.Points = corners
	_, err := bd.AddBlock([]int{0, 1, 2, 3, 4, 5, 6, 7}, segments, []float64{grading, grading, grading})
	require.NoError(t, err)
	return bd
}

func unitCubeCorners() [][]float64 {
	return [][]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
}

// skewedHexCorners is a general hexahedron with planar faces broken
func skewedHexCorners() [][]float64 {
	return [][]float64{
		{0, 0, 0}, {2, 0.1, 0}, {2.2, 1.5, 0.2}, {-0.1, 1, 0},
		{0.1, 0, 1}, {2, 0, 1.3}, {2.5, 1.7, 1.5}, {0, 1.2, 1},
	}
}

// hexLine is nBlocks unit cubes along x, each with the given segments
func hexLine(t *testing.T, nBlocks int, segments []int) *BlockData {
	bd := NewBlockData(3)
	for i := 0; i <= nBlocks; i++ {
		x := float64(i)
		bd.Points = append(bd.Points,
			[]float64{x, 0, 0}, []float64{x, 1, 0}, []float64{x, 1, 1}, []float64{x, 0, 1})
	}
	// points of plane i: 4i (y0z0), 4i+1 (y1z0), 4i+2 (y1z1), 4i+3 (y0z1)
	for b := 0; b < nBlocks; b++ {
		l, r := 4*b, 4*(b+1)
		corners := []int{l, r, r + 1, l + 1, l + 3, r + 3, r + 2, l + 2}
		_, err := bd.AddBlock(corners, segments, []float64{1, 1, 1})
		require.NoError(t, err)
	}
	return bd
}

// quadStack is two 2D blocks on top of each other sharing the edge y=1
func quadStack(t *testing.T, segments []int) *BlockData {
	bd := NewBlockData(2)
	bd.Points = [][]float64{
		{0, 0}, {1, 0},
		{0, 1}, {1, 1},
		{0, 2}, {1, 2},
	}
	for b := 0; b < 2; b++ {
		l := 2 * b
		_, err := bd.AddBlock([]int{l, l + 1, l + 3, l + 2}, segments, []float64{1, 1})
		require.NoError(t, err)
	}
	return bd
}

// lShape2D is three unit squares: block 0 at the origin, block 1 to its
// right and block 2 above it, leaving a re-entrant corner at (1,1)
func lShape2D(t *testing.T, segments []int) *BlockData {
	bd := NewBlockData(2)
	bd.Points = [][]float64{
		{0, 0}, {1, 0}, {2, 0},
		{0, 1}, {1, 1}, {2, 1},
		{0, 2}, {1, 2},
	}
	for _, corners := range [][]int{{0, 1, 4, 3}, {1, 2, 5, 4}, {3, 4, 7, 6}} {
		_, err := bd.AddBlock(corners, segments, []float64{1, 1})
		require.NoError(t, err)
	}
	return bd
}

// hexCells is one unit cube block per cell of a 2 by 2 by 2 lattice, cells
// given by their lower corner
func hexCells(t *testing.T, cells [][3]int, segments []int) *BlockData {
	bd := NewBlockData(3)
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				bd.Points = append(bd.Points, []float64{float64(i), float64(j), float64(k)})
			}
		}
	}
	pt := func(i, j, k int) int { return i + 3*j + 9*k }
	for _, c := range cells {
		i, j, k := c[0], c[1], c[2]
		corners := []int{
			pt(i, j, k), pt(i+1, j, k), pt(i+1, j+1, k), pt(i, j+1, k),
			pt(i, j, k+1), pt(i+1, j, k+1), pt(i+1, j+1, k+1), pt(i, j+1, k+1),
		}
		_, err := bd.AddBlock(corners, segments, []float64{1, 1, 1})
		require.NoError(t, err)
	}
	return bd
}

// channel3D is a 2 by 2 arrangement of blocks in x and y, with named
// patches on the inlet, outlet and bottom wall
func channel3D(t *testing.T) *BlockData {
	bd := NewBlockData(3)
	for k := 0; k < 2; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				bd.Points = append(bd.Points, []float64{float64(i), 0.5 * float64(j), float64(k)})
			}
		}
	}
	pt := func(i, j, k int) int { return i + 3*j + 9*k }
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			corners := []int{
				pt(i, j, 0), pt(i+1, j, 0), pt(i+1, j+1, 0), pt(i, j+1, 0),
				pt(i, j, 1), pt(i+1, j, 1), pt(i+1, j+1, 1), pt(i, j+1, 1),
			}
			_, err := bd.AddBlock(corners, []int{3, 2, 2}, []float64{1.5, 1, 1})
			require.NoError(t, err)
		}
	}
	require.NoError(t, bd.AddPatch("inlet", types.PatchInlet, []FaceRef{{0, XNeg}, {2, XNeg}}))
	require.NoError(t, bd.AddPatch("outlet", types.PatchOutlet, []FaceRef{{1, XPos}, {3, XPos}}))
	require.NoError(t, bd.AddPatch("bottom", types.PatchWall, []FaceRef{{0, YNeg}, {1, YNeg}}))
	return bd
}

func countByType[T comparable](list []T) map[T]int {
	counts := make(map[T]int)
	for _, v := range list {
		counts[v]++
	}
	return counts
}
