package blockmesh

import (
	"fmt"
	"strings"

	"github.com/notargets/blockmesh/mesh"
)

// Face is a logical block face, 2*axis on the negative side of the axis
// and 2*axis+1 on the positive side
type Face int

const (
	XNeg Face = iota
	XPos
	YNeg
	YPos
	ZNeg
	ZPos
)

var faceNames = [...]string{"x-", "x+", "y-", "y+", "z-", "z+"}

func (f Face) String() string {
	if f < XNeg || f > ZPos {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

func (f Face) Axis() int        { return int(f) / 2 }
func (f Face) IsPositive() bool { return f%2 == 1 }
func (f Face) Opposite() Face   { return f ^ 1 }

func FaceOf(axis int, positive bool) Face {
	if positive {
		return Face(2*axis + 1)
	}
	return Face(2 * axis)
}

// ParseFace accepts "x-", "X+", "xneg", "YPos" and the like
func ParseFace(s string) (f Face, err error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.Replace(strings.Replace(name, "neg", "-", 1), "pos", "+", 1)
	for i, fn := range faceNames {
		if fn == name {
			return Face(i), nil
		}
	}
	err = fmt.Errorf("unknown block face %q", s)
	return
}

func NumFaces(dim int) int   { return 2 * dim }
func NumCorners(dim int) int { return 1 << dim }

// Element face index of each logical face on the coarse block element
var (
	hexFaceIndex  = [6]int{5, 3, 2, 4, 0, 1}
	quadFaceIndex = [4]int{3, 1, 0, 2}
)

func elementFace(dim int, f Face) int {
	if dim == 2 {
		return quadFaceIndex[f]
	}
	return hexFaceIndex[f]
}

func logicalFace(dim, elemFace int) Face {
	for f := XNeg; int(f) < NumFaces(dim); f++ {
		if elementFace(dim, f) == elemFace {
			return f
		}
	}
	return -1
}

// Position of each block corner in the unit cell
var cornerBits = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

func cornerIndex(bits [3]int) int {
	return 4*bits[2] + 2*bits[1] + (bits[0] ^ bits[1])
}

// faceCorners lists the block corners of a face, ordered with the normal
// pointing out of the block
func faceCorners(dim int, f Face) []int {
	local := make([]int, NumCorners(dim))
	for i := range local {
		local[i] = i
	}
	return mesh.GetElementFaces(mesh.VolumeType(dim), local)[elementFace(dim, f)]
}

func transverseAxes(dim, axis int) (axes []int) {
	for d := 0; d < dim; d++ {
		if d != axis {
			axes = append(axes, d)
		}
	}
	return
}

func edgesPerAxis(dim int) int { return 1 << (dim - 1) }

/*
Edges parallel to an axis are numbered by the corner bits of their
transverse axes, taken in axis order: (0,0) is 0, (1,0) is 1, (1,1) is 2 and
(0,1) is 3. For the x axis of a hexahedron these are the edges 0-1, 3-2, 7-6
and 4-5. Gradings are stored per axis in this edge order.
*/
func edgeCorners(dim, axis, edge int) (start, end int) {
	var (
		bits  [3]int
		trans = transverseAxes(dim, axis)
		b     = edge >> 1
		a     = (edge & 1) ^ b
	)
	bits[trans[0]] = a
	if dim == 3 {
		bits[trans[1]] = b
	}
	start = cornerIndex(bits)
	bits[axis] = 1
	end = cornerIndex(bits)
	return
}

func gradingIndex(dim, axis, edge int) int { return edgesPerAxis(dim)*axis + edge }
