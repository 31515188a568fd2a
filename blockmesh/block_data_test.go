package blockmesh

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/blockmesh/mesh"
	"github.com/notargets/blockmesh/types"
)

func TestBlockData_Validate(t *testing.T) {
	require.NoError(t, channel3D(t).Validate())
	tests := []struct {
		name   string
		modify func(bd *BlockData)
		field  string
	}{
		{"dimension", func(bd *BlockData) { bd.Dimension = 4 }, "dimension"},
		{"no points", func(bd *BlockData) { bd.Points = nil }, "points"},
		{"short point", func(bd *BlockData) { bd.Points[3] = []float64{1, 2} }, "points"},
		{"nan point", func(bd *BlockData) { bd.Points[0][1] = math.NaN() }, "points"},
		{"no blocks", func(bd *BlockData) {
			bd.BlockPoints, bd.BlockSubdivisions, bd.BlockGradings = nil, nil, nil
		}, "blocks"},
		{"missing subdivisions", func(bd *BlockData) { bd.BlockSubdivisions = bd.BlockSubdivisions[:3] }, "block_subdivisions"},
		{"missing gradings", func(bd *BlockData) { bd.BlockGradings = bd.BlockGradings[:3] }, "block_gradings"},
		{"corner count", func(bd *BlockData) { bd.BlockPoints[1] = bd.BlockPoints[1][:7] }, "blocks"},
		{"corner out of range", func(bd *BlockData) { bd.BlockPoints[2][5] = 18 }, "blocks"},
		{"segment count", func(bd *BlockData) { bd.BlockSubdivisions[0] = []int{1, 1} }, "block_subdivisions"},
		{"zero segments", func(bd *BlockData) { bd.BlockSubdivisions[3][2] = 0 }, "block_subdivisions"},
		{"grading count", func(bd *BlockData) { bd.BlockGradings[0] = []float64{1, 1, 1} }, "block_gradings"},
		{"zero grading", func(bd *BlockData) { bd.BlockGradings[1][7] = 0 }, "block_gradings"},
		{"infinite grading", func(bd *BlockData) { bd.BlockGradings[1][0] = math.Inf(1) }, "block_gradings"},
		{"patch point lists", func(bd *BlockData) { bd.PatchPoints = bd.PatchPoints[:2] }, "patch_points"},
		{"patch types", func(bd *BlockData) { bd.PatchTypes = bd.PatchTypes[:1] }, "patch_types"},
		{"default name", func(bd *BlockData) { bd.PatchNames[0] = DefaultPatch }, "patch_names"},
		{"volume name", func(bd *BlockData) { bd.PatchNames[1] = VolumeRegion }, "patch_names"},
		{"blocks name", func(bd *BlockData) { bd.PatchNames[1] = BlocksRegion }, "patch_names"},
		{"duplicate name", func(bd *BlockData) { bd.PatchNames[2] = bd.PatchNames[0] }, "patch_names"},
		{"partial face", func(bd *BlockData) { bd.PatchPoints[0] = bd.PatchPoints[0][:6] }, "patch_points"},
		{"patch point out of range", func(bd *BlockData) { bd.PatchPoints[1][0] = -1 }, "patch_points"},
		{"distribution total", func(bd *BlockData) { bd.BlockDistribution = []int{0, 2, 3} }, "block_distribution"},
		{"distribution start", func(bd *BlockData) { bd.BlockDistribution = []int{1, 4} }, "block_distribution"},
		{"distribution order", func(bd *BlockData) { bd.BlockDistribution = []int{0, 3, 2, 4} }, "block_distribution"},
		{"negative scale", func(bd *BlockData) { bd.Scale = -1 }, "scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := channel3D(t)
			tt.modify(bd)
			err := bd.Validate()
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field, err.Error())
		})
	}
	// A valid distribution may leave ranks empty
	bd := channel3D(t)
	bd.BlockDistribution = []int{0, 2, 2, 4}
	assert.NoError(t, bd.Validate())
}

func TestBlockData_AddBlock(t *testing.T) {
	bd := NewBlockData(3)
	bd.Points = unitCubeCorners()
	b, err := bd.AddBlock([]int{0, 1, 2, 3, 4, 5, 6, 7}, []int{2, 3, 4}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, b)
	assert.Equal(t, []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}, bd.BlockGradings[0])
	assert.Equal(t, 24, bd.NumElements())
	assert.Equal(t, 24, bd.BlockElements(0))

	// A rejected block leaves the description unchanged
	b, err = bd.AddBlock([]int{0, 1, 2}, []int{1, 1, 1}, []float64{1, 1, 1})
	assert.Error(t, err)
	assert.Equal(t, -1, b)
	assert.Equal(t, 1, bd.NumBlocks())
	assert.Len(t, bd.BlockSubdivisions, 1)
	assert.Len(t, bd.BlockGradings, 1)

	assert.Equal(t, []float64{2, 2, 3, 3}, ExpandSimpleGrading(2, []float64{2, 3}))
	assert.Equal(t, 1., bd.GetScale())
	bd.Scale = 0.001
	assert.Equal(t, 0.001, bd.GetScale())
}

func TestBlockData_Patches(t *testing.T) {
	bd := singleHex(t, unitCubeCorners(), []int{1, 1, 1}, 1)
	assert.Equal(t, []int{3, 0, 4, 7}, bd.FacePoints(FaceRef{0, XNeg}))
	assert.Equal(t, []int{4, 5, 6, 7}, bd.FacePoints(FaceRef{0, ZPos}))

	require.NoError(t, bd.AddPatch("Wall-left", types.PatchWall, []FaceRef{{0, XNeg}}))
	var cfgErr *ConfigError
	for _, err := range []error{
		bd.AddPatch("", types.PatchWall, []FaceRef{{0, XPos}}),
		bd.AddPatch("Wall-left", types.PatchWall, []FaceRef{{0, XPos}}),
		bd.AddPatch("right", types.PatchWall, []FaceRef{{1, XPos}}),
		bd.AddPatch("right", types.PatchWall, []FaceRef{{0, Face(6)}}),
	} {
		assert.True(t, errors.As(err, &cfgErr), "got %v", err)
	}
	assert.Equal(t, []string{"Wall-left"}, bd.PatchNames)

	// Untyped patches are typed from their name
	bd.PatchTypes = nil
	assert.Equal(t, types.PatchWall, bd.PatchType(0))

	q := quadStack(t, []int{1, 1})
	err := q.AddPatch("top", types.PatchWall, []FaceRef{{1, ZNeg}})
	assert.True(t, errors.As(err, &cfgErr), "z faces do not exist in 2D")
	require.NoError(t, q.AddPatch("top", types.PatchWall, []FaceRef{{1, YPos}}))
	assert.Equal(t, []int{5, 4}, q.PatchPoints[0])
}

func TestBlockData_DefaultPatch(t *testing.T) {
	bd := channel3D(t)
	defaults, err := bd.DefaultPatchFaces()
	require.NoError(t, err)
	assert.Equal(t, []FaceRef{
		{0, ZNeg}, {0, ZPos},
		{1, ZNeg}, {1, ZPos},
		{2, YPos}, {2, ZNeg}, {2, ZPos},
		{3, YPos}, {3, ZNeg}, {3, ZPos},
	}, defaults)

	require.NoError(t, bd.AddPatchFromDefault("top", types.PatchWall, []int{4, 7}))
	assert.Equal(t, "top", bd.PatchNames[3])
	topo, err := NewTopology(bd)
	require.NoError(t, err)
	assert.Equal(t, []FaceRef{{2, YPos}, {3, YPos}}, topo.Patches[3].Faces)
	defaults, err = bd.DefaultPatchFaces()
	require.NoError(t, err)
	assert.Len(t, defaults, 8)

	var cfgErr *ConfigError
	err = bd.AddPatchFromDefault("front", types.PatchSymmetryPlane, []int{8})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "patch_points", cfgErr.Field)
}

func TestBlockData_CloneEqual(t *testing.T) {
	bd := channel3D(t)
	c := bd.Clone()
	assert.True(t, bd.Equal(c, 0))
	c.Points[4][0] += 1e-3
	assert.False(t, bd.Equal(c, 1e-6))
	assert.True(t, bd.Equal(c, 1e-2))
	assert.Equal(t, 1., bd.Points[4][0])

	c = bd.Clone()
	c.BlockSubdivisions[2][0] = 7
	assert.False(t, bd.Equal(c, 1e-6))
	assert.Equal(t, 3, bd.BlockSubdivisions[2][0])

	c = bd.Clone()
	c.PatchTypes[0] = types.PatchOutlet
	assert.False(t, bd.Equal(c, 1e-6))

	c = bd.Clone()
	c.BlockDistribution = []int{0, 4}
	assert.False(t, bd.Equal(c, 1e-6))
}

func TestCreateBlockMesh(t *testing.T) {
	m, err := CreateBlockMesh(channel3D(t))
	require.NoError(t, err)
	assert.Equal(t, 18, m.NumNodes())
	counts := make(map[string]int)
	for _, r := range m.Regions {
		counts[r.Name] = r.NumElements()
	}
	assert.Equal(t, map[string]int{
		BlocksRegion: 4, "inlet": 2, "outlet": 2, "bottom": 2, DefaultPatch: 10,
	}, counts)
	assert.Equal(t, mesh.Hex, m.Region(BlocksRegion).Type)
	assert.Equal(t, mesh.Quad, m.Region(DefaultPatch).Type)
	assert.Equal(t, 4, m.NumElements(3))
}

func TestFaces(t *testing.T) {
	for s, f := range map[string]Face{"x-": XNeg, "XPos": XPos, " zneg ": ZNeg, "y+": YPos, "Y-": YNeg, "z+": ZPos} {
		got, err := ParseFace(s)
		require.NoError(t, err, s)
		assert.Equal(t, f, got, s)
	}
	_, err := ParseFace("w+")
	assert.Error(t, err)

	assert.Equal(t, "y+", YPos.String())
	assert.Equal(t, "Face(9)", Face(9).String())
	assert.Equal(t, ZPos, ZNeg.Opposite())
	assert.Equal(t, YNeg, YPos.Opposite())
	assert.Equal(t, 2, ZPos.Axis())
	assert.True(t, XPos.IsPositive())
	assert.Equal(t, YPos, FaceOf(1, true))

	for f := XNeg; f <= ZPos; f++ {
		assert.Equal(t, f, logicalFace(3, elementFace(3, f)))
		// Every corner of a face sits on the face's side of its axis
		for _, c := range faceCorners(3, f) {
			want := 0
			if f.IsPositive() {
				want = 1
			}
			assert.Equal(t, want, cornerBits[c][f.Axis()], "face %s corner %d", f, c)
		}
	}
	for f := XNeg; f <= YPos; f++ {
		assert.Equal(t, f, logicalFace(2, elementFace(2, f)))
	}
	for c, bits := range cornerBits {
		assert.Equal(t, c, cornerIndex(bits))
	}
}

func TestEdgeCorners(t *testing.T) {
	expected := map[[2]int][2]int{
		{0, 0}: {0, 1}, {0, 1}: {3, 2}, {0, 2}: {7, 6}, {0, 3}: {4, 5},
		{1, 0}: {0, 3}, {1, 1}: {1, 2}, {1, 2}: {5, 6}, {1, 3}: {4, 7},
		{2, 0}: {0, 4}, {2, 1}: {1, 5}, {2, 2}: {2, 6}, {2, 3}: {3, 7},
	}
	for ae, se := range expected {
		s, e := edgeCorners(3, ae[0], ae[1])
		assert.Equal(t, se, [2]int{s, e}, "axis %d edge %d", ae[0], ae[1])
	}
	s, e := edgeCorners(2, 0, 1)
	assert.Equal(t, [2]int{3, 2}, [2]int{s, e})
	s, e = edgeCorners(2, 1, 1)
	assert.Equal(t, [2]int{1, 2}, [2]int{s, e})
	assert.Equal(t, 9, gradingIndex(3, 2, 1))
	assert.Equal(t, 3, gradingIndex(2, 1, 1))
}
