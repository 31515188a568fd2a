package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/blockmesh/blockmesh"
	"github.com/notargets/blockmesh/types"
)

var lineInput = `
########################################
Title: "Two blocks in a line"
Dimension: 3
Points:
  - [0, 0, 0]
  - [0, 1, 0]
  - [0, 1, 1]
  - [0, 0, 1]
  - [1, 0, 0]
  - [1, 1, 0]
  - [1, 1, 1]
  - [1, 0, 1]
  - [3, 0, 0]
  - [3, 1, 0]
  - [3, 1, 1]
  - [3, 0, 1]
Blocks:
  - Corners: [0, 4, 5, 1, 3, 7, 6, 2]
    Segments: [2, 2, 2]
  - Corners: [4, 8, 9, 5, 7, 11, 10, 6]
    Segments: [4, 2, 2]
    Grading: [2, 1, 1]
Patches:
  - Name: inlet
    Faces:
      - {Block: 0, Face: x-}
  - Name: Wall-top
    Faces:
      - {Block: 0, Face: y+}
      - {Block: 1, Face: Y+}
  - Name: outlet
    Type: outlet
    Points: [8, 9, 10, 11]
  - Name: sides
    Type: symmetryPlane
    DefaultFaces: [1, 2, 4, 5]
########################################
`

func TestBlockMeshInput_Parse(t *testing.T) {
	ip := &BlockMeshInput{}
	require.NoError(t, ip.Parse([]byte(lineInput)))
	assert.Equal(t, "Two blocks in a line", ip.Title)
	assert.Len(t, ip.Points, 12)
	require.Len(t, ip.Blocks, 2)
	assert.Empty(t, ip.Blocks[0].Grading)
	assert.Equal(t, []float64{2, 1, 1}, ip.Blocks[1].Grading)
	require.Len(t, ip.Patches, 4)
	assert.Equal(t, FaceInput{Block: 1, Face: "Y+"}, ip.Patches[1].Faces[1])

	bd, err := ip.ToBlockData()
	require.NoError(t, err)
	assert.Equal(t, 2, bd.NumBlocks())
	assert.Equal(t, 8+16, bd.NumElements())
	assert.Equal(t, blockmesh.ExpandSimpleGrading(3, []float64{1, 1, 1}), bd.BlockGradings[0])
	assert.Equal(t, blockmesh.ExpandSimpleGrading(3, []float64{2, 1, 1}), bd.BlockGradings[1])
	assert.Equal(t, []string{"inlet", "Wall-top", "outlet", "sides"}, bd.PatchNames)
	assert.Equal(t, []types.PatchType{types.PatchInlet, types.PatchWall, types.PatchOutlet, types.PatchSymmetryPlane},
		bd.PatchTypes)
	assert.Equal(t, []int{1, 0, 3, 2}, bd.PatchPoints[0])

	topo, err := blockmesh.NewTopology(bd)
	require.NoError(t, err)
	require.Len(t, topo.Patches, 5)
	assert.Equal(t, []blockmesh.FaceRef{{Block: 0, Face: blockmesh.ZNeg}, {Block: 0, Face: blockmesh.ZPos},
		{Block: 1, Face: blockmesh.ZNeg}, {Block: 1, Face: blockmesh.ZPos}}, topo.Patches[3].Faces)
	assert.Equal(t, blockmesh.DefaultPatch, topo.Patches[4].Name)
	assert.Equal(t, []blockmesh.FaceRef{{Block: 0, Face: blockmesh.YNeg}, {Block: 1, Face: blockmesh.YNeg}},
		topo.Patches[4].Faces)
}

func TestBlockMeshInput_FromBlockData(t *testing.T) {
	ip := &BlockMeshInput{}
	require.NoError(t, ip.Parse([]byte(lineInput)))
	bd, err := ip.ToBlockData()
	require.NoError(t, err)
	bd.BlockDistribution = []int{0, 1, 2}
	bd.Scale = 0.25

	out := FromBlockData("partitioned", bd)
	assert.Equal(t, []float64{2, 1, 1}, out.Blocks[1].Grading)
	assert.Equal(t, "symmetryPlane", out.Patches[3].Type)
	data, err := out.Marshal()
	require.NoError(t, err)

	back := &BlockMeshInput{}
	require.NoError(t, back.Parse(data))
	assert.Equal(t, "partitioned", back.Title)
	bd2, err := back.ToBlockData()
	require.NoError(t, err)
	assert.True(t, bd.Equal(bd2, 0))

	// Gradings that differ between edges of an axis are kept per edge
	bd.BlockGradings[0][2] = 3
	out = FromBlockData("graded", bd)
	assert.Len(t, out.Blocks[0].Grading, 12)
	assert.Len(t, out.Blocks[1].Grading, 3)
}

func TestBlockMeshInput_Errors(t *testing.T) {
	parse := func(modify func(ip *BlockMeshInput)) error {
		ip := &BlockMeshInput{}
		require.NoError(t, ip.Parse([]byte(lineInput)))
		modify(ip)
		_, err := ip.ToBlockData()
		return err
	}
	err := parse(func(ip *BlockMeshInput) { ip.Patches[0].Faces[0].Face = "w+" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inlet")

	err = parse(func(ip *BlockMeshInput) { ip.Patches[2].Type = "bogus" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")

	err = parse(func(ip *BlockMeshInput) { ip.Patches[2].DefaultFaces = []int{0} })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	var cfgErr *blockmesh.ConfigError
	err = parse(func(ip *BlockMeshInput) { ip.Blocks[1].Grading = []float64{1, 2, 3, 4, 5} })
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "block_gradings", cfgErr.Field)

	err = parse(func(ip *BlockMeshInput) { ip.Patches[3].DefaultFaces = []int{7} })
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "patch_points", cfgErr.Field)

	err = parse(func(ip *BlockMeshInput) { ip.BlockDistribution = []int{0, 1} })
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "block_distribution", cfgErr.Field)
}
