package blockmesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/blockmesh/mesh"
	"github.com/notargets/blockmesh/types"
	"github.com/notargets/blockmesh/utils"
)

const (
	// Name of the coarse mesh region holding one element per block
	BlocksRegion = "blocks"
	// Name of the patch collecting boundary faces claimed by no other patch
	DefaultPatch = "default"
)

/*
BlockData is the compact block description a mesh is generated from.
Corner numbering follows the element conventions of package mesh: corners
0-3 go around the z=0 face starting at the origin and 4-7 repeat them at
z=1. Gradings hold one ratio per block edge, grouped by axis, with the edges
of an axis ordered as described for edgeCorners. Each patch lists the
corner points of its faces, 2^(Dimension-1) points per face.
*/
type BlockData struct {
	Dimension         int
	Scale             float64 // Applied to generated coordinates, 0 means 1
	Points            [][]float64
	BlockPoints       [][]int
	BlockSubdivisions [][]int
	BlockGradings     [][]float64
	PatchNames        []string
	PatchTypes        []types.PatchType
	PatchPoints       [][]int
	BlockDistribution []int
}

// FaceRef is one logical face of one block
type FaceRef struct {
	Block int
	Face  Face
}

func (f FaceRef) String() string { return fmt.Sprintf("block %d face %s", f.Block, f.Face) }

func NewBlockData(dim int) *BlockData {
	return &BlockData{Dimension: dim}
}

func (bd *BlockData) NumBlocks() int { return len(bd.BlockPoints) }

// NumElements is the total number of volume elements of all blocks
func (bd *BlockData) NumElements() (n int) {
	for b := range bd.BlockSubdivisions {
		n += bd.BlockElements(b)
	}
	return
}

func (bd *BlockData) BlockElements(block int) int {
	n := 1
	for _, s := range bd.BlockSubdivisions[block] {
		n *= s
	}
	return n
}

func (bd *BlockData) GetScale() float64 {
	if bd.Scale == 0 {
		return 1
	}
	return bd.Scale
}

// AddBlock appends a block, gradings may hold one value per axis
func (bd *BlockData) AddBlock(corners, segments []int, gradings []float64) (block int, err error) {
	if len(gradings) == bd.Dimension {
		gradings = ExpandSimpleGrading(bd.Dimension, gradings)
	}
	block = len(bd.BlockPoints)
	bd.BlockPoints = append(bd.BlockPoints, append([]int(nil), corners...))
	bd.BlockSubdivisions = append(bd.BlockSubdivisions, append([]int(nil), segments...))
	bd.BlockGradings = append(bd.BlockGradings, append([]float64(nil), gradings...))
	if err = bd.validateBlock(block); err != nil {
		bd.BlockPoints = bd.BlockPoints[:block]
		bd.BlockSubdivisions = bd.BlockSubdivisions[:block]
		bd.BlockGradings = bd.BlockGradings[:block]
		block = -1
	}
	return
}

// ExpandSimpleGrading repeats one grading per axis over all edges of the axis
func ExpandSimpleGrading(dim int, perAxis []float64) (gradings []float64) {
	ne := edgesPerAxis(dim)
	gradings = make([]float64, 0, dim*ne)
	for d := 0; d < dim; d++ {
		for e := 0; e < ne; e++ {
			gradings = append(gradings, perAxis[d])
		}
	}
	return
}

// FacePoints returns the corner points of a block face, ordered with the
// normal pointing out of the block
func (bd *BlockData) FacePoints(f FaceRef) (pts []int) {
	for _, c := range faceCorners(bd.Dimension, f.Face) {
		pts = append(pts, bd.BlockPoints[f.Block][c])
	}
	return
}

// AddPatch appends a named patch made of block faces
func (bd *BlockData) AddPatch(name string, pt types.PatchType, faces []FaceRef) error {
	if name == "" {
		return configErrorf("patch_names", "patch names must not be empty")
	}
	for _, existing := range bd.PatchNames {
		if existing == name {
			return configErrorf("patch_names", "patch %q defined twice", name)
		}
	}
	var pts []int
	for _, f := range faces {
		if f.Block < 0 || f.Block >= bd.NumBlocks() {
			return configErrorf("patch_points", "patch %q: block %d out of range", name, f.Block)
		}
		if f.Face < XNeg || int(f.Face) >= NumFaces(bd.Dimension) {
			return configErrorf("patch_points", "patch %q: %v is not a face of a %dD block", name, f.Face, bd.Dimension)
		}
		pts = append(pts, bd.FacePoints(f)...)
	}
	bd.PatchNames = append(bd.PatchNames, name)
	bd.PatchTypes = append(bd.PatchTypes, pt)
	bd.PatchPoints = append(bd.PatchPoints, pts)
	return nil
}

// DefaultPatchFaces lists the boundary faces not claimed by any patch, in
// block order and face order within a block
func (bd *BlockData) DefaultPatchFaces() (faces []FaceRef, err error) {
	var topo *Topology
	if topo, err = NewTopology(bd); err != nil {
		return
	}
	for _, p := range topo.Patches {
		if p.Name == DefaultPatch {
			faces = append(faces, p.Faces...)
		}
	}
	return
}

// AddPatchFromDefault appends a patch made of entries of DefaultPatchFaces
func (bd *BlockData) AddPatchFromDefault(name string, pt types.PatchType, indices []int) (err error) {
	var (
		defaults []FaceRef
		faces    []FaceRef
	)
	if defaults, err = bd.DefaultPatchFaces(); err != nil {
		return
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(defaults) {
			return configErrorf("patch_points", "patch %q: default face %d out of range [0,%d)", name, idx, len(defaults))
		}
		faces = append(faces, defaults[idx])
	}
	return bd.AddPatch(name, pt, faces)
}

// Validate checks the description is complete and consistent
func (bd *BlockData) Validate() (err error) {
	if bd.Dimension != 2 && bd.Dimension != 3 {
		return configErrorf("dimension", "only 2D and 3D meshes are supported, requested dimension was %d", bd.Dimension)
	}
	if len(bd.Points) == 0 {
		return configErrorf("points", "no points defined")
	}
	for i, p := range bd.Points {
		if len(p) < bd.Dimension {
			return configErrorf("points", "point %d has %d coordinates, need %d", i, len(p), bd.Dimension)
		}
		for _, x := range p[:bd.Dimension] {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return configErrorf("points", "point %d is not finite: %v", i, p)
			}
		}
	}
	if len(bd.BlockPoints) == 0 {
		return configErrorf("blocks", "no blocks defined")
	}
	if len(bd.BlockSubdivisions) != len(bd.BlockPoints) {
		return configErrorf("block_subdivisions", "have %d entries for %d blocks", len(bd.BlockSubdivisions), len(bd.BlockPoints))
	}
	if len(bd.BlockGradings) != len(bd.BlockPoints) {
		return configErrorf("block_gradings", "have %d entries for %d blocks", len(bd.BlockGradings), len(bd.BlockPoints))
	}
	for b := range bd.BlockPoints {
		if err = bd.validateBlock(b); err != nil {
			return
		}
	}
	if len(bd.PatchPoints) != len(bd.PatchNames) {
		return configErrorf("patch_points", "have %d point lists for %d patch names", len(bd.PatchPoints), len(bd.PatchNames))
	}
	if len(bd.PatchTypes) != 0 && len(bd.PatchTypes) != len(bd.PatchNames) {
		return configErrorf("patch_types", "have %d types for %d patch names", len(bd.PatchTypes), len(bd.PatchNames))
	}
	stride := NumCorners(bd.Dimension - 1)
	names := make(map[string]bool)
	for p, name := range bd.PatchNames {
		if name == "" || name == DefaultPatch || name == BlocksRegion || name == VolumeRegion || names[name] {
			return configErrorf("patch_names", "patch name %q is empty, reserved or duplicated", name)
		}
		names[name] = true
		if len(bd.PatchPoints[p])%stride != 0 {
			return configErrorf("patch_points", "patch %q has %d points, not a multiple of %d", name, len(bd.PatchPoints[p]), stride)
		}
		for _, pt := range bd.PatchPoints[p] {
			if pt < 0 || pt >= len(bd.Points) {
				return configErrorf("patch_points", "patch %q references point %d, have %d points", name, pt, len(bd.Points))
			}
		}
	}
	if len(bd.BlockDistribution) != 0 {
		dist := utils.Distribution(bd.BlockDistribution)
		if err = dist.Validate(); err != nil {
			return configErrorf("block_distribution", "%v", err)
		}
		if dist.Total() != bd.NumBlocks() {
			return configErrorf("block_distribution", "ends at %d, have %d blocks", dist.Total(), bd.NumBlocks())
		}
	}
	if bd.Scale < 0 || math.IsNaN(bd.Scale) || math.IsInf(bd.Scale, 0) {
		return configErrorf("scale", "scale %v must be positive", bd.Scale)
	}
	return
}

func (bd *BlockData) validateBlock(b int) error {
	var (
		dim = bd.Dimension
		nc  = NumCorners(dim)
	)
	if len(bd.BlockPoints[b]) != nc {
		return configErrorf("blocks", "block %d has %d corners, need %d", b, len(bd.BlockPoints[b]), nc)
	}
	for _, p := range bd.BlockPoints[b] {
		if p < 0 || p >= len(bd.Points) {
			return configErrorf("blocks", "block %d references point %d, have %d points", b, p, len(bd.Points))
		}
	}
	if len(bd.BlockSubdivisions[b]) != dim {
		return configErrorf("block_subdivisions", "block %d has %d segment counts, need %d", b, len(bd.BlockSubdivisions[b]), dim)
	}
	for _, s := range bd.BlockSubdivisions[b] {
		if s < 1 {
			return configErrorf("block_subdivisions", "block %d has segment count %d, must be at least 1", b, s)
		}
	}
	if len(bd.BlockGradings[b]) != dim*edgesPerAxis(dim) {
		return configErrorf("block_gradings", "block %d has %d gradings, need %d", b, len(bd.BlockGradings[b]), dim*edgesPerAxis(dim))
	}
	for _, g := range bd.BlockGradings[b] {
		if !(g > 0) || math.IsInf(g, 0) {
			return configErrorf("block_gradings", "block %d has grading %v, must be positive and finite", b, g)
		}
	}
	return nil
}

// Clone returns a deep copy
func (bd *BlockData) Clone() *BlockData {
	out := &BlockData{
		Dimension:         bd.Dimension,
		Scale:             bd.Scale,
		Points:            make([][]float64, len(bd.Points)),
		BlockPoints:       cloneInts(bd.BlockPoints),
		BlockSubdivisions: cloneInts(bd.BlockSubdivisions),
		BlockGradings:     make([][]float64, len(bd.BlockGradings)),
		PatchNames:        append([]string(nil), bd.PatchNames...),
		PatchTypes:        append([]types.PatchType(nil), bd.PatchTypes...),
		PatchPoints:       cloneInts(bd.PatchPoints),
		BlockDistribution: append([]int(nil), bd.BlockDistribution...),
	}
	for i, p := range bd.Points {
		out.Points[i] = append([]float64(nil), p...)
	}
	for i, g := range bd.BlockGradings {
		out.BlockGradings[i] = append([]float64(nil), g...)
	}
	return out
}

func cloneInts(in [][]int) (out [][]int) {
	out = make([][]int, len(in))
	for i, row := range in {
		out[i] = append([]int(nil), row...)
	}
	return
}

// Equal compares two descriptions, coordinates and gradings within tol
func (bd *BlockData) Equal(other *BlockData, tol float64) bool {
	if bd.Dimension != other.Dimension || bd.GetScale() != other.GetScale() ||
		len(bd.Points) != len(other.Points) || len(bd.BlockGradings) != len(other.BlockGradings) ||
		len(bd.PatchNames) != len(other.PatchNames) {
		return false
	}
	for i := range bd.Points {
		if len(bd.Points[i]) != len(other.Points[i]) || !floats.EqualApprox(bd.Points[i], other.Points[i], tol) {
			return false
		}
	}
	for i := range bd.BlockGradings {
		if len(bd.BlockGradings[i]) != len(other.BlockGradings[i]) ||
			!floats.EqualApprox(bd.BlockGradings[i], other.BlockGradings[i], tol) {
			return false
		}
	}
	for i := range bd.PatchNames {
		if bd.PatchNames[i] != other.PatchNames[i] || bd.PatchType(i) != other.PatchType(i) {
			return false
		}
	}
	return equalInts(bd.BlockPoints, other.BlockPoints) &&
		equalInts(bd.BlockSubdivisions, other.BlockSubdivisions) &&
		equalInts(bd.PatchPoints, other.PatchPoints) &&
		equalInts([][]int{bd.BlockDistribution}, [][]int{other.BlockDistribution})
}

func equalInts(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// PatchType of patch p, patches without an explicit type are typed by name
func (bd *BlockData) PatchType(p int) types.PatchType {
	if p < len(bd.PatchTypes) {
		return bd.PatchTypes[p]
	}
	return types.NewPatchTag(bd.PatchNames[p]).GetType()
}

/*
CreateBlockMesh builds the coarse mesh with one element per block in region
"blocks", one boundary region per patch and a "default" region holding
every boundary face that no patch claims.
*/
func CreateBlockMesh(bd *BlockData) (m *mesh.Mesh, err error) {
	var (
		dim    = bd.Dimension
		blocks *mesh.Region
		fc     *mesh.FaceConnectivity
	)
	if err = bd.Validate(); err != nil {
		return
	}
	m = mesh.NewMesh(dim)
	m.ResizeNodes(len(bd.Points))
	for i, p := range bd.Points {
		copy(m.Coordinates[i], p[:dim])
	}
	if blocks, err = m.CreateRegion(BlocksRegion, mesh.VolumeType(dim)); err != nil {
		return nil, err
	}
	blocks.CreateElements(bd.NumBlocks())
	for b, corners := range bd.BlockPoints {
		copy(blocks.Connectivity[b], corners)
	}
	stride := NumCorners(dim - 1)
	for p, name := range bd.PatchNames {
		var r *mesh.Region
		if r, err = m.CreateRegion(name, mesh.FaceType(dim)); err != nil {
			return nil, err
		}
		nf := len(bd.PatchPoints[p]) / stride
		r.CreateElements(nf)
		for f := 0; f < nf; f++ {
			copy(r.Connectivity[f], bd.PatchPoints[p][f*stride:(f+1)*stride])
		}
	}
	if fc, err = m.BuildFaceConnectivity(BlocksRegion); err != nil {
		return nil, configErrorf("patch_points", "%v", err)
	}
	var (
		def      *mesh.Region
		defFaces []FaceRef
	)
	for b := range bd.BlockPoints {
		for f := XNeg; int(f) < NumFaces(dim); f++ {
			if !fc.EToF[b][elementFace(dim, f)].IsValid() {
				defFaces = append(defFaces, FaceRef{b, f})
			}
		}
	}
	if def, err = m.CreateRegion(DefaultPatch, mesh.FaceType(dim)); err != nil {
		return nil, err
	}
	def.CreateElements(len(defFaces))
	for i, f := range defFaces {
		copy(def.Connectivity[i], bd.FacePoints(f))
	}
	return
}
