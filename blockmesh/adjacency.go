package blockmesh

import (
	"github.com/notargets/blockmesh/mesh"
	"github.com/notargets/blockmesh/types"
)

// Neighbor is the block across a face, Block is -1 on the domain boundary
type Neighbor struct {
	Block int
	Face  Face
}

// Patch is a named group of boundary faces
type Patch struct {
	Name  string
	Type  types.PatchType
	Faces []FaceRef
}

/*
Topology is the face adjacency of a block description. Neighbors are kept
as block indices so a rewritten block set only needs a new Topology.
*/
type Topology struct {
	Dimension int
	Neighbors [][]Neighbor // [block][face]
	Patches   []Patch      // Declared patches in order, then DefaultPatch if it has faces
	patchOf   [][]int      // [block][face] index into Patches, -1 for interior faces
}

func (t *Topology) NumBlocks() int { return len(t.Neighbors) }

// IsBounded reports whether the face lies on the domain boundary
func (t *Topology) IsBounded(block int, f Face) bool {
	return t.Neighbors[block][f].Block < 0
}

func (t *Topology) Neighbor(block int, f Face) Neighbor {
	return t.Neighbors[block][f]
}

// PatchOf returns the patch index of a boundary face, -1 for interior faces
func (t *Topology) PatchOf(block int, f Face) int {
	return t.patchOf[block][f]
}

func (t *Topology) PatchIndex(name string) int {
	for i, p := range t.Patches {
		if p.Name == name {
			return i
		}
	}
	return -1
}

/*
NewTopology derives the neighbor of every block face and files each
boundary face under its patch. Faces are matched on the coarse block mesh:
a face is on the boundary when the element across it is a patch face of one
dimension less. Blocks must meet face to face along the same axis with
matching corners and matching segment counts across the shared face.
*/
func NewTopology(bd *BlockData) (t *Topology, err error) {
	var (
		m   *mesh.Mesh
		fc  *mesh.FaceConnectivity
		dim = bd.Dimension
		nf  = NumFaces(dim)
	)
	if m, err = CreateBlockMesh(bd); err != nil {
		return
	}
	if fc, err = m.BuildFaceConnectivity(BlocksRegion); err != nil {
		return nil, configErrorf("patch_points", "%v", err)
	}
	t = &Topology{
		Dimension: dim,
		Neighbors: make([][]Neighbor, bd.NumBlocks()),
		patchOf:   make([][]int, bd.NumBlocks()),
	}
	// Regions are "blocks", the declared patches, then "default"
	var (
		nPatches   = len(bd.PatchNames)
		defPatch   = m.RegionIndex(DefaultPatch) - 1
		allPatches = make([]Patch, nPatches+1)
		claimed    = make([][]bool, nPatches)
	)
	for p, name := range bd.PatchNames {
		allPatches[p] = Patch{Name: name, Type: bd.PatchType(p)}
		claimed[p] = make([]bool, m.Regions[p+1].NumElements())
	}
	allPatches[defPatch] = Patch{Name: DefaultPatch, Type: types.PatchGeneric}

	for b := range bd.BlockPoints {
		t.Neighbors[b] = make([]Neighbor, nf)
		t.patchOf[b] = make([]int, nf)
		for f := XNeg; int(f) < nf; f++ {
			ref := fc.EToF[b][elementFace(dim, f)]
			t.patchOf[b][f] = -1
			switch {
			case !ref.IsValid():
				return nil, topologyErrorf("block %d face %s has no adjacent element", b, f)
			case fc.IsBoundary(m, b, elementFace(dim, f)):
				p := ref.Region - 1
				t.Neighbors[b][f] = Neighbor{Block: -1, Face: -1}
				t.patchOf[b][f] = p
				allPatches[p].Faces = append(allPatches[p].Faces, FaceRef{b, f})
				if p < nPatches {
					claimed[p][ref.Element] = true
				}
			default:
				nb := Neighbor{Block: ref.Element, Face: logicalFace(dim, ref.Face)}
				if err = checkNeighbor(bd, b, f, nb); err != nil {
					return nil, err
				}
				t.Neighbors[b][f] = nb
			}
		}
	}
	for p := 0; p < nPatches; p++ {
		for k, ok := range claimed[p] {
			if !ok {
				return nil, configErrorf("patch_points", "face %d of patch %q is not a boundary face of any block",
					k, bd.PatchNames[p])
			}
		}
	}
	t.Patches = allPatches[:nPatches]
	if len(allPatches[defPatch].Faces) != 0 {
		t.Patches = append(t.Patches, allPatches[defPatch])
	}
	return
}

func checkNeighbor(bd *BlockData, b int, f Face, nb Neighbor) error {
	var (
		dim  = bd.Dimension
		axis = f.Axis()
	)
	if nb.Face != f.Opposite() {
		return configErrorf("blocks", "block %d face %s meets block %d face %s, shared faces must be opposite faces of the same axis",
			b, f, nb.Block, nb.Face)
	}
	for _, c := range faceCorners(dim, f) {
		bits := cornerBits[c]
		bits[axis] ^= 1
		if bd.BlockPoints[b][c] != bd.BlockPoints[nb.Block][cornerIndex(bits)] {
			return configErrorf("blocks", "block %d face %s and block %d face %s have misaligned corners",
				b, f, nb.Block, nb.Face)
		}
	}
	for _, d := range transverseAxes(dim, axis) {
		if bd.BlockSubdivisions[b][d] != bd.BlockSubdivisions[nb.Block][d] {
			return configErrorf("block_subdivisions", "block %d has %d segments along axis %d, neighbor block %d across face %s has %d",
				b, bd.BlockSubdivisions[b][d], d, nb.Block, f, bd.BlockSubdivisions[nb.Block][d])
		}
	}
	return nil
}
