package blockmesh

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/notargets/blockmesh/mesh"
	"github.com/notargets/blockmesh/utils"
)

// Name of the region holding the volume elements of the generated mesh
const VolumeRegion = "volume"

// OverlapGrower adds layers of ghost elements to an assembled mesh
type OverlapGrower interface {
	GrowOverlap(comm utils.Communicator, m *mesh.Mesh, layers int) error
}

type Options struct {
	Overlap int           // Layers of ghost elements to add after assembly
	Grower  OverlapGrower // Required when Overlap is requested on more than one rank
}

// Assembly is one rank's share of a generated mesh
type Assembly struct {
	Rank     int
	Mesh     *mesh.Mesh
	Ghosts   *GhostMap          // Ghost node ids for the exchange of shared node values
	Blocks   utils.Distribution // Blocks owned by each rank
	Nodes    utils.Distribution // Global node ids owned by each rank
	Elements utils.Distribution // Global element ids owned by each rank
}

/*
BuildMesh generates this rank's part of the refined mesh. Every rank must
call it with the same block description: the block distribution is taken
from rank 0 and element ids are numbered with an all-gather of the element
counts.
*/
func BuildMesh(comm utils.Communicator, bd *BlockData, opts Options) (a *Assembly, err error) {
	var (
		start = time.Now()
		size  = comm.Size()
		dist  = bd.BlockDistribution
		topo  *Topology
	)
	if err = bd.Validate(); err != nil {
		return
	}
	if opts.Overlap < 0 {
		return nil, configErrorf("overlap", "overlap %d must not be negative", opts.Overlap)
	}
	if len(dist) == 0 {
		if size != 1 {
			return nil, configErrorf("block_distribution", "no block distribution for %d ranks. Did you parallelize the blocks?", size)
		}
		dist = []int{0, bd.NumBlocks()}
	}
	if dist, err = comm.Broadcast(0, dist); err != nil {
		return
	}
	if len(dist) != size+1 {
		return nil, configErrorf("block_distribution", "has %d entries for %d ranks, need %d. Did you parallelize the blocks?",
			len(dist), size, size+1)
	}
	if topo, err = NewTopology(bd); err != nil {
		return
	}
	ni := NewNodeIndices(bd, topo)
	a = &Assembly{
		Rank:   comm.Rank(),
		Mesh:   mesh.NewMesh(bd.Dimension),
		Blocks: utils.Distribution(dist),
	}
	a.Nodes = ni.NodeDistribution(a.Blocks)
	a.Ghosts = NewGhostMap(a.Nodes.Range(a.Rank))

	if err = a.buildVolume(bd, ni); err != nil {
		return nil, err
	}
	if err = a.buildPatches(bd, topo, ni); err != nil {
		return nil, err
	}
	if err = a.buildCoordinates(bd, ni); err != nil {
		return nil, err
	}
	a.setNodeOwnership()
	if err = a.numberElements(comm); err != nil {
		return nil, err
	}
	if opts.Overlap != 0 && size > 1 {
		if opts.Grower == nil {
			return nil, configErrorf("overlap", "%d overlap layers requested on %d ranks without an overlap grower",
				opts.Overlap, size)
		}
		if err = opts.Grower.GrowOverlap(comm, a.Mesh, opts.Overlap); err != nil {
			return nil, err
		}
	}
	bBegin, bEnd := a.Blocks.Range(a.Rank)
	log.WithFields(log.Fields{
		"rank":     a.Rank,
		"blocks":   bEnd - bBegin,
		"nodes":    a.Ghosts.NumOwned(),
		"ghosts":   len(a.Ghosts.Ghosts),
		"elements": a.Mesh.NumElements(bd.Dimension),
		"elapsed":  time.Since(start),
	}).Debug("assembled block mesh")
	return
}

func (a *Assembly) buildVolume(bd *BlockData, ni *NodeIndices) (err error) {
	var (
		vol          *mesh.Region
		nElems       int
		bBegin, bEnd = a.Blocks.Range(a.Rank)
	)
	if vol, err = a.Mesh.CreateRegion(VolumeRegion, mesh.VolumeType(bd.Dimension)); err != nil {
		return
	}
	for b := bBegin; b < bEnd; b++ {
		nElems += bd.BlockElements(b)
	}
	vol.CreateElements(nElems)
	e := 0
	for b := bBegin; b < bEnd; b++ {
		s := ni.segments[b]
		for k := 0; k < s[2]; k++ {
			for j := 0; j < s[1]; j++ {
				for i := 0; i < s[0]; i++ {
					conn := vol.Connectivity[e]
					for c := range conn {
						bits := cornerBits[c]
						if conn[c], err = ni.LocalIdx(a.Ghosts, b, i+bits[0], j+bits[1], k+bits[2]); err != nil {
							return
						}
					}
					e++
				}
			}
		}
	}
	return
}

/*
buildPatches creates one boundary region per patch on every rank and fills
it with the faces of locally owned blocks. Each block face is split into
its structured faces, the last transverse axis varying slowest, with the
corner order of the coarse block face so normals point out of the domain.
*/
func (a *Assembly) buildPatches(bd *BlockData, topo *Topology, ni *NodeIndices) (err error) {
	var (
		dim          = bd.Dimension
		bBegin, bEnd = a.Blocks.Range(a.Rank)
	)
	for _, p := range topo.Patches {
		var r *mesh.Region
		if r, err = a.Mesh.CreateRegion(p.Name, mesh.FaceType(dim)); err != nil {
			return
		}
		for _, f := range p.Faces {
			if f.Block < bBegin || f.Block >= bEnd {
				continue
			}
			var (
				s       = ni.segments[f.Block]
				axis    = f.Face.Axis()
				trans   = transverseAxes(dim, axis)
				corners = faceCorners(dim, f.Face)
				nu, nv  = s[trans[0]], 1
				idx     [3]int
			)
			if dim == 3 {
				nv = s[trans[1]]
			}
			if f.Face.IsPositive() {
				idx[axis] = s[axis]
			}
			first := r.CreateElements(nu * nv)
			for v := 0; v < nv; v++ {
				for u := 0; u < nu; u++ {
					conn := r.Connectivity[first+v*nu+u]
					for n, c := range corners {
						node := idx
						node[trans[0]] = u + cornerBits[c][trans[0]]
						if dim == 3 {
							node[trans[1]] = v + cornerBits[c][trans[1]]
						}
						if conn[n], err = ni.LocalIdx(a.Ghosts, f.Block, node[0], node[1], node[2]); err != nil {
							return
						}
					}
				}
			}
		}
	}
	return
}

// buildCoordinates places every structured node of the owned blocks, ghost
// nodes included
func (a *Assembly) buildCoordinates(bd *BlockData, ni *NodeIndices) (err error) {
	var (
		nLocal       = a.Ghosts.NumLocal()
		scale        = bd.GetScale()
		bBegin, bEnd = a.Blocks.Range(a.Rank)
		kMax         int
	)
	a.Mesh.ResizeNodes(nLocal)
	for b := bBegin; b < bEnd; b++ {
		var bm *BlockMapping
		if bm, err = NewBlockMapping(bd, b); err != nil {
			return
		}
		s := ni.segments[b]
		if kMax = s[2]; bd.Dimension == 2 {
			kMax = 0
		}
		for k := 0; k <= kMax; k++ {
			for j := 0; j <= s[1]; j++ {
				for i := 0; i <= s[0]; i++ {
					var lid int
					if lid, err = ni.LocalIdx(a.Ghosts, b, i, j, k); err != nil {
						return
					}
					if lid >= nLocal {
						return topologyErrorf("node (%d,%d,%d) of block %d is not referenced by any element", i, j, k, b)
					}
					x := a.Mesh.Coordinates[lid]
					if err = bm.Coordinates(i, j, k, x); err != nil {
						return
					}
					for d := range x {
						x[d] *= scale
					}
				}
			}
		}
	}
	return
}

// setNodeOwnership stores global ids and owning ranks, a ghost is owned by
// the rank whose node range contains its global id
func (a *Assembly) setNodeOwnership() {
	m := a.Mesh
	for lid := range m.GlobalIDs {
		m.GlobalIDs[lid] = a.Ghosts.GlobalID(lid)
		if a.Ghosts.IsGhost(lid) {
			m.Ranks[lid] = a.Nodes.Owner(m.GlobalIDs[lid])
		} else {
			m.Ranks[lid] = a.Rank
		}
	}
}

// numberElements gives the elements of all regions contiguous global ids,
// each rank's range starting at the exclusive prefix sum of the element
// counts of lower ranks
func (a *Assembly) numberElements(comm utils.Communicator) (err error) {
	var (
		nLocal int
		counts []int
	)
	for _, r := range a.Mesh.Regions {
		nLocal += r.NumElements()
	}
	if counts, err = comm.AllGather(nLocal); err != nil {
		return
	}
	a.Elements = utils.NewDistribution(counts)
	id := a.Elements[a.Rank]
	for _, r := range a.Mesh.Regions {
		for e := range r.GlobalIDs {
			r.GlobalIDs[e] = id
			r.Ranks[e] = a.Rank
			id++
		}
	}
	return
}
