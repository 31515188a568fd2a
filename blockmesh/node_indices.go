package blockmesh

import (
	"sort"

	"github.com/notargets/blockmesh/utils"
)

// Sets of positive block sides, bit d for axis d, in the order their owned
// nodes are laid out after the interior nodes of a block
var boundedGroups = map[int][]int{
	2: {1, 2, 3},
	3: {1, 2, 4, 3, 5, 6, 7},
}

/*
NodeIndices numbers the structured nodes of all blocks globally. A block
owns the nodes with indices 0..segments-1 along each axis. Nodes on the
positive side of an axis belong to the block across that side when there is
one, otherwise the block owns them too and numbers them after its interior
nodes, grouped by the set of positive sides they lie on.

Nodes on a coarse edge or corner, with at least two indices at 0 or at the
segment count, can be owned this way by more than one block around a
re-entrant corner. Their copies are joined through the face neighbors and
only the first owner in the layout keeps the node, the other owned slots are
dropped from the numbering.
*/
type NodeIndices struct {
	Dimension   int
	FirstNodes  []int // First global node of each block, FirstNodes[nblocks] is the total
	topo        *Topology
	segments    [][3]int
	bounded     [][3]bool
	groupStart  [][8]int        // Offset of each group after the block's first node, -1 when absent
	layoutFirst []int           // FirstNodes before dropped slots are removed
	edgeNodes   map[nodeKey]int // Layout position of the owner of each coarse edge node
	dropped     []int           // Sorted layout positions of non owning copies
}

type nodeKey struct {
	block int
	idx   [3]int
}

func NewNodeIndices(bd *BlockData, topo *Topology) (ni *NodeIndices) {
	var (
		dim = bd.Dimension
		nb  = bd.NumBlocks()
	)
	ni = &NodeIndices{
		Dimension:   dim,
		FirstNodes:  make([]int, nb+1),
		topo:        topo,
		segments:    make([][3]int, nb),
		bounded:     make([][3]bool, nb),
		groupStart:  make([][8]int, nb),
		layoutFirst: make([]int, nb+1),
	}
	for b := 0; b < nb; b++ {
		s := &ni.segments[b]
		*s = [3]int{1, 1, 1}
		copy(s[:], bd.BlockSubdivisions[b])
		interior := 1
		for d := 0; d < dim; d++ {
			ni.bounded[b][d] = topo.IsBounded(b, FaceOf(d, true))
			interior *= s[d]
		}
		for m := range ni.groupStart[b] {
			ni.groupStart[b][m] = -1
		}
		nNodes := interior
		for _, mask := range boundedGroups[dim] {
			present, size := true, 1
			for d := 0; d < dim; d++ {
				if mask&(1<<d) != 0 {
					present = present && ni.bounded[b][d]
				} else {
					size *= s[d]
				}
			}
			if present {
				ni.groupStart[b][mask] = nNodes
				nNodes += size
			}
		}
		ni.layoutFirst[b+1] = ni.layoutFirst[b] + nNodes
	}
	ni.joinEdgeNodes()
	for b := range ni.FirstNodes {
		ni.FirstNodes[b] = ni.compact(ni.layoutFirst[b])
	}
	return
}

// forEachEdgeNode visits the nodes of a block with at least two indices at
// 0 or at the segment count, corners more than once in 3D
func forEachEdgeNode(dim int, s [3]int, fn func(idx [3]int)) {
	if dim == 2 {
		for c := 0; c < NumCorners(2); c++ {
			fn([3]int{cornerBits[c][0] * s[0], cornerBits[c][1] * s[1], 0})
		}
		return
	}
	for a := 0; a < 3; a++ {
		trans := transverseAxes(3, a)
		for e := 0; e < 4; e++ {
			var idx [3]int
			idx[trans[0]] = (e & 1) * s[trans[0]]
			idx[trans[1]] = (e >> 1) * s[trans[1]]
			for t := 0; t <= s[a]; t++ {
				idx[a] = t
				fn(idx)
			}
		}
	}
}

// joinEdgeNodes groups the copies of every coarse edge node across face
// neighbors and picks the owned copy with the lowest layout position
func (ni *NodeIndices) joinEdgeNodes() {
	var (
		dim    = ni.Dimension
		index  = make(map[nodeKey]int)
		keys   []nodeKey
		parent []int
	)
	add := func(k nodeKey) int {
		if n, ok := index[k]; ok {
			return n
		}
		index[k] = len(keys)
		keys = append(keys, k)
		parent = append(parent, len(parent))
		return len(keys) - 1
	}
	find := func(n int) int {
		for parent[n] != n {
			parent[n] = parent[parent[n]]
			n = parent[n]
		}
		return n
	}
	for b, s := range ni.segments {
		forEachEdgeNode(dim, s, func(idx [3]int) {
			n := add(nodeKey{b, idx})
			for d := 0; d < dim; d++ {
				if idx[d] != s[d] {
					continue
				}
				nb := ni.topo.Neighbor(b, FaceOf(d, true)).Block
				if nb < 0 {
					continue
				}
				other := idx
				other[d] = 0
				m := add(nodeKey{nb, other})
				parent[find(m)] = find(n)
			}
		})
	}
	owner := make(map[int]int)
	for n, k := range keys {
		pos, ok := ni.layoutPosition(k.block, k.idx)
		if !ok {
			continue
		}
		root := find(n)
		switch first, seen := owner[root]; {
		case !seen:
			owner[root] = pos
		case pos < first:
			ni.dropped = append(ni.dropped, first)
			owner[root] = pos
		default:
			ni.dropped = append(ni.dropped, pos)
		}
	}
	sort.Ints(ni.dropped)
	ni.edgeNodes = make(map[nodeKey]int, len(keys))
	for n, k := range keys {
		if pos, ok := owner[find(n)]; ok {
			ni.edgeNodes[k] = pos
		}
	}
}

// layoutPosition is the slot of node idx when the block owns it
func (ni *NodeIndices) layoutPosition(b int, idx [3]int) (pos int, ok bool) {
	var (
		s    = ni.segments[b]
		mask int
	)
	for d := 0; d < ni.Dimension; d++ {
		if idx[d] == s[d] {
			if !ni.bounded[b][d] {
				return -1, false
			}
			mask |= 1 << d
		}
	}
	if mask == 0 {
		return ni.layoutFirst[b] + idx[0] + idx[1]*s[0] + idx[2]*s[0]*s[1], true
	}
	start := ni.groupStart[b][mask]
	if start < 0 {
		return -1, false
	}
	offset, stride := 0, 1
	for d := 0; d < ni.Dimension; d++ {
		if mask&(1<<d) == 0 {
			offset += idx[d] * stride
			stride *= s[d]
		}
	}
	return ni.layoutFirst[b] + start + offset, true
}

// compact removes the dropped slots below a layout position
func (ni *NodeIndices) compact(pos int) int {
	return pos - sort.SearchInts(ni.dropped, pos)
}

func (ni *NodeIndices) NumNodes() int { return ni.FirstNodes[len(ni.FirstNodes)-1] }

// OwnedNodes is the number of nodes numbered by the block
func (ni *NodeIndices) OwnedNodes(block int) int {
	return ni.FirstNodes[block+1] - ni.FirstNodes[block]
}

// NodeDistribution converts a block distribution into global node ranges
func (ni *NodeIndices) NodeDistribution(blockDist utils.Distribution) (d utils.Distribution) {
	d = make(utils.Distribution, len(blockDist))
	for r, b := range blockDist {
		d[r] = ni.FirstNodes[b]
	}
	return
}

/*
GlobalIdx returns the global id of structured node (i,j,k) of a block, k is
ignored in 2D. Coarse edge nodes are looked up directly. Other nodes on an
unbounded positive side are looked up in the block across that side at
index 0 on that axis, which removes one positive side per step, so a valid
topology resolves in at most Dimension steps.
*/
func (ni *NodeIndices) GlobalIdx(block, i, j, k int) (gid int, err error) {
	var (
		dim  = ni.Dimension
		idx  = [3]int{i, j, k}
		b    = block
		path []int
	)
	if dim == 2 {
		idx[2] = 0
	}
	for step := 0; step <= dim; step++ {
		if b < 0 || b >= len(ni.segments) {
			return -1, topologyErrorf("bad node index combination: block %d reached from %v", b, path)
		}
		path = append(path, b)
		var (
			s        = ni.segments[b]
			mask     int
			extremes int
		)
		for d := 0; d < dim; d++ {
			if idx[d] < 0 || idx[d] > s[d] {
				return -1, topologyErrorf("bad node index combination: %v out of range in block %d with segments %v",
					idx[:dim], b, s[:dim])
			}
			if idx[d] == s[d] {
				mask |= 1 << d
			}
			if idx[d] == 0 || idx[d] == s[d] {
				extremes++
			}
		}
		if extremes >= 2 {
			pos, ok := ni.edgeNodes[nodeKey{b, idx}]
			if !ok {
				return -1, topologyErrorf("bad node index combination: no block owns edge node %v of block %d", idx[:dim], b)
			}
			return ni.compact(pos), nil
		}
		if pos, ok := ni.layoutPosition(b, idx); ok {
			return ni.compact(pos), nil
		}
		delegate := -1
		for d := 0; d < dim; d++ {
			if mask&(1<<d) != 0 && !ni.bounded[b][d] {
				delegate = d
				break
			}
		}
		if delegate < 0 {
			return -1, topologyErrorf("bad node index combination: no owned node group %d in block %d", mask, b)
		}
		b = ni.topo.Neighbor(b, FaceOf(delegate, true)).Block
		idx[delegate] = 0
	}
	return -1, topologyErrorf("bad node index combination: node (%d,%d,%d) of block %d does not resolve, visited blocks %v",
		i, j, k, block, path)
}

// LocalIdx resolves node (i,j,k) of a block to a rank local index
func (ni *NodeIndices) LocalIdx(g *GhostMap, block, i, j, k int) (lid int, err error) {
	var gid int
	if gid, err = ni.GlobalIdx(block, i, j, k); err != nil {
		return -1, err
	}
	return g.ToLocal(gid), nil
}

/*
GhostMap maps global node ids to rank local ids. The rank owns the global
range [Begin,End) which maps to [0,End-Begin), any other global id gets the
next free ghost slot the first time it is seen.
*/
type GhostMap struct {
	Begin, End    int
	Ghosts        []int // Global id of each ghost, in local order
	globalToLocal map[int]int
}

func NewGhostMap(begin, end int) *GhostMap {
	return &GhostMap{
		Begin:         begin,
		End:           end,
		globalToLocal: make(map[int]int),
	}
}

func (g *GhostMap) ToLocal(gid int) int {
	if gid >= g.Begin && gid < g.End {
		return gid - g.Begin
	}
	if lid, ok := g.globalToLocal[gid]; ok {
		return lid
	}
	lid := g.NumLocal()
	g.globalToLocal[gid] = lid
	g.Ghosts = append(g.Ghosts, gid)
	return lid
}

func (g *GhostMap) NumOwned() int { return g.End - g.Begin }
func (g *GhostMap) NumLocal() int { return g.NumOwned() + len(g.Ghosts) }

func (g *GhostMap) IsGhost(lid int) bool { return lid >= g.NumOwned() }

func (g *GhostMap) GlobalID(lid int) int {
	if g.IsGhost(lid) {
		return g.Ghosts[lid-g.NumOwned()]
	}
	return g.Begin + lid
}
