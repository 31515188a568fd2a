package blockmesh

import (
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

/*
PartitionBlocks slices a serial block description into nbPartitions parts
of about equal element count along one axis. Blocks are swept layer by
layer from the negative end of the axis. A layer that does not fit in the
current partition is cut: new points are placed on its edges at the mapped
coordinate of the cut and the gradings of both halves are rescaled so the
element sizes along the axis do not change. The result has one new block
per piece, BlockDistribution marking the blocks of each partition, and the
declared patches rebuilt for the new blocks. Faces of the default patch
stay unclaimed and so remain in the default patch.
*/
func PartitionBlocks(in *BlockData, nbPartitions, axis int) (out *BlockData, err error) {
	var topo *Topology
	if err = in.Validate(); err != nil {
		return
	}
	if nbPartitions < 1 {
		return nil, configErrorf("partitions", "number of partitions %d must be at least 1", nbPartitions)
	}
	if axis < 0 || axis >= in.Dimension {
		return nil, configErrorf("direction", "axis %d is not an axis of a %dD mesh", axis, in.Dimension)
	}
	if topo, err = NewTopology(in); err != nil {
		return
	}
	p := newPartitioner(in, topo, axis)
	if err = p.run(nbPartitions); err != nil {
		return nil, err
	}
	return p.out, nil
}

type partitioner struct {
	in, out, work *BlockData
	topo          *Topology
	dim, axis     int
	trans         []int  // Transverse axes
	transFaces    []Face // Faces of the transverse axes
	startFace     Face
	endFace       Face
	startMap      []int // Current point of each input point on the start side of the sweep
	endMap        []int
}

func newPartitioner(in *BlockData, topo *Topology, axis int) (p *partitioner) {
	p = &partitioner{
		in:        in,
		work:      in.Clone(),
		out:       in.Clone(),
		topo:      topo,
		dim:       in.Dimension,
		axis:      axis,
		trans:     transverseAxes(in.Dimension, axis),
		startFace: FaceOf(axis, false),
		endFace:   FaceOf(axis, true),
		startMap:  make([]int, len(in.Points)),
		endMap:    make([]int, len(in.Points)),
	}
	for _, d := range p.trans {
		p.transFaces = append(p.transFaces, FaceOf(d, false), FaceOf(d, true))
	}
	for i := range p.startMap {
		p.startMap[i] = i
		p.endMap[i] = i
	}
	p.out.BlockPoints = nil
	p.out.BlockSubdivisions = nil
	p.out.BlockGradings = nil
	p.out.PatchPoints = make([][]int, len(in.PatchNames))
	p.out.BlockDistribution = nil
	return
}

// startLayer finds the blocks on the boundary at the negative end of the
// axis whose transverse neighbors are there too
func (p *partitioner) startLayer() (layer []int) {
	for b := 0; b < p.in.NumBlocks(); b++ {
		if !p.topo.IsBounded(b, p.startFace) {
			continue
		}
		isStart := true
		for _, tf := range p.transFaces {
			nb := p.topo.Neighbor(b, tf)
			if nb.Block >= 0 && !p.topo.IsBounded(nb.Block, p.startFace) {
				isStart = false
				break
			}
		}
		if isStart {
			layer = append(layer, b)
		}
	}
	return
}

func (p *partitioner) sliceSize(layer []int) (size int) {
	for _, b := range layer {
		n := 1
		for _, d := range p.trans {
			n *= p.work.BlockSubdivisions[b][d]
		}
		size += n
	}
	return
}

func (p *partitioner) run(nbPartitions int) (err error) {
	var (
		total         = p.in.NumElements()
		partitionSize = int(math.Ceil(float64(total) / float64(nbPartitions)))
		nbPartitioned int
		next          = p.startLayer()
	)
	if len(next) == 0 {
		return configErrorf("blocks", "no block starts the sweep along axis %d", p.axis)
	}
	for partition := 0; partition < nbPartitions; partition++ {
		p.out.BlockDistribution = append(p.out.BlockDistribution, len(p.out.BlockPoints))
		current := next
		sliceSize := p.sliceSize(current)
		if sliceSize == 0 {
			return configErrorf("partitions", "%d partitions requested along axis %d, the blocks only have slices for %d",
				nbPartitions, p.axis, partition)
		}
		nbSlices := int(math.Ceil(float64(partitionSize) / float64(sliceSize)))
		if nbPartitioned+nbSlices*sliceSize > total {
			remaining := total - nbPartitioned
			if partition != nbPartitions-1 {
				return configErrorf("partitions", "%d partitions requested along axis %d, %d elements are left for the last %d",
					nbPartitions, p.axis, remaining, nbPartitions-partition)
			}
			if remaining%sliceSize != 0 {
				return topologyErrorf("partition %d of %d: %d remaining elements do not fill whole slices of %d elements",
					partition, nbPartitions, remaining, sliceSize)
			}
			nbSlices = remaining / sliceSize
		}
		nbPartitioned += nbSlices * sliceSize
		log.WithFields(log.Fields{
			"partition": partition,
			"slices":    nbSlices,
			"elements":  nbSlices * sliceSize,
		}).Debug("partitioning blocks")

		for nbSlices > 0 {
			if len(current) == 0 {
				return topologyErrorf("ran out of blocks along axis %d with %d slices left in partition %d",
					p.axis, nbSlices, partition)
			}
			blockSlices := p.work.BlockSubdivisions[current[0]][p.axis]
			for _, b := range current[1:] {
				if p.work.BlockSubdivisions[b][p.axis] != blockSlices {
					return configErrorf("block_subdivisions", "blocks %d and %d in one layer have %d and %d segments along axis %d",
						current[0], b, blockSlices, p.work.BlockSubdivisions[b][p.axis], p.axis)
				}
			}
			newBlocks := make([][]int, len(current))
			for pos, b := range current {
				newBlocks[pos] = make([]int, NumCorners(p.dim))
				for _, c := range faceCorners(p.dim, p.startFace) {
					newBlocks[pos][c] = p.startMap[p.in.BlockPoints[b][c]]
				}
			}
			if blockSlices > nbSlices {
				if err = p.splitLayer(current, blockSlices, nbSlices); err != nil {
					return
				}
				nbSlices = 0
			} else {
				next = p.consumeLayer(current)
				nbSlices -= blockSlices
			}
			for pos, b := range current {
				for _, c := range faceCorners(p.dim, p.endFace) {
					newBlocks[pos][c] = p.endMap[p.in.BlockPoints[b][c]]
				}
				p.out.BlockPoints = append(p.out.BlockPoints, newBlocks[pos])
				for _, tf := range p.transFaces {
					if pi := p.topo.PatchOf(b, tf); pi >= 0 && pi < len(p.in.PatchNames) {
						for _, c := range faceCorners(p.dim, tf) {
							p.out.PatchPoints[pi] = append(p.out.PatchPoints[pi], newBlocks[pos][c])
						}
					}
				}
			}
			if nbSlices > 0 {
				current = next
			}
		}
	}
	p.out.BlockDistribution = append(p.out.BlockDistribution, len(p.out.BlockPoints))

	// Faces at both ends of the sweep keep their original points
	for b := 0; b < p.in.NumBlocks(); b++ {
		for _, f := range []Face{p.startFace, p.endFace} {
			if pi := p.topo.PatchOf(b, f); pi >= 0 && pi < len(p.in.PatchNames) {
				p.out.PatchPoints[pi] = append(p.out.PatchPoints[pi], p.in.FacePoints(FaceRef{b, f})...)
			}
		}
	}
	log.WithFields(log.Fields{
		"blocks_in":  p.in.NumBlocks(),
		"blocks_out": p.out.NumBlocks(),
		"partitions": nbPartitions,
		"elements":   total,
	}).Info("partitioned blocks")
	return
}

/*
splitLayer cuts nbSlices segments off the start of every block in the
layer. The part that is cut off becomes an output block, the rest stays in
the work copy with its start side moved to the new points.
*/
func (p *partitioner) splitLayer(layer []int, blockSlices, nbSlices int) (err error) {
	var (
		ne       = edgesPerAxis(p.dim)
		isMapped = make([]bool, len(p.in.Points))
	)
	for _, b := range layer {
		newGradings := append([]float64(nil), p.in.BlockGradings[b]...)
		for e := 0; e < ne; e++ {
			var (
				gi     = gradingIndex(p.dim, p.axis, e)
				sc, ec = edgeCorners(p.dim, p.axis, e)
				origS  = p.in.BlockPoints[b][sc]
				origE  = p.in.BlockPoints[b][ec]
			)
			mapped, err := MappedCoords(blockSlices, p.work.BlockGradings[b][gi])
			if err != nil {
				return err
			}
			if !isMapped[origE] {
				isMapped[origE] = true
				p.endMap[origE] = len(p.out.Points)
				var (
					p0 = toVec(p.out.Points[p.startMap[origS]])
					p1 = toVec(p.out.Points[p.startMap[origE]])
					t  = 0.5 * (1 + mapped[nbSlices])
				)
				p.out.Points = append(p.out.Points, fromVec(r3.Add(p0, r3.Scale(t, r3.Sub(p1, p0))), p.dim))
				p.startMap[origS] = p.endMap[origE]
			}
			newGradings[gi] = (mapped[nbSlices] - mapped[nbSlices-1]) / (mapped[1] - mapped[0])
			p.work.BlockGradings[b][gi] = (mapped[blockSlices] - mapped[blockSlices-1]) /
				(mapped[nbSlices+1] - mapped[nbSlices])
		}
		newSubdivisions := append([]int(nil), p.work.BlockSubdivisions[b]...)
		newSubdivisions[p.axis] = nbSlices
		p.work.BlockSubdivisions[b][p.axis] -= nbSlices
		p.out.BlockGradings = append(p.out.BlockGradings, newGradings)
		p.out.BlockSubdivisions = append(p.out.BlockSubdivisions, newSubdivisions)
	}
	return
}

// consumeLayer moves the whole layer to the output and returns the layer
// across its end faces, grown by transverse neighbors
func (p *partitioner) consumeLayer(layer []int) (next []int) {
	for _, b := range layer {
		p.out.BlockGradings = append(p.out.BlockGradings, append([]float64(nil), p.work.BlockGradings[b]...))
		p.out.BlockSubdivisions = append(p.out.BlockSubdivisions, append([]int(nil), p.work.BlockSubdivisions[b]...))
		for _, c := range faceCorners(p.dim, p.endFace) {
			pt := p.in.BlockPoints[b][c]
			p.endMap[pt] = pt
		}
		if nb := p.topo.Neighbor(b, p.endFace); nb.Block >= 0 {
			next = appendUnique(next, nb.Block)
		}
	}
	for n := 0; n < len(next); n++ {
		for _, tf := range p.transFaces {
			if nb := p.topo.Neighbor(next[n], tf); nb.Block >= 0 {
				next = appendUnique(next, nb.Block)
			}
		}
	}
	return
}

func appendUnique(list []int, v int) []int {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func toVec(p []float64) (v r3.Vec) {
	v.X, v.Y = p[0], p[1]
	if len(p) > 2 {
		v.Z = p[2]
	}
	return
}

func fromVec(v r3.Vec, dim int) []float64 {
	return []float64{v.X, v.Y, v.Z}[:dim]
}
