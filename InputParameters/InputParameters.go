package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/blockmesh/blockmesh"
	"github.com/notargets/blockmesh/types"
)

// Block mesh description obtained from the YAML input file
type BlockMeshInput struct {
	Title             string       `json:"Title"`
	Dimension         int          `json:"Dimension"`
	Scale             float64      `json:"Scale,omitempty"`
	Points            [][]float64  `json:"Points"`
	Blocks            []BlockInput `json:"Blocks"`
	Patches           []PatchInput `json:"Patches,omitempty"`
	BlockDistribution []int        `json:"BlockDistribution,omitempty"` // Length is number of ranks + 1
}

type BlockInput struct {
	Corners  []int     `json:"Corners"`
	Segments []int     `json:"Segments"`
	Grading  []float64 `json:"Grading,omitempty"` // One per axis or one per edge, omitted is uniform
}

/*
PatchInput names a group of boundary faces, given in exactly one of three
ways: as block faces, as corner points (2^(Dimension-1) per face), or as
indices into the list of faces that no earlier patch claims.
*/
type PatchInput struct {
	Name         string      `json:"Name"`
	Type         string      `json:"Type,omitempty"` // Taken from the name prefix when omitted, e.g. "wall-top"
	Faces        []FaceInput `json:"Faces,omitempty"`
	Points       []int       `json:"Points,omitempty"`
	DefaultFaces []int       `json:"DefaultFaces,omitempty"`
}

type FaceInput struct {
	Block int    `json:"Block"`
	Face  string `json:"Face"` // x-, x+, y-, y+, z-, z+
}

func (ip *BlockMeshInput) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *BlockMeshInput) Marshal() ([]byte, error) {
	return yaml.Marshal(ip)
}

func (ip *BlockMeshInput) Print() {
	var nElements int
	for _, b := range ip.Blocks {
		n := 1
		for _, s := range b.Segments {
			n *= s
		}
		nElements += n
	}
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%d]\t\t\t\t= Points\n", len(ip.Points))
	fmt.Printf("[%d]\t\t\t\t= Blocks\n", len(ip.Blocks))
	fmt.Printf("[%d]\t\t\t\t= Elements\n", nElements)
	if ip.Scale != 0 {
		fmt.Printf("%8.5f\t\t= Scale\n", ip.Scale)
	}
	if len(ip.BlockDistribution) != 0 {
		fmt.Printf("%v\t\t= Block Distribution\n", ip.BlockDistribution)
	}
	for _, p := range ip.Patches {
		nFaces := len(p.Faces) + len(p.DefaultFaces)
		if ip.Dimension > 1 {
			nFaces += len(p.Points) / (1 << (ip.Dimension - 1))
		}
		fmt.Printf("Patches[%s] = %s, %d faces\n", p.Name, p.Type, nFaces)
	}
}

// ToBlockData converts the input into a validated block description
func (ip *BlockMeshInput) ToBlockData() (bd *blockmesh.BlockData, err error) {
	bd = blockmesh.NewBlockData(ip.Dimension)
	bd.Scale = ip.Scale
	for _, p := range ip.Points {
		bd.Points = append(bd.Points, append([]float64(nil), p...))
	}
	for b, blk := range ip.Blocks {
		grading := blk.Grading
		if len(grading) == 0 {
			grading = make([]float64, ip.Dimension)
			for d := range grading {
				grading[d] = 1
			}
		}
		if _, err = bd.AddBlock(blk.Corners, blk.Segments, grading); err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}
	}
	for _, p := range ip.Patches {
		if err = addPatch(bd, p); err != nil {
			return nil, fmt.Errorf("patch %q: %w", p.Name, err)
		}
	}
	bd.BlockDistribution = append([]int(nil), ip.BlockDistribution...)
	if err = bd.Validate(); err != nil {
		return nil, err
	}
	return
}

func addPatch(bd *blockmesh.BlockData, p PatchInput) (err error) {
	var (
		pt    types.PatchType
		forms int
	)
	if p.Type == "" {
		pt = types.NewPatchTag(p.Name).GetType()
	} else if pt, err = types.NewPatchType(p.Type); err != nil {
		return
	}
	for _, n := range []int{len(p.Faces), len(p.Points), len(p.DefaultFaces)} {
		if n != 0 {
			forms++
		}
	}
	if forms != 1 {
		return fmt.Errorf("needs exactly one of Faces, Points or DefaultFaces, has %d", forms)
	}
	switch {
	case len(p.Faces) != 0:
		faces := make([]blockmesh.FaceRef, len(p.Faces))
		for i, f := range p.Faces {
			faces[i].Block = f.Block
			if faces[i].Face, err = blockmesh.ParseFace(f.Face); err != nil {
				return
			}
		}
		return bd.AddPatch(p.Name, pt, faces)
	case len(p.DefaultFaces) != 0:
		return bd.AddPatchFromDefault(p.Name, pt, p.DefaultFaces)
	default:
		bd.PatchNames = append(bd.PatchNames, p.Name)
		bd.PatchTypes = append(bd.PatchTypes, pt)
		bd.PatchPoints = append(bd.PatchPoints, append([]int(nil), p.Points...))
	}
	return
}

// FromBlockData writes a block description back in input form, patches as
// corner points
func FromBlockData(title string, bd *blockmesh.BlockData) (ip *BlockMeshInput) {
	ip = &BlockMeshInput{
		Title:             title,
		Dimension:         bd.Dimension,
		Scale:             bd.Scale,
		BlockDistribution: append([]int(nil), bd.BlockDistribution...),
	}
	for _, p := range bd.Points {
		ip.Points = append(ip.Points, append([]float64(nil), p[:bd.Dimension]...))
	}
	for b := range bd.BlockPoints {
		ip.Blocks = append(ip.Blocks, BlockInput{
			Corners:  append([]int(nil), bd.BlockPoints[b]...),
			Segments: append([]int(nil), bd.BlockSubdivisions[b]...),
			Grading:  compactGrading(bd.Dimension, bd.BlockGradings[b]),
		})
	}
	for p, name := range bd.PatchNames {
		ip.Patches = append(ip.Patches, PatchInput{
			Name:   name,
			Type:   bd.PatchType(p).String(),
			Points: append([]int(nil), bd.PatchPoints[p]...),
		})
	}
	return
}

// compactGrading returns one grading per axis when all edges of each axis
// agree, the full per edge list otherwise
func compactGrading(dim int, gradings []float64) []float64 {
	var (
		ne      = len(gradings) / dim
		perAxis = make([]float64, dim)
	)
	for d := 0; d < dim; d++ {
		perAxis[d] = gradings[d*ne]
		for e := 1; e < ne; e++ {
			if gradings[d*ne+e] != perAxis[d] {
				return append([]float64(nil), gradings...)
			}
		}
	}
	return perAxis
}
