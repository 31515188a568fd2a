package mesh

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet", "Hex", "Prism", "Pyramid"}[e]
}

// Dimension is the topological dimension of the element
func (e ElementType) Dimension() int {
	switch e {
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	default:
		return 3
	}
}

func (e ElementType) NumVertices() int {
	return [...]int{2, 3, 4, 4, 8, 6, 5}[e]
}

// VolumeType returns the structured volume element for a mesh dimension
func VolumeType(dim int) ElementType {
	if dim == 2 {
		return Quad
	}
	return Hex
}

// FaceType returns the structured boundary element for a mesh dimension
func FaceType(dim int) ElementType {
	if dim == 2 {
		return Line
	}
	return Quad
}

// Region is a named group of elements of a single type. Connectivity
// holds rank-local node indices.
type Region struct {
	Name         string
	Type         ElementType
	Connectivity [][]int
	GlobalIDs    []int // Global element id, set by the parallel assembler
	Ranks        []int // Owning rank of each element
}

// CreateElements appends n zeroed elements and returns the index of the first
func (r *Region) CreateElements(n int) (first int) {
	first = len(r.Connectivity)
	nv := r.Type.NumVertices()
	for i := 0; i < n; i++ {
		r.Connectivity = append(r.Connectivity, make([]int, nv))
	}
	r.GlobalIDs = append(r.GlobalIDs, make([]int, n)...)
	r.Ranks = append(r.Ranks, make([]int, n)...)
	return
}

func (r *Region) NumElements() int { return len(r.Connectivity) }

// Mesh is the output container: a coordinate table shared by all regions,
// per node parallel metadata, and an ordered list of element regions.
type Mesh struct {
	Dimension   int
	Coordinates [][]float64 // [nnodes][Dimension]
	GlobalIDs   []int       // Global node id of each local node
	Ranks       []int       // Owning rank of each local node
	Regions     []*Region

	regionMap map[string]int
}

func NewMesh(dim int) *Mesh {
	return &Mesh{
		Dimension: dim,
		regionMap: make(map[string]int),
	}
}

// CreateRegion adds an empty region, region names are unique within a mesh
func (m *Mesh) CreateRegion(name string, et ElementType) (r *Region, err error) {
	if _, exists := m.regionMap[name]; exists {
		err = fmt.Errorf("region %q already exists", name)
		return
	}
	r = &Region{Name: name, Type: et}
	m.regionMap[name] = len(m.Regions)
	m.Regions = append(m.Regions, r)
	return
}

// Region returns the named region or nil
func (m *Mesh) Region(name string) *Region {
	if idx, ok := m.regionMap[name]; ok {
		return m.Regions[idx]
	}
	return nil
}

func (m *Mesh) RegionIndex(name string) int {
	if idx, ok := m.regionMap[name]; ok {
		return idx
	}
	return -1
}

// ResizeNodes sets the number of nodes, keeping existing coordinates
func (m *Mesh) ResizeNodes(n int) {
	if n < len(m.Coordinates) {
		m.Coordinates = m.Coordinates[:n]
		m.GlobalIDs = m.GlobalIDs[:n]
		m.Ranks = m.Ranks[:n]
		return
	}
	for i := len(m.Coordinates); i < n; i++ {
		m.Coordinates = append(m.Coordinates, make([]float64, m.Dimension))
	}
	m.GlobalIDs = append(m.GlobalIDs, make([]int, n-len(m.GlobalIDs))...)
	m.Ranks = append(m.Ranks, make([]int, n-len(m.Ranks))...)
}

func (m *Mesh) NumNodes() int { return len(m.Coordinates) }

// NumElements counts elements of the given topological dimension
func (m *Mesh) NumElements(dim int) (n int) {
	for _, r := range m.Regions {
		if r.Type.Dimension() == dim {
			n += r.NumElements()
		}
	}
	return
}

// GetElementFaces returns the face vertices for each element type
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Line:
		return [][]int{
			{vertices[0]},
			{vertices[1]},
		}
	case Quad:
		return [][]int{
			{vertices[0], vertices[1]}, // Face 0 (y-)
			{vertices[1], vertices[2]}, // Face 1 (x+)
			{vertices[2], vertices[3]}, // Face 2 (y+)
			{vertices[3], vertices[0]}, // Face 3 (x-)
		}
	case Hex:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (z-)
			{vertices[4], vertices[5], vertices[6], vertices[7]}, // Face 1 (z+)
			{vertices[0], vertices[1], vertices[5], vertices[4]}, // Face 2 (y-)
			{vertices[1], vertices[2], vertices[6], vertices[5]}, // Face 3 (x+)
			{vertices[2], vertices[3], vertices[7], vertices[6]}, // Face 4 (y+)
			{vertices[3], vertices[0], vertices[4], vertices[7]}, // Face 5 (x-)
		}
	default:
		return [][]int{}
	}
}

// Statistics summarizes a mesh for logging
type Statistics struct {
	Nodes      int
	OwnedNodes int
	GhostNodes int
	Elements   map[ElementType]int
	Regions    map[string]int
}

// GetStatistics counts nodes and elements, a node is owned when its rank
// matches the given rank
func (m *Mesh) GetStatistics(rank int) (st Statistics) {
	st = Statistics{
		Nodes:    m.NumNodes(),
		Elements: make(map[ElementType]int),
		Regions:  make(map[string]int),
	}
	for _, r := range m.Ranks {
		if r == rank {
			st.OwnedNodes++
		} else {
			st.GhostNodes++
		}
	}
	for _, r := range m.Regions {
		st.Elements[r.Type] += r.NumElements()
		st.Regions[r.Name] = r.NumElements()
	}
	return
}

// PrintStatistics logs mesh statistics
func (m *Mesh) PrintStatistics(rank int) {
	st := m.GetStatistics(rank)
	log.Printf("Mesh Statistics (rank %d):", rank)
	log.Printf("  Nodes: %d (owned %d, ghost %d)", st.Nodes, st.OwnedNodes, st.GhostNodes)
	log.Printf("  Element types:")
	for t := Line; t <= Pyramid; t++ {
		if count, ok := st.Elements[t]; ok {
			log.Printf("    %s: %d", t, count)
		}
	}
	names := make([]string, 0, len(st.Regions))
	for name := range st.Regions {
		names = append(names, name)
	}
	sort.Strings(names)
	log.Printf("  Regions:")
	for _, name := range names {
		log.Printf("    %s: %d", name, st.Regions[name])
	}
}
