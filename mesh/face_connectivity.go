package mesh

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// FaceRef identifies one face of an element within a region. Elements of
// dimension Mesh.Dimension-1 are faces themselves and are referenced with
// Face 0.
type FaceRef struct {
	Region, Element, Face int
}

var NoFace = FaceRef{-1, -1, -1}

func (f FaceRef) IsValid() bool { return f.Region >= 0 }

// FaceConnectivity maps each face of each element in a volume region to
// the element face on its other side, NoFace when nothing touches it
type FaceConnectivity struct {
	Region int
	EToF   [][]FaceRef // [element][local face]
}

/*
BuildFaceConnectivity matches faces by their vertex sets. Every face of the
volume regions and every element of the boundary regions becomes one row of
a sparse face-to-vertex incidence matrix, and two faces coincide when the
corresponding entry of FToV * FToV^T equals their vertex count.
*/
func (m *Mesh) BuildFaceConnectivity(volume string) (fc *FaceConnectivity, err error) {
	var (
		vol    = m.RegionIndex(volume)
		nNodes = m.NumNodes()
		faces  []FaceRef
		fVerts [][]int
	)
	if vol < 0 {
		err = fmt.Errorf("no region named %q", volume)
		return
	}
	if m.Regions[vol].Type.Dimension() != m.Dimension {
		err = fmt.Errorf("region %q is not a volume region", volume)
		return
	}
	for ir, r := range m.Regions {
		switch r.Type.Dimension() {
		case m.Dimension:
			for k, verts := range r.Connectivity {
				for f, fv := range GetElementFaces(r.Type, verts) {
					faces = append(faces, FaceRef{ir, k, f})
					fVerts = append(fVerts, fv)
				}
			}
		case m.Dimension - 1:
			for k, verts := range r.Connectivity {
				faces = append(faces, FaceRef{ir, k, 0})
				fVerts = append(fVerts, verts)
			}
		}
	}
	if len(faces) == 0 {
		err = fmt.Errorf("mesh has no faces to connect")
		return
	}

	SpFToV_Tmp := sparse.NewDOK(len(faces), nNodes)
	for row, fv := range fVerts {
		for _, v := range fv {
			if v < 0 || v >= nNodes {
				err = fmt.Errorf("face %v references node %d, mesh has %d nodes", faces[row], v, nNodes)
				return
			}
			SpFToV_Tmp.Set(row, v, 1)
		}
	}
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF := sparse.NewCSR(len(faces), len(faces), nil, nil, nil)
	SpFToF.Mul(SpFToV, SpFToV.T())

	fc = &FaceConnectivity{
		Region: vol,
		EToF:   make([][]FaceRef, m.Regions[vol].NumElements()),
	}
	for k, verts := range m.Regions[vol].Connectivity {
		nf := len(GetElementFaces(m.Regions[vol].Type, verts))
		fc.EToF[k] = make([]FaceRef, nf)
		for f := range fc.EToF[k] {
			fc.EToF[k][f] = NoFace
		}
	}
	SpFToF.DoNonZero(func(i, j int, v float64) {
		if err != nil || i == j || faces[i].Region != vol {
			return
		}
		if int(v) != len(fVerts[i]) || int(v) != len(fVerts[j]) {
			return
		}
		f := faces[i]
		if fc.EToF[f.Element][f.Face].IsValid() {
			err = fmt.Errorf("face %d of element %d in region %q touches more than one element",
				f.Face, f.Element, volume)
			return
		}
		fc.EToF[f.Element][f.Face] = faces[j]
	})
	if err != nil {
		fc = nil
	}
	return
}

// IsBoundary reports whether the face of element k touches a lower
// dimensional element rather than another volume element
func (fc *FaceConnectivity) IsBoundary(m *Mesh, k, face int) bool {
	ref := fc.EToF[k][face]
	return ref.IsValid() && m.Regions[ref.Region].Type.Dimension() == m.Dimension-1
}
