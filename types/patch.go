package types

import (
	"fmt"
	"strings"
)

// PatchType classifies a named group of boundary faces
type PatchType uint8

const (
	PatchGeneric PatchType = iota
	PatchWall
	PatchSymmetryPlane
	PatchEmpty
	PatchInlet
	PatchOutlet
	PatchCyclic
)

var PatchNameMap = map[string]PatchType{
	"patch":         PatchGeneric,
	"default":       PatchGeneric,
	"wall":          PatchWall,
	"symmetryplane": PatchSymmetryPlane,
	"symmetry":      PatchSymmetryPlane,
	"empty":         PatchEmpty,
	"inlet":         PatchInlet,
	"inflow":        PatchInlet,
	"in":            PatchInlet,
	"outlet":        PatchOutlet,
	"outflow":       PatchOutlet,
	"out":           PatchOutlet,
	"cyclic":        PatchCyclic,
}

func (pt PatchType) String() string {
	switch pt {
	case PatchWall:
		return "wall"
	case PatchSymmetryPlane:
		return "symmetryPlane"
	case PatchEmpty:
		return "empty"
	case PatchInlet:
		return "inlet"
	case PatchOutlet:
		return "outlet"
	case PatchCyclic:
		return "cyclic"
	default:
		return "patch"
	}
}

// NewPatchType parses a patch type name, case insensitive
func NewPatchType(name string) (pt PatchType, err error) {
	var ok bool
	if pt, ok = PatchNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown patch type %q", name)
	}
	return
}

/*
PatchTag is a patch name of the form "Type-label", e.g. "Wall-top" or
"inlet-2". The part before the first dash selects the PatchType when no
explicit type was given.
*/
type PatchTag string

func NewPatchTag(name string) PatchTag {
	return PatchTag(strings.TrimSpace(name))
}

func (pt PatchTag) GetType() PatchType {
	var (
		prefix = string(pt)
	)
	if i := strings.Index(prefix, "-"); i >= 0 {
		prefix = prefix[:i]
	}
	if t, ok := PatchNameMap[strings.ToLower(prefix)]; ok {
		return t
	}
	return PatchGeneric
}

func (pt PatchTag) GetLabel() string {
	if i := strings.Index(string(pt), "-"); i >= 0 {
		return string(pt)[i+1:]
	}
	return ""
}
