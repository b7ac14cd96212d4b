package utils

import (
	"fmt"
	"sort"

	"github.com/notargets/femquad/element"
)

// FaceConnector holds the face-to-face connectivity of a conforming mesh of
// reference-numbered cells, including the twist each cell sees a shared face with.
//
// The first cell to list a face owns its numbering and sees it with
// element.Inside; the neighbour sees it with the twist returned by
// element.FaceTwist. Boundary faces connect to themselves, as in NUDG.
type FaceConnector struct {
	K     int
	Types []element.GeometryType // per element
	EToV  [][]int                // element vertex ids in reference numbering

	EToE   [][]int           // [elem][face] neighbour element
	EToF   [][]int           // [elem][face] neighbour face
	Twists [][]element.Twist // [elem][face] twist the element sees the face with
	Owner  [][]bool          // [elem][face] whether the element owns the face numbering
}

// FacePair is one interior face seen from its owner (K, F) and its neighbour
// (NK, NF), the neighbour using Twist
type FacePair struct {
	K, F   int
	NK, NF int
	Twist  element.Twist
}

type faceSignature struct {
	elem, face int
	vertices   []int
}

// NewFaceConnector builds the connectivity of the cells EToV of types. Vertex
// lists must follow the reference vertex numbering of each type.
func NewFaceConnector(types []element.GeometryType, EToV [][]int) (*FaceConnector, error) {
	K := len(EToV)
	if K == 0 {
		return nil, fmt.Errorf("empty mesh")
	}
	if len(types) != K {
		return nil, fmt.Errorf("types length %d does not match K=%d", len(types), K)
	}
	fc := &FaceConnector{
		K:      K,
		Types:  types,
		EToV:   EToV,
		EToE:   make([][]int, K),
		EToF:   make([][]int, K),
		Twists: make([][]element.Twist, K),
		Owner:  make([][]bool, K),
	}

	faceMap := make(map[string]faceSignature)
	for e := 0; e < K; e++ {
		g := types[e]
		if !g.Valid() || g.Dim() == 0 {
			return nil, fmt.Errorf("element %d: unsupported geometry %v", e, g)
		}
		ref := element.Reference(g)
		if len(EToV[e]) != ref.NumVertices() {
			return nil, fmt.Errorf("element %d: %v needs %d vertices, got %d",
				e, g, ref.NumVertices(), len(EToV[e]))
		}
		nf := ref.NumSubEntities(1)
		fc.EToE[e] = make([]int, nf)
		fc.EToF[e] = make([]int, nf)
		fc.Twists[e] = make([]element.Twist, nf)
		fc.Owner[e] = make([]bool, nf)

		for f := 0; f < nf; f++ {
			// Self-connection by default
			fc.EToE[e][f], fc.EToF[e][f], fc.Owner[e][f] = e, f, true

			local := ref.SubEntity(1, f)
			v := make([]int, len(local))
			for i, lv := range local {
				v[i] = EToV[e][lv]
			}
			key := signature(v)
			existing, found := faceMap[key]
			if !found {
				faceMap[key] = faceSignature{elem: e, face: f, vertices: v}
				continue
			}
			if fc.EToE[existing.elem][existing.face] != existing.elem ||
				fc.EToF[existing.elem][existing.face] != existing.face {
				return nil, fmt.Errorf("face %v is shared by more than two elements", v)
			}
			sub := ref.SubEntityType(1, f)
			if other := element.Reference(types[existing.elem]).SubEntityType(1, existing.face); other != sub {
				return nil, fmt.Errorf("element %d face %d is a %v, element %d face %d is a %v",
					e, f, sub, existing.elem, existing.face, other)
			}
			tw, err := faceTwist(sub, existing.vertices, v)
			if err != nil {
				return nil, fmt.Errorf("element %d face %d: %w", e, f, err)
			}
			fc.EToE[e][f], fc.EToF[e][f] = existing.elem, existing.face
			fc.EToE[existing.elem][existing.face] = e
			fc.EToF[existing.elem][existing.face] = f
			fc.Twists[e][f] = tw
			fc.Owner[e][f] = false
		}
	}
	return fc, nil
}

// signature is the canonical, order independent key of a face
func signature(v []int) string {
	s := append([]int(nil), v...)
	sort.Ints(s)
	return fmt.Sprint(s)
}

// faceTwist converts the FaceTwist panic on non-matching numberings into an error,
// which for mesh input means the cell vertices are not in reference order
func faceTwist(g element.GeometryType, inside, outside []int) (tw element.Twist, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("no twist maps %v onto %v: %v", outside, inside, r)
		}
	}()
	return element.FaceTwist(g, inside, outside), nil
}

// IsBoundary reports whether face f of element e has no neighbour
func (fc *FaceConnector) IsBoundary(e, f int) bool {
	return fc.EToE[e][f] == e && fc.EToF[e][f] == f
}

// InteriorFaces lists every interior face once, from its owner
func (fc *FaceConnector) InteriorFaces() (pairs []FacePair) {
	for e := 0; e < fc.K; e++ {
		for f := range fc.EToE[e] {
			if fc.IsBoundary(e, f) || !fc.Owner[e][f] {
				continue
			}
			ne, nf := fc.EToE[e][f], fc.EToF[e][f]
			pairs = append(pairs, FacePair{K: e, F: f, NK: ne, NF: nf, Twist: fc.Twists[ne][nf]})
		}
	}
	return
}

// NumBoundaryFaces counts faces without a neighbour
func (fc *FaceConnector) NumBoundaryFaces() (n int) {
	for e := 0; e < fc.K; e++ {
		for f := range fc.EToE[e] {
			if fc.IsBoundary(e, f) {
				n++
			}
		}
	}
	return
}

// Verify checks that the connectivity is symmetric and that owners see interior
// faces with element.Inside
func (fc *FaceConnector) Verify() error {
	for e := 0; e < fc.K; e++ {
		for f := range fc.EToE[e] {
			ne, nf := fc.EToE[e][f], fc.EToF[e][f]
			if fc.EToE[ne][nf] != e || fc.EToF[ne][nf] != f {
				return fmt.Errorf("asymmetric connection: (%d,%d) -> (%d,%d) -> (%d,%d)",
					e, f, ne, nf, fc.EToE[ne][nf], fc.EToF[ne][nf])
			}
			if fc.Owner[e][f] && fc.Twists[e][f] != element.Inside {
				return fmt.Errorf("owner (%d,%d) has twist %d", e, f, fc.Twists[e][f])
			}
			if !fc.IsBoundary(e, f) && fc.Owner[e][f] == fc.Owner[ne][nf] {
				return fmt.Errorf("face (%d,%d) and (%d,%d) disagree on ownership", e, f, ne, nf)
			}
		}
	}
	return nil
}

// gmshOrder maps reference vertex slots to gmsh vertex slots for cube-like cells,
// whose gmsh numbering runs counter-clockwise instead of lexicographically
var gmshOrder = map[element.GeometryType][]int{
	element.Rectangle: {0, 1, 3, 2},
	element.Hex:       {0, 1, 3, 2, 4, 5, 7, 6},
	element.Pyramid:   {0, 1, 3, 2, 4},
}

// FromGmshOrder reorders the vertex list of a cell read in gmsh numbering into
// reference numbering. Simplices and prisms are returned unchanged.
func FromGmshOrder(g element.GeometryType, verts []int) []int {
	order, ok := gmshOrder[g]
	if !ok {
		return verts
	}
	out := make([]int, len(verts))
	for i, slot := range order {
		out[i] = verts[slot]
	}
	return out
}

// GeometryForVertexCount guesses the cell type of a vertex list in a mesh of
// dimension dim
func GeometryForVertexCount(dim, n int) (element.GeometryType, error) {
	switch {
	case dim == 2 && n == 3:
		return element.Tri, nil
	case dim == 2 && n == 4:
		return element.Rectangle, nil
	case dim == 3 && n == 4:
		return element.Tet, nil
	case dim == 3 && n == 5:
		return element.Pyramid, nil
	case dim == 3 && n == 6:
		return element.Prism, nil
	case dim == 3 && n == 8:
		return element.Hex, nil
	}
	return 0, fmt.Errorf("no %dD cell with %d vertices", dim, n)
}
