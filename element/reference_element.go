package element

import (
	"fmt"
	"sort"
)

// ReferenceElement describes a reference cell in [-1,1]^d: its vertices and the
// vertex lists of its sub-entities for every codimension.
//
// Vertices are numbered so that Frame spans the affine map of the cell:
// x(ξ) = V[Frame[0]] + Σ_d (V[Frame[d+1]] - V[Frame[0]]) (ξ_d+1)/2
type ReferenceElement struct {
	Type     GeometryType
	Vertices [][]float64
	Frame    []int
	Volume   float64

	subEntities [][][]int        // [codim][index] vertex lists
	subTypes    [][]GeometryType // [codim][index]
}

type referenceDefinition struct {
	vertices [][]float64
	frame    []int
	volume   float64
	faces    [][]int // codim 1 vertex lists
}

var definitions = map[GeometryType]referenceDefinition{
	Point: {
		vertices: [][]float64{{}},
		frame:    []int{0},
		volume:   1,
	},
	Line: {
		vertices: [][]float64{{-1}, {1}},
		frame:    []int{0, 1},
		volume:   2,
		faces:    [][]int{{0}, {1}},
	},
	Tri: {
		vertices: [][]float64{{-1, -1}, {1, -1}, {-1, 1}},
		frame:    []int{0, 1, 2},
		volume:   2,
		faces:    [][]int{{0, 1}, {1, 2}, {2, 0}},
	},
	Rectangle: {
		vertices: [][]float64{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}},
		frame:    []int{0, 1, 2},
		volume:   4,
		faces:    [][]int{{0, 2}, {1, 3}, {0, 1}, {2, 3}},
	},
	Tet: {
		vertices: [][]float64{{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1}},
		frame:    []int{0, 1, 2, 3},
		volume:   4. / 3.,
		// Face 0: T=-1, Face 1: S=-1, Face 2: R+S+T=-1, Face 3: R=-1
		faces: [][]int{{0, 1, 2}, {0, 1, 3}, {1, 2, 3}, {0, 2, 3}},
	},
	Hex: {
		vertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
		},
		frame:  []int{0, 1, 2, 4},
		volume: 8,
		faces: [][]int{
			{0, 2, 4, 6}, {1, 3, 5, 7}, // R=-1, R=1
			{0, 1, 4, 5}, {2, 3, 6, 7}, // S=-1, S=1
			{0, 1, 2, 3}, {4, 5, 6, 7}, // T=-1, T=1
		},
	},
	Prism: {
		vertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1},
		},
		frame:  []int{0, 1, 2, 3},
		volume: 4,
		faces:  [][]int{{0, 1, 2}, {0, 1, 3, 4}, {1, 2, 4, 5}, {0, 2, 3, 5}, {3, 4, 5}},
	},
	Pyramid: {
		// Apex collapsed onto (-1,-1,1)
		vertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
			{-1, -1, 1},
		},
		frame:  []int{0, 1, 2, 4},
		volume: 8. / 3.,
		faces:  [][]int{{0, 1, 2, 3}, {0, 1, 4}, {1, 3, 4}, {2, 3, 4}, {0, 2, 4}},
	},
}

var references [numGeometryTypes]*ReferenceElement

func init() {
	for g, def := range definitions {
		references[g] = buildReference(g, def)
	}
}

// Reference returns the reference element of g. The returned value is shared and
// must not be modified.
func Reference(g GeometryType) *ReferenceElement {
	if !g.Valid() {
		panic(fmt.Sprintf("element: unknown geometry type %d", uint8(g)))
	}
	return references[g]
}

func buildReference(g GeometryType, def referenceDefinition) *ReferenceElement {
	dim := g.Dim()
	re := &ReferenceElement{
		Type:        g,
		Vertices:    def.vertices,
		Frame:       def.frame,
		Volume:      def.volume,
		subEntities: make([][][]int, dim+1),
		subTypes:    make([][]GeometryType, dim+1),
	}

	all := make([]int, len(def.vertices))
	for i := range all {
		all[i] = i
	}
	re.subEntities[0] = [][]int{all}

	if dim >= 1 {
		re.subEntities[1] = def.faces
	}
	if dim == 3 {
		re.subEntities[2] = edgesFromFaces(def.faces)
	}
	if dim >= 1 {
		verts := make([][]int, len(def.vertices))
		for i := range verts {
			verts[i] = []int{i}
		}
		re.subEntities[dim] = verts
	}

	for codim := 0; codim <= dim; codim++ {
		re.subTypes[codim] = make([]GeometryType, len(re.subEntities[codim]))
		for i, verts := range re.subEntities[codim] {
			if codim == 0 {
				re.subTypes[codim][i] = g
				continue
			}
			re.subTypes[codim][i] = typeOfSubEntity(dim-codim, len(verts))
		}
	}
	return re
}

func typeOfSubEntity(dim, nVerts int) GeometryType {
	switch {
	case dim == 0:
		return Point
	case dim == 1:
		return Line
	case dim == 2 && nVerts == 3:
		return Tri
	case dim == 2 && nVerts == 4:
		return Rectangle
	}
	panic(fmt.Sprintf("element: no %dD sub-entity with %d vertices", dim, nVerts))
}

// edgesFromFaces collects the unique edges bounding the faces in order of first appearance
func edgesFromFaces(faces [][]int) (edges [][]int) {
	seen := make(map[[2]int]bool)
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			return
		}
		seen[key] = true
		edges = append(edges, []int{a, b})
	}
	for _, f := range faces {
		switch len(f) {
		case 3:
			add(f[0], f[1])
			add(f[1], f[2])
			add(f[2], f[0])
		case 4:
			// lexicographic quadrilateral numbering
			add(f[0], f[1])
			add(f[0], f[2])
			add(f[1], f[3])
			add(f[2], f[3])
		}
	}
	return
}

// Dim returns the reference dimension as an int
func (re *ReferenceElement) Dim() int { return re.Type.Dim() }

// NumVertices returns the number of vertices of the cell
func (re *ReferenceElement) NumVertices() int { return len(re.Vertices) }

// NumSubEntities returns the number of sub-entities of the given codimension
func (re *ReferenceElement) NumSubEntities(codim int) int {
	re.checkCodim(codim)
	return len(re.subEntities[codim])
}

// SubEntity returns the parent vertex indices of sub-entity i of codimension codim,
// in the sub-entity's own vertex numbering.
func (re *ReferenceElement) SubEntity(codim, i int) []int {
	re.checkSubEntity(codim, i)
	return re.subEntities[codim][i]
}

// SubEntityType returns the geometry type of sub-entity i of codimension codim
func (re *ReferenceElement) SubEntityType(codim, i int) GeometryType {
	re.checkSubEntity(codim, i)
	return re.subTypes[codim][i]
}

// SubEntityTypes returns the distinct sub-entity geometry types of a codimension,
// sorted by type tag.
func (re *ReferenceElement) SubEntityTypes(codim int) []GeometryType {
	re.checkCodim(codim)
	set := make(map[GeometryType]bool)
	for _, t := range re.subTypes[codim] {
		set[t] = true
	}
	types := make([]GeometryType, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SubEntitiesOfType returns the indices of the codim sub-entities whose type is sub
func (re *ReferenceElement) SubEntitiesOfType(codim int, sub GeometryType) []int {
	re.checkCodim(codim)
	var idx []int
	for i, t := range re.subTypes[codim] {
		if t == sub {
			idx = append(idx, i)
		}
	}
	return idx
}

// Slot returns the ordinal of sub-entity i among the codim sub-entities sharing its
// type. Slots are used to lay out per-placement data without gaps on mixed cells.
func (re *ReferenceElement) Slot(codim, i int) int {
	re.checkSubEntity(codim, i)
	sub := re.subTypes[codim][i]
	slot := 0
	for j := 0; j < i; j++ {
		if re.subTypes[codim][j] == sub {
			slot++
		}
	}
	return slot
}

// Contains reports whether x lies in the reference cell, within tol
func (re *ReferenceElement) Contains(x []float64, tol float64) bool {
	in := func(v float64) bool { return v >= -1-tol && v <= 1+tol }
	switch re.Type {
	case Point:
		return true
	case Line:
		return in(x[0])
	case Tri:
		return x[0] >= -1-tol && x[1] >= -1-tol && x[0]+x[1] <= tol
	case Rectangle:
		return in(x[0]) && in(x[1])
	case Tet:
		return x[0] >= -1-tol && x[1] >= -1-tol && x[2] >= -1-tol && x[0]+x[1]+x[2] <= -1+tol
	case Hex:
		return in(x[0]) && in(x[1]) && in(x[2])
	case Prism:
		return x[0] >= -1-tol && x[1] >= -1-tol && x[0]+x[1] <= tol && in(x[2])
	case Pyramid:
		return in(x[2]) && x[0] >= -1-tol && x[1] >= -1-tol && x[0] <= -x[2]+tol && x[1] <= -x[2]+tol
	}
	return false
}

func (re *ReferenceElement) checkCodim(codim int) {
	if codim < 0 || codim > re.Dim() {
		panic(fmt.Sprintf("element: codimension %d out of range for %v", codim, re.Type))
	}
}

func (re *ReferenceElement) checkSubEntity(codim, i int) {
	re.checkCodim(codim)
	if i < 0 || i >= len(re.subEntities[codim]) {
		panic(fmt.Sprintf("element: sub-entity %d of codimension %d out of range for %v (%d sub-entities)",
			i, codim, re.Type, len(re.subEntities[codim])))
	}
}
