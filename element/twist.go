package element

import "fmt"

// Twist labels the orientation in which a sub-entity is seen from one of the cells
// sharing it. Twist t stands for a vertex permutation π_t of the sub-entity: the
// vertex in slot i of the twisted frame is the sub-entity's own vertex π_t[i].
//
// Every twist is a symmetry of the sub-entity's reference cell, so twisting never
// leaves the reference cell, it only reorders where points land.
type Twist int

// Inside is the identity twist, the orientation of the cell that owns the
// numbering of the shared sub-entity.
const Inside Twist = 0

var twistPermutations = [numGeometryTypes][][]int{
	Point: {{0}},
	Line:  {{0, 1}, {1, 0}},
	Tri: {
		{0, 1, 2}, {1, 2, 0}, {2, 0, 1}, // rotations
		{0, 2, 1}, {2, 1, 0}, {1, 0, 2}, // reflections
	},
	// Dihedral group of the square with lexicographic vertex numbering
	Rectangle: {
		{0, 1, 2, 3}, {1, 3, 0, 2}, {3, 2, 1, 0}, {2, 0, 3, 1}, // rotations
		{0, 2, 1, 3}, {1, 0, 3, 2}, {2, 3, 0, 1}, {3, 1, 2, 0}, // reflections
	},
	Tet:     {{0, 1, 2, 3}},
	Hex:     {{0, 1, 2, 3, 4, 5, 6, 7}},
	Prism:   {{0, 1, 2, 3, 4, 5}},
	Pyramid: {{0, 1, 2, 3, 4}},
}

// NumTwists returns how many twists the geometry admits as a shared sub-entity
func NumTwists(g GeometryType) int {
	if !g.Valid() {
		panic(fmt.Sprintf("element: unknown geometry type %d", uint8(g)))
	}
	return len(twistPermutations[g])
}

// Permutation returns the vertex permutation of twist t on geometry g
func Permutation(g GeometryType, t Twist) []int {
	if t < 0 || int(t) >= NumTwists(g) {
		panic(fmt.Sprintf("element: twist %d out of range for %v (%d twists)", t, g, NumTwists(g)))
	}
	return twistPermutations[g][t]
}

// FaceTwist finds the twist a neighbouring cell must use so that its view of a shared
// sub-entity of type g lines up with the inside view. inside and outside are the
// global vertex ids of the shared sub-entity as listed by each cell's reference
// numbering. It panics when the two lists do not describe the same sub-entity.
func FaceTwist(g GeometryType, inside, outside []int) Twist {
	if len(inside) != len(outside) {
		panic(fmt.Sprintf("element: sub-entity vertex counts differ: %v vs %v", inside, outside))
	}
	for t, perm := range twistPermutations[g] {
		if len(perm) != len(inside) {
			break
		}
		match := true
		for i, p := range perm {
			if outside[p] != inside[i] {
				match = false
				break
			}
		}
		if match {
			return Twist(t)
		}
	}
	panic(fmt.Sprintf("element: %v vertices %v and %v are not the same sub-entity", g, inside, outside))
}
