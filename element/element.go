package element

import "fmt"

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
	D3                       // 3D elements (tetrahedra, hexahedra, etc.)
)

// GeometryType identifies the shape of a reference cell
type GeometryType uint8

const (
	// 3D element types
	Tet     GeometryType = iota // Tetrahedron
	Hex                         // Hexahedron
	Prism                       // Triangular prism
	Pyramid                     // Square-based pyramid

	// 2D element types
	Tri       // Triangle
	Rectangle // Rectangle/Quadrilateral

	// 1D element type
	Line // Line segment

	// 0D element type, the sub-entity of codimension dim
	Point

	numGeometryTypes
)

// GeometryTypes lists every supported geometry type
var GeometryTypes = []GeometryType{Tet, Hex, Prism, Pyramid, Tri, Rectangle, Line, Point}

var geometryNames = [...]string{
	Tet:       "Tet",
	Hex:       "Hex",
	Prism:     "Prism",
	Pyramid:   "Pyramid",
	Tri:       "Tri",
	Rectangle: "Rectangle",
	Line:      "Line",
	Point:     "Point",
}

func (g GeometryType) String() string {
	if !g.Valid() {
		return fmt.Sprintf("GeometryType(%d)", uint8(g))
	}
	return geometryNames[g]
}

// Valid reports whether g is one of the known geometry types
func (g GeometryType) Valid() bool { return g < numGeometryTypes }

// Dimensions returns the reference space dimension of the geometry
func (g GeometryType) Dimensions() Dimensionality {
	switch g {
	case Tet, Hex, Prism, Pyramid:
		return D3
	case Tri, Rectangle:
		return D2
	case Line:
		return D1
	case Point:
		return D0
	}
	panic(fmt.Sprintf("element: unknown geometry type %d", uint8(g)))
}

// Dim is Dimensions as an int, convenient for slice sizing
func (g GeometryType) Dim() int { return int(g.Dimensions()) }

// IsSimplex reports whether the geometry is a point, line, triangle or tetrahedron
func (g GeometryType) IsSimplex() bool {
	return g == Point || g == Line || g == Tri || g == Tet
}

// ParseGeometryType resolves a geometry name as printed by String, case-sensitive
func ParseGeometryType(name string) (GeometryType, error) {
	for _, g := range GeometryTypes {
		if geometryNames[g] == name {
			return g, nil
		}
	}
	switch name {
	case "Quadrilateral", "Quad":
		return Rectangle, nil
	case "Tetrahedron":
		return Tet, nil
	case "Hexahedron":
		return Hex, nil
	case "Triangle":
		return Tri, nil
	}
	return 0, fmt.Errorf("unknown geometry type %q", name)
}
