package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Placement is the affine map taking reference coordinates of a sub-entity into the
// reference coordinates of its parent cell, for one sub-entity index and twist.
type Placement struct {
	Parent    GeometryType
	Sub       GeometryType
	Codim     int
	SubEntity int
	Twist     Twist

	origin []float64   // parent coordinates of the twisted frame origin
	axes   [][]float64 // [subDim][parentDim], half the frame edge vectors
}

// SubEntityPlacement builds the placement of sub-entity subEntity of codimension
// codim inside parent, seen with the given twist. Out-of-range arguments are
// programming errors and panic.
func SubEntityPlacement(parent GeometryType, codim, subEntity int, twist Twist) Placement {
	ref := Reference(parent)
	verts := ref.SubEntity(codim, subEntity)
	sub := ref.SubEntityType(codim, subEntity)
	perm := Permutation(sub, twist)
	frame := Reference(sub).Frame

	corner := func(slot int) []float64 { return ref.Vertices[verts[perm[slot]]] }

	p := Placement{
		Parent:    parent,
		Sub:       sub,
		Codim:     codim,
		SubEntity: subEntity,
		Twist:     twist,
		origin:    append([]float64(nil), corner(frame[0])...),
		axes:      make([][]float64, sub.Dim()),
	}
	for d := range p.axes {
		tip := corner(frame[d+1])
		p.axes[d] = make([]float64, parent.Dim())
		for k := range p.axes[d] {
			p.axes[d][k] = 0.5 * (tip[k] - p.origin[k])
		}
	}
	return p
}

// Map returns the parent coordinates of the sub-entity point xi
func (p Placement) Map(xi []float64) []float64 {
	x := make([]float64, len(p.origin))
	p.MapTo(x, xi)
	return x
}

// MapTo writes the parent coordinates of xi into x
func (p Placement) MapTo(x, xi []float64) {
	if len(xi) != len(p.axes) {
		panic(fmt.Sprintf("element: %v point has %d coordinates, want %d", p.Sub, len(xi), len(p.axes)))
	}
	copy(x, p.origin)
	for d, a := range p.axes {
		s := xi[d] + 1
		for k := range x {
			x[k] += a[k] * s
		}
	}
}

// Jacobian returns ∂x/∂ξ of the placement as a [parentDim × subDim] matrix, or nil
// for point sub-entities.
func (p Placement) Jacobian() *mat.Dense {
	if len(p.axes) == 0 {
		return nil
	}
	J := mat.NewDense(len(p.origin), len(p.axes), nil)
	for d, a := range p.axes {
		J.SetCol(d, a)
	}
	return J
}

// Scale returns the ratio between the measure of the sub-entity inside the parent
// reference cell and the measure of the sub-entity's own reference cell.
func (p Placement) Scale() float64 {
	J := p.Jacobian()
	if J == nil {
		return 1
	}
	return MeasureScale(J)
}

// MeasureScale returns sqrt(det(JᵀJ)), the volume scaling of a possibly
// rectangular Jacobian.
func MeasureScale(J mat.Matrix) float64 {
	_, c := J.Dims()
	G := mat.NewSymDense(c, nil)
	G.SymOuterK(1, J.T())
	return sqrtAbs(mat.Det(G))
}
