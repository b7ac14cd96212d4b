// Package basis provides shape function sets evaluated in reference coordinates.
// The caching storage only relies on ShapeFunctionSet; sets that can also produce
// second derivatives implement HessianEvaluator.
package basis

import (
	"fmt"
	"strings"

	"github.com/notargets/femquad/element"
	"gonum.org/v1/gonum/mat"
)

// ShapeFunctionSet is a finite set of functions on the reference cell of one
// geometry type
type ShapeFunctionSet interface {
	GeometryType() element.GeometryType
	// Size is the number of functions
	Size() int
	// Order is the highest polynomial degree in the set
	Order() int
	// Evaluate writes the value of every function at x into values, len(values) == Size()
	Evaluate(x []float64, values []float64)
	// Jacobian writes ∂φ_i/∂x_d into grad, a [Size × dim] matrix
	Jacobian(x []float64, grad *mat.Dense)
}

// HessianEvaluator is implemented by sets that provide second derivatives
type HessianEvaluator interface {
	// Hessian writes the second derivatives of function i at x into hess[i],
	// [dim × dim] symmetric matrices
	Hessian(x []float64, hess []*mat.SymDense)
}

// Kind names a shape function family
type Kind string

const (
	KindMonomial Kind = "monomial"
	KindLegendre Kind = "legendre"
	KindDubiner  Kind = "dubiner"
)

// New builds the set of the given kind and order on g
func New(kind Kind, g element.GeometryType, order int) (ShapeFunctionSet, error) {
	if order < 0 {
		return nil, fmt.Errorf("negative basis order %d", order)
	}
	switch Kind(strings.ToLower(string(kind))) {
	case KindMonomial:
		if g == element.Point {
			return nil, fmt.Errorf("no monomial basis on %v", g)
		}
		return NewMonomial(g, order), nil
	case KindLegendre:
		if g != element.Line && g != element.Rectangle && g != element.Hex {
			return nil, fmt.Errorf("legendre basis needs a Line, Rectangle or Hex, got %v", g)
		}
		return NewTensorLegendre(g, order), nil
	case KindDubiner:
		switch g {
		case element.Tri:
			return NewDubiner(order), nil
		case element.Tet:
			return NewDubinerTet(order), nil
		}
		return nil, fmt.Errorf("dubiner basis needs a Tri or Tet, got %v", g)
	}
	return nil, fmt.Errorf("unknown basis kind %q", kind)
}

func checkPoint(g element.GeometryType, x []float64) {
	if len(x) != g.Dim() {
		panic(fmt.Sprintf("basis: %v point has %d coordinates, want %d", g, len(x), g.Dim()))
	}
}

func checkJacobian(set ShapeFunctionSet, grad *mat.Dense) {
	r, c := grad.Dims()
	if r != set.Size() || c != set.GeometryType().Dim() {
		panic(fmt.Sprintf("basis: jacobian is %dx%d, want %dx%d", r, c, set.Size(), set.GeometryType().Dim()))
	}
}

var (
	_ ShapeFunctionSet = (*Monomial)(nil)
	_ ShapeFunctionSet = (*TensorLegendre)(nil)
	_ ShapeFunctionSet = (*Dubiner)(nil)
	_ HessianEvaluator = (*Monomial)(nil)
	_ HessianEvaluator = (*TensorLegendre)(nil)
)
