package caching

import (
	"github.com/notargets/femquad/basis"
	"github.com/notargets/femquad/quadrature"
	"gonum.org/v1/gonum/mat"
)

// Table holds a shape function set evaluated at every row of one quadrature.
// Cell quadratures have one row per point. Sub-entity quadratures have one row per
// (slot, twist, point), in quadrature.CachingOffset order, so every placement of
// the sub-entity in the parent is covered.
type Table struct {
	Key    quadrature.Key
	Codim  int
	Points int // points per placement
	Rows   int

	Values    *mat.Dense   // [Rows × Size]
	Jacobians []*mat.Dense // [dim][Rows × Size], ∂φ/∂x_d
	Hessians  []*mat.Dense // upper triangle (a,b) at a*dim+b, nil without second derivatives
}

// Coordinates returns the parent reference coordinates of every row of a table
// for key, built from the point list pl
func Coordinates(key quadrature.Key, pl *quadrature.PointList) [][]float64 {
	size := pl.NumPoints()
	if key.Codim == 0 {
		return pl.Points()
	}
	placements := quadrature.Placements(key)
	coords := make([][]float64, 0, len(placements)*size)
	for _, p := range placements {
		for i := 0; i < size; i++ {
			coords = append(coords, p.Map(pl.Point(i)))
		}
	}
	return coords
}

func buildTable(key quadrature.Key, codim int, pl *quadrature.PointList, set basis.ShapeFunctionSet) *Table {
	coords := Coordinates(key, pl)
	n, dim := set.Size(), set.GeometryType().Dim()
	tb := &Table{
		Key:       key,
		Codim:     codim,
		Points:    pl.NumPoints(),
		Rows:      len(coords),
		Values:    mat.NewDense(len(coords), n, nil),
		Jacobians: make([]*mat.Dense, dim),
	}
	for d := range tb.Jacobians {
		tb.Jacobians[d] = mat.NewDense(tb.Rows, n, nil)
	}
	he, hasHessian := set.(basis.HessianEvaluator)
	var hess []*mat.SymDense
	if hasHessian {
		tb.Hessians = make([]*mat.Dense, dim*dim)
		for a := 0; a < dim; a++ {
			for b := a; b < dim; b++ {
				tb.Hessians[a*dim+b] = mat.NewDense(tb.Rows, n, nil)
			}
		}
		hess = make([]*mat.SymDense, n)
		for i := range hess {
			hess[i] = mat.NewSymDense(dim, nil)
		}
	}

	grad := mat.NewDense(n, dim, nil)
	for row, x := range coords {
		set.Evaluate(x, tb.Values.RawRowView(row))
		set.Jacobian(x, grad)
		for d := 0; d < dim; d++ {
			for i := 0; i < n; i++ {
				tb.Jacobians[d].Set(row, i, grad.At(i, d))
			}
		}
		if !hasHessian {
			continue
		}
		he.Hessian(x, hess)
		for a := 0; a < dim; a++ {
			for b := a; b < dim; b++ {
				for i := 0; i < n; i++ {
					tb.Hessians[a*dim+b].Set(row, i, hess[i].At(a, b))
				}
			}
		}
	}
	return tb
}
