// Package caching implements a quadrature.Storage that evaluates a shape function
// set once per quadrature id and serves the tabulated values during assembly.
package caching

import (
	"fmt"

	"github.com/notargets/femquad/basis"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Storage caches the values, gradients and, when available, hessians of a shape
// function set at the points of every quadrature of its geometry type.
//
// Tables are built in the single threaded phase when the registry announces a
// quadrature and never change afterwards, so reads need no locking.
type Storage struct {
	ctx          *quadrature.Context
	set          basis.ShapeFunctionSet
	registration *quadrature.Registration
	log          zerolog.Logger

	tables      []*Table // by quadrature id
	evaluations int
}

// New creates a storage for set and registers it with ctx. Quadratures that exist
// already are tabulated before New returns.
func New(ctx *quadrature.Context, set basis.ShapeFunctionSet) *Storage {
	s := &Storage{
		ctx: ctx,
		set: set,
		log: ctx.Logger().With().
			Str("storage", "caching").
			Stringer("geometry", set.GeometryType()).
			Logger(),
	}
	s.registration = ctx.Registry().Register(s)
	return s
}

// GeometryType implements quadrature.Storage
func (s *Storage) GeometryType() element.GeometryType { return s.set.GeometryType() }

// Set returns the cached shape function set
func (s *Storage) Set() basis.ShapeFunctionSet { return s.set }

// CacheQuadrature implements quadrature.Storage. The registry does not deduplicate
// broadcasts; a repeated announcement of an id keeps the first table and is not
// counted in Evaluations.
func (s *Storage) CacheQuadrature(id quadrature.Id, codim int, size int) {
	if s.Has(id) {
		return
	}
	key, pl := s.ctx.Lookup(s.set.GeometryType().Dim(), id)
	if pl.NumPoints() != size {
		panic(fmt.Sprintf("caching: quadrature %d (%v) announced with %d points, list has %d",
			id, key, size, pl.NumPoints()))
	}
	if key.Geometry != s.set.GeometryType() || key.Codim != codim {
		panic(fmt.Sprintf("caching: quadrature %d is %v, announced as codim %d for %v",
			id, key, codim, s.set.GeometryType()))
	}
	for int(id) >= len(s.tables) {
		s.tables = append(s.tables, nil)
	}
	tb := buildTable(key, codim, pl, s.set)
	s.tables[id] = tb
	s.evaluations++

	s.log.Debug().
		Int("id", int(id)).
		Stringer("key", key).
		Int("rows", tb.Rows).
		Int("size", s.set.Size()).
		Bool("hessians", tb.Hessians != nil).
		Msg("tabulated shape functions")
}

// Has reports whether id has been tabulated
func (s *Storage) Has(id quadrature.Id) bool {
	return id >= 0 && int(id) < len(s.tables) && s.tables[id] != nil
}

// Evaluations returns how many tables have been built
func (s *Storage) Evaluations() int { return s.evaluations }

// Table returns the table of id
func (s *Storage) Table(id quadrature.Id) *Table {
	if !s.Has(id) {
		panic(fmt.Sprintf("caching: no table for quadrature id %d of %v", id, s.set.GeometryType()))
	}
	return s.tables[id]
}

// Values returns the [rows × size] value table of id
func (s *Storage) Values(id quadrature.Id) mat.Matrix { return s.Table(id).Values }

// Jacobians returns the per-direction derivative tables of id
func (s *Storage) Jacobians(id quadrature.Id) []*mat.Dense { return s.Table(id).Jacobians }

func (s *Storage) row(id quadrature.Id, point int, dofs []float64) *Table {
	tb := s.Table(id)
	if point < 0 || point >= tb.Rows {
		panic(fmt.Sprintf("caching: point %d out of range for quadrature %d (%d rows)", point, id, tb.Rows))
	}
	if len(dofs) != s.set.Size() {
		panic(fmt.Sprintf("caching: %d dofs for a set of size %d", len(dofs), s.set.Size()))
	}
	return tb
}

// Row returns the basis values at a table row. The slice aliases the table.
func (s *Storage) Row(id quadrature.Id, point int) []float64 {
	tb := s.Table(id)
	if point < 0 || point >= tb.Rows {
		panic(fmt.Sprintf("caching: point %d out of range for quadrature %d (%d rows)", point, id, tb.Rows))
	}
	return tb.Values.RawRowView(point)
}

// EvaluateAll returns Σ_i dofs[i] φ_i at table row point of quadrature id. For
// sub-entity quadratures point is SubEntityQuadrature.CachingPoint(i).
func (s *Storage) EvaluateAll(id quadrature.Id, point int, dofs []float64) float64 {
	tb := s.row(id, point, dofs)
	return floats.Dot(tb.Values.RawRowView(point), dofs)
}

// JacobianAll returns the reference gradient of Σ_i dofs[i] φ_i at a table row
func (s *Storage) JacobianAll(id quadrature.Id, point int, dofs []float64) []float64 {
	tb := s.row(id, point, dofs)
	grad := make([]float64, len(tb.Jacobians))
	for d, J := range tb.Jacobians {
		grad[d] = floats.Dot(J.RawRowView(point), dofs)
	}
	return grad
}

// HessianAll returns the reference hessian of Σ_i dofs[i] φ_i at a table row. It
// panics if the set has no second derivatives.
func (s *Storage) HessianAll(id quadrature.Id, point int, dofs []float64) *mat.SymDense {
	tb := s.row(id, point, dofs)
	if tb.Hessians == nil {
		panic(fmt.Sprintf("caching: %T provides no hessians", s.set))
	}
	dim := len(tb.Jacobians)
	H := mat.NewSymDense(dim, nil)
	for a := 0; a < dim; a++ {
		for b := a; b < dim; b++ {
			H.SetSym(a, b, floats.Dot(tb.Hessians[a*dim+b].RawRowView(point), dofs))
		}
	}
	return H
}

// Close releases the registration. The tables stay readable.
func (s *Storage) Close() {
	s.registration.Release()
	s.log.Debug().Int("tables", s.evaluations).Msg("caching storage closed")
}
