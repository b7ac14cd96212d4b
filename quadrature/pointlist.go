package quadrature

import (
	"fmt"

	"github.com/notargets/femquad/element"
)

// Generator produces the points and weights of a rule of the given order on the
// reference cell of g. It must be deterministic.
type Generator func(g element.GeometryType, order int) (points [][]float64, weights []float64)

// PointList is the immutable point/weight sequence of one cell-local quadrature.
// A single instance exists per key and is shared by pointer.
type PointList struct {
	id      Id
	key     Key
	points  [][]float64
	weights []float64
}

func newPointList(key Key, points [][]float64, weights []float64) *PointList {
	if len(points) != len(weights) {
		panic(fmt.Sprintf("quadrature: %v generator returned %d points and %d weights",
			key, len(points), len(weights)))
	}
	dim := key.Sub.Dim()
	pl := &PointList{
		key:     key,
		points:  make([][]float64, len(points)),
		weights: append([]float64(nil), weights...),
	}
	for i, p := range points {
		if len(p) != dim {
			panic(fmt.Sprintf("quadrature: %v point %d has %d coordinates, want %d", key, i, len(p), dim))
		}
		pl.points[i] = append([]float64(nil), p...)
	}
	return pl
}

// Id returns the quadrature id
func (pl *PointList) Id() Id { return pl.id }

// Key returns the key the list was created for
func (pl *PointList) Key() Key { return pl.key }

// Geometry returns the reference cell the points live on
func (pl *PointList) Geometry() element.GeometryType { return pl.key.Sub }

// Order returns the polynomial order the rule is exact for
func (pl *PointList) Order() int { return pl.key.Order }

// NumPoints returns the number of points
func (pl *PointList) NumPoints() int { return len(pl.points) }

// Point returns the reference coordinates of point i. The slice is shared and must
// not be modified.
func (pl *PointList) Point(i int) []float64 { return pl.points[i] }

// Weight returns the weight of point i
func (pl *PointList) Weight(i int) float64 { return pl.weights[i] }

// Points returns all points, shared
func (pl *PointList) Points() [][]float64 { return pl.points }

// Weights returns all weights, shared
func (pl *PointList) Weights() []float64 { return pl.weights }

// CachingPoint returns the row of point i in a storage table, which for cell-local
// lists is i itself
func (pl *PointList) CachingPoint(i int) int { return i }
