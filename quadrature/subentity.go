package quadrature

import (
	"fmt"
	"sync"

	"github.com/notargets/femquad/element"
)

// SubEntityQuadrature is a quadrature on a sub-entity of a cell, with its points
// mapped into the cell's reference coordinates for one sub-entity index and twist.
//
// The untransformed points are the shared cell-local PointList of the sub-entity
// type. The mapped points are computed on first use and belong to this value only.
type SubEntityQuadrature struct {
	id        Id
	key       Key
	local     *PointList
	subEntity int
	twist     element.Twist

	once      sync.Once
	placement element.Placement
	points    [][]float64
}

// Id returns the id of the (parent, codim, order) quadrature
func (q *SubEntityQuadrature) Id() Id { return q.id }

// Key returns the parent-space key
func (q *SubEntityQuadrature) Key() Key { return q.key }

// SubEntity returns the sub-entity index within the parent
func (q *SubEntityQuadrature) SubEntity() int { return q.subEntity }

// Twist returns the orientation the sub-entity is seen with
func (q *SubEntityQuadrature) Twist() element.Twist { return q.twist }

// PointList returns the shared cell-local list of the sub-entity type
func (q *SubEntityQuadrature) PointList() *PointList { return q.local }

// NumPoints returns the number of points
func (q *SubEntityQuadrature) NumPoints() int { return q.local.NumPoints() }

// Weight returns the weight of point i in the sub-entity's reference measure
func (q *SubEntityQuadrature) Weight(i int) float64 { return q.local.Weight(i) }

// LocalPoint returns point i in the sub-entity's own reference coordinates
func (q *SubEntityQuadrature) LocalPoint(i int) []float64 { return q.local.Point(i) }

// Point returns point i in the parent's reference coordinates
func (q *SubEntityQuadrature) Point(i int) []float64 {
	q.once.Do(q.transform)
	return q.points[i]
}

// Placement returns the affine map from sub-entity to parent coordinates
func (q *SubEntityQuadrature) Placement() element.Placement {
	q.once.Do(q.transform)
	return q.placement
}

// CachingPoint returns the row of point i in a storage table for this placement
func (q *SubEntityQuadrature) CachingPoint(i int) int {
	return CachingOffset(q.key, q.subEntity, q.twist, q.local.NumPoints()) + i
}

func (q *SubEntityQuadrature) transform() {
	q.placement = element.SubEntityPlacement(q.key.Geometry, q.key.Codim, q.subEntity, q.twist)
	q.points = make([][]float64, q.local.NumPoints())
	for i := range q.points {
		q.points[i] = q.placement.Map(q.local.Point(i))
	}
}

// CachingOffset returns the first storage table row of the placement
// (subEntity, twist) of a quadrature with the given key and size. Rows are laid
// out by sub-entity slot, then twist, then point.
func CachingOffset(key Key, subEntity int, twist element.Twist, size int) int {
	if key.Codim == 0 {
		return 0
	}
	ref := element.Reference(key.Geometry)
	if t := ref.SubEntityType(key.Codim, subEntity); t != key.Sub {
		panic(fmt.Sprintf("quadrature: sub-entity %d of %v is a %v, key %v is for %v",
			subEntity, key.Geometry, t, key, key.Sub))
	}
	nt := element.NumTwists(key.Sub)
	if twist < 0 || int(twist) >= nt {
		panic(fmt.Sprintf("quadrature: twist %d out of range for %v (%d twists)", twist, key.Sub, nt))
	}
	return (ref.Slot(key.Codim, subEntity)*nt + int(twist)) * size
}

// CachingRows returns how many table rows a storage needs for a quadrature of the
// given key and size
func CachingRows(key Key, size int) int {
	if key.Codim == 0 {
		return size
	}
	ref := element.Reference(key.Geometry)
	return len(ref.SubEntitiesOfType(key.Codim, key.Sub)) * element.NumTwists(key.Sub) * size
}

// Placements lists the placements of a sub-entity key in table row order
func Placements(key Key) []element.Placement {
	if key.Codim == 0 {
		return nil
	}
	ref := element.Reference(key.Geometry)
	var pls []element.Placement
	for _, se := range ref.SubEntitiesOfType(key.Codim, key.Sub) {
		for t := 0; t < element.NumTwists(key.Sub); t++ {
			pls = append(pls, element.SubEntityPlacement(key.Geometry, key.Codim, se, element.Twist(t)))
		}
	}
	return pls
}
