package quadrature

import (
	"fmt"

	"github.com/notargets/femquad/element"
)

// Id identifies a quadrature within the id space of one spatial dimension. Ids are
// handed out sequentially from 0 and are never reused.
type Id int

// Key identifies a quadrature request.
//
// Geometry is the cell the quadrature is used on, the parent cell when Codim > 0.
// Sub is the geometry of the integration domain, Geometry itself for Codim 0. Sub
// is determined by (Geometry, Codim) except for prisms and pyramids, whose faces
// are triangles and quadrilaterals.
type Key struct {
	Geometry element.GeometryType
	Codim    int
	Order    int
	Sub      element.GeometryType
}

// CellKey returns the key of the cell-local quadrature of order on g
func CellKey(g element.GeometryType, order int) Key {
	return Key{Geometry: g, Order: order, Sub: g}
}

// SubEntityKey returns the key of the quadrature of order on sub-entity subEntity of
// codimension codim of parent. It panics on an out-of-range sub-entity.
func SubEntityKey(parent element.GeometryType, codim, subEntity, order int) Key {
	sub := element.Reference(parent).SubEntityType(codim, subEntity)
	return Key{Geometry: parent, Codim: codim, Order: order, Sub: sub}
}

// Dim returns the dimension whose id space the key belongs to
func (k Key) Dim() int { return k.Geometry.Dim() }

func (k Key) String() string {
	if k.Codim == 0 {
		return fmt.Sprintf("%v/order=%d", k.Geometry, k.Order)
	}
	return fmt.Sprintf("%v/codim=%d(%v)/order=%d", k.Geometry, k.Codim, k.Sub, k.Order)
}
