package basis

import (
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/element/library/gonudg"
	"gonum.org/v1/gonum/mat"
)

// Dubiner is the orthonormal P_k basis of the reference triangle or tetrahedron,
// in the column order of gonudg.Vandermonde2D / Vandermonde3D. It has no second
// derivatives.
type Dubiner struct {
	geometry element.GeometryType
	order    int
	modes    [][3]int
}

// NewDubiner returns the orthonormal triangle basis of order
func NewDubiner(order int) *Dubiner {
	db := &Dubiner{geometry: element.Tri, order: order}
	for i := 0; i <= order; i++ {
		for j := 0; j <= order-i; j++ {
			db.modes = append(db.modes, [3]int{i, j, 0})
		}
	}
	return db
}

// NewDubinerTet returns the orthonormal tetrahedron basis of order
func NewDubinerTet(order int) *Dubiner {
	db := &Dubiner{geometry: element.Tet, order: order}
	for i := 0; i <= order; i++ {
		for j := 0; j <= order-i; j++ {
			for k := 0; k <= order-i-j; k++ {
				db.modes = append(db.modes, [3]int{i, j, k})
			}
		}
	}
	return db
}

func (db *Dubiner) GeometryType() element.GeometryType { return db.geometry }
func (db *Dubiner) Size() int                          { return len(db.modes) }
func (db *Dubiner) Order() int                         { return db.order }

func (db *Dubiner) Evaluate(x []float64, values []float64) {
	checkPoint(db.geometry, x)
	r, s := []float64{x[0]}, []float64{x[1]}
	for n, m := range db.modes {
		if db.geometry == element.Tet {
			values[n] = gonudg.Simplex3DP(r, s, []float64{x[2]}, m[0], m[1], m[2])[0]
			continue
		}
		values[n] = gonudg.Simplex2DP(r, s, m[0], m[1])[0]
	}
}

func (db *Dubiner) Jacobian(x []float64, grad *mat.Dense) {
	checkPoint(db.geometry, x)
	checkJacobian(db, grad)
	r, s := []float64{x[0]}, []float64{x[1]}
	for n, m := range db.modes {
		if db.geometry == element.Tet {
			dr, ds, dt := gonudg.GradSimplex3DP(r, s, []float64{x[2]}, m[0], m[1], m[2])
			grad.Set(n, 0, dr[0])
			grad.Set(n, 1, ds[0])
			grad.Set(n, 2, dt[0])
			continue
		}
		dr, ds := gonudg.GradSimplex2DP(r, s, m[0], m[1])
		grad.Set(n, 0, dr[0])
		grad.Set(n, 1, ds[0])
	}
}
