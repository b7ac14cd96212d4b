package basis

import (
	"fmt"

	"github.com/notargets/femquad/element"
	"gonum.org/v1/gonum/mat"
)

// Monomial is the total degree basis r^a s^b t^c, a+b+c <= order, ordered by
// degree then lexicographically. It is defined on every cell type of dimension 1
// to 3 and is mostly useful for exactness checks.
type Monomial struct {
	geometry  element.GeometryType
	order     int
	exponents [][3]int
}

// NewMonomial returns the monomial set of order on g
func NewMonomial(g element.GeometryType, order int) *Monomial {
	dim := g.Dim()
	if dim == 0 {
		panic(fmt.Sprintf("basis: no monomial basis on %v", g))
	}
	m := &Monomial{geometry: g, order: order}
	for deg := 0; deg <= order; deg++ {
		for a := deg; a >= 0; a-- {
			for b := deg - a; b >= 0; b-- {
				c := deg - a - b
				if (dim < 2 && b > 0) || (dim < 3 && c > 0) {
					continue
				}
				m.exponents = append(m.exponents, [3]int{a, b, c})
			}
		}
	}
	return m
}

func (m *Monomial) GeometryType() element.GeometryType { return m.geometry }
func (m *Monomial) Size() int                          { return len(m.exponents) }
func (m *Monomial) Order() int                         { return m.order }

// Exponents returns the exponents of function i
func (m *Monomial) Exponents(i int) [3]int { return m.exponents[i] }

func (m *Monomial) Evaluate(x []float64, values []float64) {
	checkPoint(m.geometry, x)
	for i, e := range m.exponents {
		v := 1.0
		for d := range x {
			v *= ipow(x[d], e[d])
		}
		values[i] = v
	}
}

func (m *Monomial) Jacobian(x []float64, grad *mat.Dense) {
	checkPoint(m.geometry, x)
	checkJacobian(m, grad)
	for i, e := range m.exponents {
		for d := range x {
			grad.Set(i, d, m.derivative(x, e, d, -1))
		}
	}
}

func (m *Monomial) Hessian(x []float64, hess []*mat.SymDense) {
	checkPoint(m.geometry, x)
	for i, e := range m.exponents {
		for d := range x {
			for k := d; k < len(x); k++ {
				hess[i].SetSym(d, k, m.derivative(x, e, d, k))
			}
		}
	}
}

// derivative differentiates x^e once along d1 and, when d2 >= 0, once more along d2
func (m *Monomial) derivative(x []float64, e [3]int, d1, d2 int) float64 {
	v := 1.0
	for d := range x {
		n := 0
		if d == d1 {
			n++
		}
		if d == d2 {
			n++
		}
		v *= dpow(x[d], e[d], n)
	}
	return v
}

// dpow returns the n-th derivative of x^p
func dpow(x float64, p, n int) float64 {
	if n > p {
		return 0
	}
	coef := 1.0
	for k := 0; k < n; k++ {
		coef *= float64(p - k)
	}
	return coef * ipow(x, p-n)
}

func ipow(x float64, n int) float64 {
	v := 1.0
	for ; n > 0; n-- {
		v *= x
	}
	return v
}
