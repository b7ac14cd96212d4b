// Package rules generates quadrature points and weights on the reference cells.
//
// Every rule is a tensor product of Gauss-Jacobi rules in collapsed coordinates,
// the construction used by Cubature2D in NUDG: the Jacobian of the collapse is
// absorbed into the Jacobi weights, so a rule of order p integrates every
// polynomial of total degree p exactly with (p/2+1) points per direction.
package rules

import (
	"fmt"

	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/element/library/gonudg"
)

// PointsPerDirection returns the number of Gauss points per collapsed direction
// needed for exactness of the given order
func PointsPerDirection(order int) int {
	return order/2 + 1
}

// NumPoints returns the number of points Generate produces for (g, order)
func NumPoints(g element.GeometryType, order int) int {
	n := PointsPerDirection(order)
	switch g.Dim() {
	case 0:
		return 1
	case 1:
		return n
	case 2:
		return n * n
	}
	return n * n * n
}

// Generate returns the points and weights of the order-exact rule on the reference
// cell of g. Points are in [-1,1]^d reference coordinates and the weights add up to
// the reference cell volume.
func Generate(g element.GeometryType, order int) (points [][]float64, weights []float64) {
	if order < 0 {
		panic(fmt.Sprintf("rules: negative quadrature order %d", order))
	}
	N := PointsPerDirection(order) - 1
	switch g {
	case element.Point:
		return [][]float64{{}}, []float64{1}
	case element.Line:
		x, w := gonudg.JacobiGQ(0, 0, N)
		for i := range x {
			points = append(points, []float64{x[i]})
		}
		return points, w
	case element.Rectangle:
		x, w := gonudg.JacobiGQ(0, 0, N)
		for j := range x {
			for i := range x {
				points = append(points, []float64{x[i], x[j]})
				weights = append(weights, w[i]*w[j])
			}
		}
		return
	case element.Hex:
		x, w := gonudg.JacobiGQ(0, 0, N)
		for k := range x {
			for j := range x {
				for i := range x {
					points = append(points, []float64{x[i], x[j], x[k]})
					weights = append(weights, w[i]*w[j]*w[k])
				}
			}
		}
		return
	case element.Tri:
		return triangle(N)
	case element.Prism:
		tp, tw := triangle(N)
		x, w := gonudg.JacobiGQ(0, 0, N)
		for k := range x {
			for i := range tp {
				points = append(points, []float64{tp[i][0], tp[i][1], x[k]})
				weights = append(weights, tw[i]*w[k])
			}
		}
		return
	case element.Tet:
		a, wa := gonudg.JacobiGQ(0, 0, N)
		b, wb := gonudg.JacobiGQ(1, 0, N)
		c, wc := gonudg.JacobiGQ(2, 0, N)
		for k := range c {
			for j := range b {
				for i := range a {
					r := 0.25*(1+a[i])*(1-b[j])*(1-c[k]) - 1
					s := 0.5*(1+b[j])*(1-c[k]) - 1
					points = append(points, []float64{r, s, c[k]})
					weights = append(weights, 0.125*wa[i]*wb[j]*wc[k])
				}
			}
		}
		return
	case element.Pyramid:
		// apex at (-1,-1,1): both r and s collapse with (1-t)
		a, wa := gonudg.JacobiGQ(0, 0, N)
		c, wc := gonudg.JacobiGQ(2, 0, N)
		for k := range c {
			for j := range a {
				for i := range a {
					r := 0.5*(1+a[i])*(1-c[k]) - 1
					s := 0.5*(1+a[j])*(1-c[k]) - 1
					points = append(points, []float64{r, s, c[k]})
					weights = append(weights, 0.25*wa[i]*wa[j]*wc[k])
				}
			}
		}
		return
	}
	panic(fmt.Sprintf("rules: no quadrature rule for geometry %v", g))
}

func triangle(N int) (points [][]float64, weights []float64) {
	a, wa := gonudg.JacobiGQ(0, 0, N)
	b, wb := gonudg.JacobiGQ(1, 0, N)
	for j := range b {
		for i := range a {
			r := 0.5*(1+a[i])*(1-b[j]) - 1
			points = append(points, []float64{r, b[j]})
			weights = append(weights, 0.5*wa[i]*wb[j])
		}
	}
	return
}
