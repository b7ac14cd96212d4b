package basis

import (
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/element/library/gonudg"
	"gonum.org/v1/gonum/mat"
)

// TensorLegendre is the Q_k basis of products of orthonormal Legendre polynomials
// on Line, Rectangle and Hex cells. Function (i,j,k) has index i + n*(j + n*k),
// n = order+1.
type TensorLegendre struct {
	geometry element.GeometryType
	order    int
	size     int
}

// NewTensorLegendre returns the tensor Legendre set of order on g
func NewTensorLegendre(g element.GeometryType, order int) *TensorLegendre {
	size := 1
	for d := 0; d < g.Dim(); d++ {
		size *= order + 1
	}
	return &TensorLegendre{geometry: g, order: order, size: size}
}

func (tl *TensorLegendre) GeometryType() element.GeometryType { return tl.geometry }
func (tl *TensorLegendre) Size() int                          { return tl.size }
func (tl *TensorLegendre) Order() int                         { return tl.order }

// factors tabulates P_n, P_n' and P_n'' along every coordinate of x
func (tl *TensorLegendre) factors(x []float64) (p, dp, d2p [][]float64) {
	dim := len(x)
	p = make([][]float64, dim)
	dp = make([][]float64, dim)
	d2p = make([][]float64, dim)
	for d := 0; d < dim; d++ {
		p[d] = make([]float64, tl.order+1)
		dp[d] = make([]float64, tl.order+1)
		d2p[d] = make([]float64, tl.order+1)
		xd := []float64{x[d]}
		for n := 0; n <= tl.order; n++ {
			p[d][n] = gonudg.JacobiP(xd, 0, 0, n)[0]
			dp[d][n] = gonudg.GradJacobiP(xd, 0, 0, n)[0]
			d2p[d][n] = gonudg.Grad2JacobiP(xd, 0, 0, n)[0]
		}
	}
	return
}

// index decomposes function i into per-direction polynomial degrees
func (tl *TensorLegendre) index(i, dim int) (deg [3]int) {
	n := tl.order + 1
	for d := 0; d < dim; d++ {
		deg[d] = i % n
		i /= n
	}
	return
}

func (tl *TensorLegendre) Evaluate(x []float64, values []float64) {
	checkPoint(tl.geometry, x)
	p, _, _ := tl.factors(x)
	for i := 0; i < tl.size; i++ {
		deg := tl.index(i, len(x))
		v := 1.0
		for d := range x {
			v *= p[d][deg[d]]
		}
		values[i] = v
	}
}

func (tl *TensorLegendre) Jacobian(x []float64, grad *mat.Dense) {
	checkPoint(tl.geometry, x)
	checkJacobian(tl, grad)
	p, dp, _ := tl.factors(x)
	for i := 0; i < tl.size; i++ {
		deg := tl.index(i, len(x))
		for dir := range x {
			v := 1.0
			for d := range x {
				if d == dir {
					v *= dp[d][deg[d]]
				} else {
					v *= p[d][deg[d]]
				}
			}
			grad.Set(i, dir, v)
		}
	}
}

func (tl *TensorLegendre) Hessian(x []float64, hess []*mat.SymDense) {
	checkPoint(tl.geometry, x)
	p, dp, d2p := tl.factors(x)
	for i := 0; i < tl.size; i++ {
		deg := tl.index(i, len(x))
		for a := range x {
			for b := a; b < len(x); b++ {
				v := 1.0
				for d := range x {
					switch {
					case d == a && d == b:
						v *= d2p[d][deg[d]]
					case d == a || d == b:
						v *= dp[d][deg[d]]
					default:
						v *= p[d][deg[d]]
					}
				}
				hess[i].SetSym(a, b, v)
			}
		}
	}
}
