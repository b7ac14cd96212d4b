package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vandermonde3D builds V_{ij} = phi_j(r_i, s_i, t_i) for the orthonormal basis of
// order N on the reference tetrahedron
func Vandermonde3D(N int, r, s, t []float64) *mat.Dense {
	V3D := mat.NewDense(len(r), (N+1)*(N+2)*(N+3)/6, nil)
	a, b, c := RSTtoABC(r, s, t)
	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			for k := 0; k <= N-i-j; k++ {
				V3D.SetCol(sk, simplex3DP(a, b, c, i, j, k))
				sk++
			}
		}
	}
	return V3D
}

// GradVandermonde3D builds the gradient Vandermonde matrices,
// (Vr)_{ij} = dphi_j/dr at point i
func GradVandermonde3D(N int, r, s, t []float64) (Vr, Vs, Vt *mat.Dense) {
	Ncol := (N + 1) * (N + 2) * (N + 3) / 6
	Vr = mat.NewDense(len(r), Ncol, nil)
	Vs = mat.NewDense(len(r), Ncol, nil)
	Vt = mat.NewDense(len(r), Ncol, nil)
	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			for k := 0; k <= N-i-j; k++ {
				dr, ds, dt := GradSimplex3DP(r, s, t, i, j, k)
				Vr.SetCol(sk, dr)
				Vs.SetCol(sk, ds)
				Vt.SetCol(sk, dt)
				sk++
			}
		}
	}
	return
}

// Simplex3DP evaluates the 3D orthonormal polynomial of order (i,j,k) on the
// simplex at (r, s, t)
func Simplex3DP(r, s, t []float64, i, j, k int) []float64 {
	a, b, c := RSTtoABC(r, s, t)
	return simplex3DP(a, b, c, i, j, k)
}

func simplex3DP(a, b, c []float64, i, j, k int) []float64 {
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	h3 := JacobiP(c, float64(2*(i+j)+2), 0, k)
	P := make([]float64, len(a))
	for n := range P {
		P[n] = 2 * math.Sqrt2 * h1[n] * h2[n] * pow(1-b[n], i) * h3[n] * pow(1-c[n], i+j)
	}
	return P
}

// GradSimplex3DP evaluates the (r,s,t) derivatives of the 3D orthonormal
// polynomial of order (i,j,k) at (r, s, t)
func GradSimplex3DP(r, s, t []float64, i, j, k int) (dr, ds, dt []float64) {
	a, b, c := RSTtoABC(r, s, t)
	fa, dfa := JacobiP(a, 0, 0, i), GradJacobiP(a, 0, 0, i)
	gb, dgb := JacobiP(b, float64(2*i+1), 0, j), GradJacobiP(b, float64(2*i+1), 0, j)
	hc, dhc := JacobiP(c, float64(2*(i+j)+2), 0, k), GradJacobiP(c, float64(2*(i+j)+2), 0, k)

	Np := len(r)
	dr, ds, dt = make([]float64, Np), make([]float64, Np), make([]float64, Np)
	scale := math.Pow(2, float64(2*i+j)+1.5)
	for n := 0; n < Np; n++ {
		hb, hcc := 0.5*(1-b[n]), 0.5*(1-c[n])

		vr := dfa[n] * gb[n] * hc[n]
		if i > 0 {
			vr *= pow(hb, i-1)
		}
		if i+j > 0 {
			vr *= pow(hcc, i+j-1)
		}

		tmp := dgb[n] * pow(hb, i)
		if i > 0 {
			tmp -= 0.5 * float64(i) * gb[n] * pow(hb, i-1)
		}
		if i+j > 0 {
			tmp *= pow(hcc, i+j-1)
		}
		tmp = fa[n] * tmp * hc[n]
		vs := 0.5*(1+a[n])*vr + tmp

		vt := 0.5*(1+a[n])*vr + 0.5*(1+b[n])*tmp
		tc := dhc[n] * pow(hcc, i+j)
		if i+j > 0 {
			tc -= 0.5 * float64(i+j) * hc[n] * pow(hcc, i+j-1)
		}
		vt += fa[n] * gb[n] * tc * pow(hb, i)

		dr[n], ds[n], dt[n] = vr*scale, vs*scale, vt*scale
	}
	return
}

// RSTtoABC converts from (r,s,t) to collapsed (a,b,c) coordinates
func RSTtoABC(r, s, t []float64) (a, b, c []float64) {
	Np := len(r)
	a, b, c = make([]float64, Np), make([]float64, Np), make([]float64, Np)
	for n := 0; n < Np; n++ {
		if math.Abs(s[n]+t[n]) > 1.e-10 {
			a[n] = 2*(1+r[n])/(-s[n]-t[n]) - 1
		} else {
			a[n] = -1
		}
		if math.Abs(t[n]-1) > 1.e-10 {
			b[n] = 2*(1+s[n])/(1-t[n]) - 1
		} else {
			b[n] = -1
		}
		c[n] = t[n]
	}
	return
}
