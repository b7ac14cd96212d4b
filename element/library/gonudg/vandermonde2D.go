package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vandermonde2D builds V_{ij} = phi_j(r_i, s_i) for the orthonormal basis of
// order N on the reference triangle
func Vandermonde2D(N int, R, S []float64) *mat.Dense {
	V2D := mat.NewDense(len(R), (N+1)*(N+2)/2, nil)
	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			V2D.SetCol(sk, Simplex2DP(R, S, i, j))
			sk++
		}
	}
	return V2D
}

// GradVandermonde2D builds (Vr)_{ij} = dphi_j/dr and (Vs)_{ij} = dphi_j/ds at (r_i, s_i)
func GradVandermonde2D(N int, R, S []float64) (Vr, Vs *mat.Dense) {
	Ncol := (N + 1) * (N + 2) / 2
	Vr = mat.NewDense(len(R), Ncol, nil)
	Vs = mat.NewDense(len(R), Ncol, nil)
	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			dr, ds := GradSimplex2DP(R, S, i, j)
			Vr.SetCol(sk, dr)
			Vs.SetCol(sk, ds)
			sk++
		}
	}
	return
}

// Simplex2DP evaluates the 2D orthonormal polynomial of order (i,j) on the simplex
// at (R, S)
func Simplex2DP(R, S []float64, i, j int) []float64 {
	a, b := RStoAB(R, S)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	P := make([]float64, len(R))
	for ii := range h1 {
		P[ii] = math.Sqrt2 * h1[ii] * h2[ii] * pow(1-b[ii], i)
	}
	return P
}

// GradSimplex2DP evaluates the (r,s) derivatives of the 2D orthonormal polynomial of
// order (i,j) at (R, S)
func GradSimplex2DP(R, S []float64, i, j int) (dmodedr, dmodeds []float64) {
	a, b := RStoAB(R, S)
	fa := JacobiP(a, 0, 0, i)
	dfa := GradJacobiP(a, 0, 0, i)
	gb := JacobiP(b, float64(2*i+1), 0, j)
	dgb := GradJacobiP(b, float64(2*i+1), 0, j)

	Np := len(R)
	dmodedr = make([]float64, Np)
	dmodeds = make([]float64, Np)
	scale := math.Pow(2, float64(i)+0.5)
	for n := 0; n < Np; n++ {
		hb := 0.5 * (1 - b[n])
		// r-derivative: d/dr = da/dr d/da = 2/(1-b) d/da
		dr := dfa[n] * gb[n]
		if i > 0 {
			dr *= pow(hb, i-1)
		}
		// s-derivative: d/ds = ((1+a)/2)/((1-b)/2) d/da + d/db
		ds := dfa[n] * gb[n] * 0.5 * (1 + a[n])
		if i > 0 {
			ds *= pow(hb, i-1)
		}
		tmp := dgb[n] * pow(hb, i)
		if i > 0 {
			tmp -= 0.5 * float64(i) * gb[n] * pow(hb, i-1)
		}
		ds += fa[n] * tmp

		dmodedr[n] = dr * scale
		dmodeds[n] = ds * scale
	}
	return
}

// RStoAB converts from (r,s) to collapsed (a,b) coordinates
func RStoAB(R, S []float64) (a, b []float64) {
	Np := len(R)
	a = make([]float64, Np)
	b = make([]float64, Np)
	for n := 0; n < Np; n++ {
		if S[n] != 1 {
			a[n] = 2*(1+R[n])/(1-S[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = S[n]
	}
	return
}

// pow computes x^n for integer n >= 0
func pow(x float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= x
	}
	return result
}
