package basis

import (
	"fmt"
	"testing"

	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind Kind
		g    element.GeometryType
		size int
		err  bool
	}{
		{KindMonomial, element.Tet, 10, false},
		{KindMonomial, element.Line, 3, false},
		{KindMonomial, element.Point, 0, true},
		{KindLegendre, element.Rectangle, 9, false},
		{KindLegendre, element.Hex, 27, false},
		{KindLegendre, element.Tri, 0, true},
		{"Dubiner", element.Tri, 6, false},
		{KindDubiner, element.Tet, 10, false},
		{KindDubiner, element.Rectangle, 0, true},
		{"spline", element.Line, 0, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.kind, tt.g), func(t *testing.T) {
			set, err := New(tt.kind, tt.g, 2)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, set.Size())
			assert.Equal(t, tt.g, set.GeometryType())
			assert.Equal(t, 2, set.Order())
		})
	}
	_, err := New(KindMonomial, element.Tri, -1)
	assert.Error(t, err)
}

func TestMonomialExact(t *testing.T) {
	m := NewMonomial(element.Tri, 2)
	// 1, r, s, r², rs, s²
	assert.Equal(t, [3]int{1, 1, 0}, m.Exponents(4))
	x := []float64{0.5, -0.25}
	values := make([]float64, m.Size())
	m.Evaluate(x, values)
	assert.InDeltaSlice(t, []float64{1, 0.5, -0.25, 0.25, -0.125, 0.0625}, values, 1.e-15)

	grad := mat.NewDense(m.Size(), 2, nil)
	m.Jacobian(x, grad)
	assert.InDeltaSlice(t, []float64{0, 1, 0, 1, -0.25, 0}, mat.Col(nil, 0, grad), 1.e-15)
	assert.InDeltaSlice(t, []float64{0, 0, 1, 0, 0.5, -0.5}, mat.Col(nil, 1, grad), 1.e-15)

	hess := newHessians(m.Size(), 2)
	m.Hessian(x, hess)
	assert.Equal(t, 2., hess[3].At(0, 0))
	assert.Equal(t, 1., hess[4].At(0, 1))
	assert.Equal(t, 1., hess[4].At(1, 0))
	assert.Equal(t, 2., hess[5].At(1, 1))
	assert.Equal(t, 0., hess[1].At(0, 0))
}

func newHessians(n, dim int) []*mat.SymDense {
	hess := make([]*mat.SymDense, n)
	for i := range hess {
		hess[i] = mat.NewSymDense(dim, nil)
	}
	return hess
}

func gram(t *testing.T, set ShapeFunctionSet) *mat.Dense {
	points, weights := rules.Generate(set.GeometryType(), 2*set.Order())
	n := set.Size()
	G := mat.NewDense(n, n, nil)
	values := make([]float64, n)
	for q, p := range points {
		set.Evaluate(p, values)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				G.Set(i, j, G.At(i, j)+weights[q]*values[i]*values[j])
			}
		}
	}
	return G
}

func TestOrthonormalSets(t *testing.T) {
	for _, set := range []ShapeFunctionSet{
		NewDubiner(4),
		NewDubinerTet(3),
		NewTensorLegendre(element.Line, 5),
		NewTensorLegendre(element.Rectangle, 3),
		NewTensorLegendre(element.Hex, 2),
	} {
		t.Run(fmt.Sprintf("%v/%d", set.GeometryType(), set.Order()), func(t *testing.T) {
			G := gram(t, set)
			n := set.Size()
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					want := 0.0
					if i == j {
						want = 1
					}
					assert.InDelta(t, want, G.At(i, j), 1.e-12, "(%d,%d)", i, j)
				}
			}
		})
	}
}

// Derivatives are checked against central differences of Evaluate and Jacobian
func TestDerivativesFiniteDifference(t *testing.T) {
	h := 1.e-6
	sets := []ShapeFunctionSet{
		NewMonomial(element.Tet, 3),
		NewMonomial(element.Pyramid, 2),
		NewTensorLegendre(element.Hex, 2),
		NewTensorLegendre(element.Rectangle, 3),
		NewDubiner(3),
		NewDubinerTet(2),
	}
	points := map[int][]float64{
		1: {0.3},
		2: {-0.4, -0.2},
		3: {-0.6, -0.3, -0.5},
	}
	for _, set := range sets {
		t.Run(fmt.Sprintf("%T/%v", set, set.GeometryType()), func(t *testing.T) {
			dim, n := set.GeometryType().Dim(), set.Size()
			x := points[dim]
			grad := mat.NewDense(n, dim, nil)
			set.Jacobian(x, grad)

			vp, vm := make([]float64, n), make([]float64, n)
			gp, gm := mat.NewDense(n, dim, nil), mat.NewDense(n, dim, nil)
			he, hasHessian := set.(HessianEvaluator)
			hess := newHessians(n, dim)
			if hasHessian {
				he.Hessian(x, hess)
			}
			for d := 0; d < dim; d++ {
				xp := append([]float64(nil), x...)
				xm := append([]float64(nil), x...)
				xp[d] += h
				xm[d] -= h
				set.Evaluate(xp, vp)
				set.Evaluate(xm, vm)
				for i := 0; i < n; i++ {
					assert.InDelta(t, (vp[i]-vm[i])/(2*h), grad.At(i, d), 1.e-6, "function %d dir %d", i, d)
				}
				if !hasHessian {
					continue
				}
				set.Jacobian(xp, gp)
				set.Jacobian(xm, gm)
				for i := 0; i < n; i++ {
					for k := 0; k < dim; k++ {
						assert.InDelta(t, (gp.At(i, k)-gm.At(i, k))/(2*h), hess[i].At(d, k), 1.e-5,
							"function %d dirs %d,%d", i, d, k)
					}
				}
			}
		})
	}
}

func TestWrongPointPanics(t *testing.T) {
	values := make([]float64, 3)
	assert.Panics(t, func() { NewDubiner(1).Evaluate([]float64{0}, values) })
	assert.Panics(t, func() { NewDubinerTet(1).Jacobian([]float64{0, 0, 0}, mat.NewDense(4, 2, nil)) })
	assert.Panics(t, func() { NewTensorLegendre(element.Line, 2).Jacobian([]float64{0}, mat.NewDense(2, 1, nil)) })
	assert.Panics(t, func() { NewMonomial(element.Point, 1) })
}
