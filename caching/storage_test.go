package caching

import (
	"sync"
	"testing"

	"github.com/notargets/femquad/basis"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newContext() *quadrature.Context {
	logger := zerolog.Nop()
	return quadrature.NewContext(quadrature.Config{Logger: &logger})
}

func TestDubinerOrthonormalThroughCache(t *testing.T) {
	ctx := newContext()
	set := basis.NewDubiner(3)
	s := New(ctx, set)
	defer ctx.Close()
	defer s.Close()

	q := ctx.Get(element.Tri, 6)
	require.True(t, s.Has(q.Id()))
	V := s.Values(q.Id())
	r, c := V.Dims()
	require.Equal(t, q.NumPoints(), r)
	require.Equal(t, set.Size(), c)

	W := mat.NewDiagDense(q.NumPoints(), append([]float64(nil), q.Weights()...))
	var WV, M mat.Dense
	WV.Mul(W, V)
	M.Mul(V.T(), &WV)
	assert.True(t, mat.EqualApprox(&M, identity(set.Size()), 1.e-12), "mass matrix\n%v", mat.Formatted(&M))
}

func identity(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		I.Set(i, i, 1)
	}
	return I
}

func TestEvaluatedOncePerId(t *testing.T) {
	ctx := newContext()
	pre := ctx.Get(element.Rectangle, 2)
	s := New(ctx, basis.NewTensorLegendre(element.Rectangle, 2))
	defer ctx.Close()
	defer s.Close()

	// Backfilled on construction
	assert.True(t, s.Has(pre.Id()))
	assert.Equal(t, 1, s.Evaluations())

	ctx.Get(element.Rectangle, 2)
	for f := 0; f < 4; f++ {
		for tw := 0; tw < 2; tw++ {
			ctx.GetFace(element.Rectangle, f, 2, element.Twist(tw))
		}
	}
	assert.Equal(t, 2, s.Evaluations())

	// Duplicate broadcasts do not rebuild
	s.CacheQuadrature(pre.Id(), 0, pre.NumPoints())
	assert.Equal(t, 2, s.Evaluations())

	// Other geometries are not tabulated
	ctx.Get(element.Tri, 2)
	assert.Equal(t, 2, s.Evaluations())
}

func TestFaceRowsMatchDirectEvaluation(t *testing.T) {
	ctx := newContext()
	set := basis.NewMonomial(element.Prism, 2)
	s := New(ctx, set)
	defer ctx.Close()
	defer s.Close()

	values := make([]float64, set.Size())
	grad := mat.NewDense(set.Size(), 3, nil)
	ref := element.Reference(element.Prism)
	for f := 0; f < ref.NumSubEntities(1); f++ {
		sub := ref.SubEntityType(1, f)
		for tw := 0; tw < element.NumTwists(sub); tw++ {
			q := ctx.GetFace(element.Prism, f, 3, element.Twist(tw))
			tb := s.Table(q.Id())
			assert.Equal(t, quadrature.CachingRows(q.Key(), q.NumPoints()), tb.Rows)
			for i := 0; i < q.NumPoints(); i++ {
				row := q.CachingPoint(i)
				set.Evaluate(q.Point(i), values)
				assert.InDeltaSlice(t, values, s.Row(q.Id(), row), 1.e-14)
				set.Jacobian(q.Point(i), grad)
				for d := 0; d < 3; d++ {
					assert.InDeltaSlice(t, mat.Col(nil, d, grad), mat.Row(nil, row, tb.Jacobians[d]), 1.e-14)
				}
			}
		}
	}
}

func TestEvaluateAll(t *testing.T) {
	ctx := newContext()
	set := basis.NewMonomial(element.Tet, 2)
	s := New(ctx, set)
	defer ctx.Close()
	defer s.Close()

	// u = 1 + 2r - s + 3rt
	dofs := make([]float64, set.Size())
	for i := 0; i < set.Size(); i++ {
		switch set.Exponents(i) {
		case [3]int{0, 0, 0}:
			dofs[i] = 1
		case [3]int{1, 0, 0}:
			dofs[i] = 2
		case [3]int{0, 1, 0}:
			dofs[i] = -1
		case [3]int{1, 0, 1}:
			dofs[i] = 3
		}
	}
	q := ctx.Get(element.Tet, 2)
	for i := 0; i < q.NumPoints(); i++ {
		x := q.Point(i)
		r, sc, tc := x[0], x[1], x[2]
		assert.InDelta(t, 1+2*r-sc+3*r*tc, s.EvaluateAll(q.Id(), i, dofs), 1.e-14)
		assert.InDeltaSlice(t, []float64{2 + 3*tc, -1, 3 * r}, s.JacobianAll(q.Id(), i, dofs), 1.e-14)
		H := s.HessianAll(q.Id(), i, dofs)
		assert.Equal(t, 3., H.At(0, 2))
		assert.Equal(t, 3., H.At(2, 0))
		assert.Equal(t, 0., H.At(0, 0))
	}

	assert.Panics(t, func() { s.EvaluateAll(q.Id()+5, 0, dofs) })
	assert.Panics(t, func() { s.EvaluateAll(q.Id(), q.NumPoints(), dofs) })
	assert.Panics(t, func() { s.JacobianAll(q.Id(), -1, dofs) })
	assert.Panics(t, func() { s.EvaluateAll(q.Id(), 0, dofs[1:]) })
}

func TestHessianAllWithoutSecondDerivativesPanics(t *testing.T) {
	ctx := newContext()
	s := New(ctx, basis.NewDubiner(2))
	defer ctx.Close()
	defer s.Close()

	q := ctx.Get(element.Tri, 2)
	assert.Nil(t, s.Table(q.Id()).Hessians)
	assert.Panics(t, func() { s.HessianAll(q.Id(), 0, make([]float64, 6)) })
}

func TestConcurrentReads(t *testing.T) {
	ctx := newContext()
	set := basis.NewTensorLegendre(element.Hex, 2)
	s := New(ctx, set)
	defer ctx.Close()
	defer s.Close()

	q := ctx.Get(element.Hex, 4)
	faces := make([]*quadrature.SubEntityQuadrature, 6)
	for f := range faces {
		faces[f] = ctx.GetFace(element.Hex, f, 4, element.Inside)
	}
	dofs := make([]float64, set.Size())
	for i := range dofs {
		dofs[i] = float64(i%5) - 2
	}
	want := make([]float64, q.NumPoints())
	for i := range want {
		want[i] = s.EvaluateAll(q.Id(), i, dofs)
	}

	const workers = 8
	ctx.Mode().BeginParallel(workers)
	var wg sync.WaitGroup
	got := make([][]float64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			qq := ctx.Get(element.Hex, 4)
			face := ctx.GetFace(element.Hex, w%6, 4, element.Twist(w%8))
			for i := 0; i < face.NumPoints(); i++ {
				s.EvaluateAll(face.Id(), face.CachingPoint(i), dofs)
				face.Point(i)
			}
			got[w] = make([]float64, qq.NumPoints())
			for i := range got[w] {
				got[w][i] = s.EvaluateAll(qq.Id(), i, dofs)
			}
		}(w)
	}
	wg.Wait()
	ctx.Mode().EndParallel()

	for w := range got {
		assert.Equal(t, want, got[w])
	}
}

func TestCloseStopsTabulation(t *testing.T) {
	ctx := newContext()
	s := New(ctx, basis.NewMonomial(element.Line, 3))
	ctx.Get(element.Line, 1)
	s.Close()
	s.Close()
	q := ctx.Get(element.Line, 5)
	assert.False(t, s.Has(q.Id()))
	assert.Equal(t, 1, s.Evaluations())
	assert.NotPanics(t, ctx.Close)
}
