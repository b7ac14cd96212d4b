package quadrature_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/mocks"
	"github.com/notargets/femquad/quadrature"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeQuadrature struct {
	id   quadrature.Id
	size int
}

func (f fakeQuadrature) Id() quadrature.Id { return f.id }
func (f fakeQuadrature) NumPoints() int    { return f.size }

func newStorage(ctl *gomock.Controller, g element.GeometryType) *mocks.MockStorage {
	m := mocks.NewMockStorage(ctl)
	m.EXPECT().GeometryType().Return(g).AnyTimes()
	return m
}

func newRegistry() *quadrature.Registry {
	return quadrature.NewRegistry(&quadrature.ThreadMode{}, zerolog.Nop())
}

func TestRegistry_BackfillMatchesGeometryOnly(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	r.RegisterQuadrature(fakeQuadrature{id: 0, size: 4}, element.Tri, 0)
	r.RegisterQuadrature(fakeQuadrature{id: 1, size: 4}, element.Rectangle, 0)

	s := newStorage(ctl, element.Tri)
	s.EXPECT().CacheQuadrature(quadrature.Id(0), 0, 4).Times(1)
	s.EXPECT().CacheQuadrature(quadrature.Id(1), gomock.Any(), gomock.Any()).Times(0)

	rg := r.Register(s)
	defer rg.Release()
}

func TestRegistry_BackfillKeepsBroadcastOrder(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	r.RegisterQuadrature(fakeQuadrature{id: 3, size: 1}, element.Tet, 0)
	r.RegisterQuadrature(fakeQuadrature{id: 0, size: 9}, element.Tet, 1)
	r.RegisterQuadrature(fakeQuadrature{id: 5, size: 2}, element.Tet, 2)

	s := newStorage(ctl, element.Tet)
	gomock.InOrder(
		s.EXPECT().CacheQuadrature(quadrature.Id(3), 0, 1),
		s.EXPECT().CacheQuadrature(quadrature.Id(0), 1, 9),
		s.EXPECT().CacheQuadrature(quadrature.Id(5), 2, 2),
	)
	r.Register(s).Release()
}

func TestRegistry_BroadcastFanOut(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	s1 := newStorage(ctl, element.Tri)
	s2 := newStorage(ctl, element.Tri)
	other := newStorage(ctl, element.Rectangle)
	rg1, rg2, rg3 := r.Register(s1), r.Register(s2), r.Register(other)
	defer rg1.Release()
	defer rg2.Release()
	defer rg3.Release()

	gomock.InOrder(
		s1.EXPECT().CacheQuadrature(quadrature.Id(7), 0, 6).Times(1),
		s2.EXPECT().CacheQuadrature(quadrature.Id(7), 0, 6).Times(1),
	)
	other.EXPECT().CacheQuadrature(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	r.RegisterQuadrature(fakeQuadrature{id: 7, size: 6}, element.Tri, 0)
	assert.Equal(t, 3, r.Active())
}

func TestRegistry_UnregisterStopsNotification(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	s := newStorage(ctl, element.Tri)
	s.EXPECT().CacheQuadrature(quadrature.Id(0), 0, 3).Times(1)

	r.Register(s)
	r.RegisterQuadrature(fakeQuadrature{id: 0, size: 3}, element.Tri, 0)
	r.Unregister(s)
	r.Unregister(s) // absent: no-op
	r.RegisterQuadrature(fakeQuadrature{id: 1, size: 3}, element.Tri, 0)
	assert.Equal(t, 0, r.Active())
}

func TestRegistry_ReleaseIsIdempotent(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	s := newStorage(ctl, element.Line)
	s.EXPECT().CacheQuadrature(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	rg := r.Register(s)
	assert.Equal(t, s, rg.Storage())
	rg.Release()
	rg.Release()
	var nilRegistration *quadrature.Registration
	nilRegistration.Release()

	r.RegisterQuadrature(fakeQuadrature{id: 0, size: 2}, element.Line, 0)
	assert.Equal(t, 0, r.Active())
}

func TestRegistry_DuplicateBroadcastNotDeduplicated(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := newRegistry()
	s := newStorage(ctl, element.Hex)
	s.EXPECT().CacheQuadrature(quadrature.Id(2), 0, 8).Times(2)
	defer r.Register(s).Release()

	r.RegisterQuadrature(fakeQuadrature{id: 2, size: 8}, element.Hex, 0)
	r.RegisterQuadrature(fakeQuadrature{id: 2, size: 8}, element.Hex, 0)
	assert.Len(t, r.Records(), 2)
	assert.Equal(t, map[element.GeometryType]int{element.Hex: 2}, r.Summary())
}

func TestRegistry_MutationInParallelPanics(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	mode := &quadrature.ThreadMode{}
	r := quadrature.NewRegistry(mode, zerolog.Nop())
	s := newStorage(ctl, element.Tri)
	rg := r.Register(s)

	mode.BeginParallel(2)
	assert.Panics(t, func() { r.Register(newStorage(ctl, element.Tri)) })
	assert.Panics(t, func() { r.RegisterQuadrature(fakeQuadrature{}, element.Tri, 0) })
	assert.Panics(t, func() { rg.Release() })
	mode.EndParallel()

	rg.Release()
	assert.Equal(t, 0, r.Active())
}
