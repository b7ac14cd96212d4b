package quadrature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadMode(t *testing.T) {
	var m ThreadMode
	assert.True(t, m.SingleThreaded())
	assert.NotPanics(t, func() { m.AssertSingleThreaded("setup") })

	m.BeginParallel(8)
	assert.False(t, m.SingleThreaded())
	assert.Equal(t, 8, m.Workers())
	assert.PanicsWithValue(t,
		"quadrature: setup requires single threaded mode, 8 workers active",
		func() { m.AssertSingleThreaded("setup") })
	assert.Panics(t, func() { m.BeginParallel(2) }, "regions do not nest")

	m.EndParallel()
	assert.True(t, m.SingleThreaded())
	assert.Panics(t, func() { m.EndParallel() })
	assert.Panics(t, func() { m.BeginParallel(0) })
}
