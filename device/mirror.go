// Package device mirrors cached shape function tables into OCCA device memory and
// formats them as static C arrays for kernel preambles.
package device

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/notargets/femquad/caching"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/notargets/gocca"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

const evaluateKernel = `
@kernel void evaluateAll(const int rows, const int n, const double *V,
                         const double *dofs, double *u) {
	for (int r = 0; r < rows; ++r; @tile(64, @outer, @inner)) {
		double sum = 0;
		for (int i = 0; i < n; ++i) {
			sum += V[i*rows + r]*dofs[i];
		}
		u[r] = sum;
	}
}`

type deviceTable struct {
	rows, cols int
	mem        *gocca.OCCAMemory
}

// Mirror is a quadrature.Storage that copies the value table of every quadrature
// of its geometry type to an OCCA device. It reads the tables from a caching
// storage, which must be registered first so that it is notified first.
//
// Tables are stored column-major: V[col*rows + row].
type Mirror struct {
	dev          *gocca.OCCADevice
	cache        *caching.Storage
	registration *quadrature.Registration
	log          zerolog.Logger

	tables map[quadrature.Id]*deviceTable
	kernel *gocca.OCCAKernel
}

// NewMirror creates a mirror of cache on dev and registers it with ctx
func NewMirror(ctx *quadrature.Context, dev *gocca.OCCADevice, cache *caching.Storage) *Mirror {
	m := &Mirror{
		dev:   dev,
		cache: cache,
		log: ctx.Logger().With().
			Str("storage", "device").
			Str("mode", dev.Mode()).
			Stringer("geometry", cache.GeometryType()).
			Logger(),
		tables: make(map[quadrature.Id]*deviceTable),
	}
	m.registration = ctx.Registry().Register(m)
	return m
}

// GeometryType implements quadrature.Storage
func (m *Mirror) GeometryType() element.GeometryType { return m.cache.GeometryType() }

// CacheQuadrature implements quadrature.Storage
func (m *Mirror) CacheQuadrature(id quadrature.Id, codim int, size int) {
	if _, ok := m.tables[id]; ok {
		return
	}
	if !m.cache.Has(id) {
		panic(fmt.Sprintf("device: quadrature %d reached the mirror before the cache", id))
	}
	V := m.cache.Values(id)
	rows, cols := V.Dims()
	data := columnMajor(V)
	m.tables[id] = &deviceTable{
		rows: rows,
		cols: cols,
		mem:  m.dev.Malloc(int64(len(data)*8), unsafe.Pointer(&data[0]), nil),
	}
	m.log.Debug().
		Int("id", int(id)).
		Int("codim", codim).
		Int("rows", rows).
		Int("cols", cols).
		Msg("mirrored table")
}

func columnMajor(V mat.Matrix) []float64 {
	rows, cols := V.Dims()
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[j*rows+i] = V.At(i, j)
		}
	}
	return data
}

func (m *Mirror) table(id quadrature.Id) *deviceTable {
	tb, ok := m.tables[id]
	if !ok {
		panic(fmt.Sprintf("device: quadrature %d is not mirrored", id))
	}
	return tb
}

// Has reports whether id is on the device
func (m *Mirror) Has(id quadrature.Id) bool {
	_, ok := m.tables[id]
	return ok
}

// Ids returns the mirrored ids in ascending order
func (m *Mirror) Ids() []quadrature.Id {
	ids := make([]quadrature.Id, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Memory returns the device memory of the table of id
func (m *Mirror) Memory(id quadrature.Id) *gocca.OCCAMemory { return m.table(id).mem }

// ReadBack copies the table of id back from the device
func (m *Mirror) ReadBack(id quadrature.Id) *mat.Dense {
	tb := m.table(id)
	data := make([]float64, tb.rows*tb.cols)
	tb.mem.CopyTo(unsafe.Pointer(&data[0]), int64(len(data)*8))
	V := mat.NewDense(tb.rows, tb.cols, nil)
	for i := 0; i < tb.rows; i++ {
		for j := 0; j < tb.cols; j++ {
			V.Set(i, j, data[j*tb.rows+i])
		}
	}
	return V
}

// EvaluateAll computes Σ_i dofs[i] φ_i at every row of the table of id on the
// device
func (m *Mirror) EvaluateAll(id quadrature.Id, dofs []float64) ([]float64, error) {
	tb := m.table(id)
	if len(dofs) != tb.cols {
		return nil, fmt.Errorf("%d dofs for a table with %d columns", len(dofs), tb.cols)
	}
	if m.kernel == nil {
		kernel, err := m.buildKernel()
		if err != nil {
			return nil, err
		}
		m.kernel = kernel
	}

	dofsMem := m.dev.Malloc(int64(len(dofs)*8), unsafe.Pointer(&dofs[0]), nil)
	defer dofsMem.Free()
	uMem := m.dev.Malloc(int64(tb.rows*8), nil, nil)
	defer uMem.Free()

	if err := m.kernel.RunWithArgs(int32(tb.rows), int32(tb.cols), tb.mem, dofsMem, uMem); err != nil {
		return nil, fmt.Errorf("kernel execution failed: %w", err)
	}
	m.dev.Finish()

	u := make([]float64, tb.rows)
	uMem.CopyTo(unsafe.Pointer(&u[0]), int64(len(u)*8))
	return u, nil
}

func (m *Mirror) buildKernel() (*gocca.OCCAKernel, error) {
	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if m.dev.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = m.dev.BuildKernelFromString(evaluateKernel, "evaluateAll", props)
	} else {
		kernel, err = m.dev.BuildKernelFromString(evaluateKernel, "evaluateAll", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel evaluateAll: %w", err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for evaluateAll")
	}
	return kernel, nil
}

// Preamble formats every mirrored table as a static C array named
// <prefix>_<geometry>_<id>, for kernels that embed the tables
func (m *Mirror) Preamble(prefix string, precision Precision) string {
	tables := make(map[string]mat.Matrix, len(m.tables))
	for id := range m.tables {
		name := fmt.Sprintf("%s_%v_%d", prefix, m.GeometryType(), id)
		tables[name] = m.cache.Values(id)
	}
	return FormatStaticMatrices(tables, precision)
}

// Close frees the device memory and releases the registration
func (m *Mirror) Close() {
	m.registration.Release()
	if m.kernel != nil {
		m.kernel.Free()
		m.kernel = nil
	}
	for id, tb := range m.tables {
		tb.mem.Free()
		delete(m.tables, id)
	}
	m.log.Debug().Msg("device mirror closed")
}
