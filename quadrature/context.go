package quadrature

import (
	"fmt"

	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/rules"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config configures a Context
type Config struct {
	// Generator produces points and weights. rules.Generate is used if nil.
	Generator Generator
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
}

// Context owns the quadrature identity space of a run: the id allocator, the
// point lists indexed by id and the storage registry. Create one at startup, pass
// it to every participant and Close it at exit.
type Context struct {
	mode     *ThreadMode
	ids      *IdentityAllocator
	registry *Registry
	generate Generator
	log      zerolog.Logger
	closed   bool

	lists [element.D3 + 1][]*PointList // [dim][id]
}

// NewContext creates an empty context
func NewContext(cfg Config) *Context {
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	generate := cfg.Generator
	if generate == nil {
		generate = rules.Generate
	}
	mode := &ThreadMode{}
	return &Context{
		mode:     mode,
		ids:      NewIdentityAllocator(mode),
		registry: NewRegistry(mode, logger),
		generate: generate,
		log:      logger,
	}
}

// Mode returns the thread mode guarding the context
func (c *Context) Mode() *ThreadMode { return c.mode }

// Registry returns the storage registry
func (c *Context) Registry() *Registry { return c.registry }

// IdentityView is the read side of an IdentityAllocator
type IdentityView interface {
	Lookup(key Key) (Id, bool)
	KeyOf(dim int, id Id) (Key, bool)
	Len(dim int) int
}

// Identities returns a read-only view of the id allocator. Ids are only allocated
// by Get and GetSubEntity, together with the list stored behind them.
func (c *Context) Identities() IdentityView { return c.ids }

// Logger returns the context logger
func (c *Context) Logger() zerolog.Logger { return c.log }

// Get returns the cell-local point list of order on g, creating and announcing it
// on first request. Later requests return the same list.
func (c *Context) Get(g element.GeometryType, order int) *PointList {
	key := CellKey(g, order)
	if id, ok := c.ids.Lookup(key); ok {
		return c.lists[key.Dim()][id]
	}
	c.assertOpen("Get")
	// the id is allocated only once the list is valid
	points, weights := c.generate(g, order)
	pl := newPointList(key, points, weights)
	id := c.ids.IdFor(key)
	pl.id = id
	c.store(key, id, pl)

	c.log.Debug().
		Stringer("key", key).
		Int("id", int(id)).
		Int("points", pl.NumPoints()).
		Msg("new point list")
	c.registry.RegisterQuadrature(pl, g, 0)
	return pl
}

// GetSubEntity returns the quadrature of order on sub-entity subEntity of
// codimension codim of parent, seen with twist. The underlying points are the
// shared cell-local list of the sub-entity type. Out-of-range codimension,
// sub-entity or twist panics.
func (c *Context) GetSubEntity(parent element.GeometryType, codim, subEntity, order int, twist element.Twist) *SubEntityQuadrature {
	if codim < 1 || codim > parent.Dim() {
		panic(fmt.Sprintf("quadrature: codimension %d out of range for %v sub-entities", codim, parent))
	}
	key := SubEntityKey(parent, codim, subEntity, order)
	element.Permutation(key.Sub, twist)

	local := c.Get(key.Sub, order)
	q := &SubEntityQuadrature{
		key:       key,
		local:     local,
		subEntity: subEntity,
		twist:     twist,
	}
	if id, ok := c.ids.Lookup(key); ok {
		q.id = id
		return q
	}
	c.assertOpen("GetSubEntity")
	q.id = c.ids.IdFor(key)
	c.store(key, q.id, local)

	c.log.Debug().
		Stringer("key", key).
		Int("id", int(q.id)).
		Int("points", local.NumPoints()).
		Msg("new sub-entity quadrature")
	c.registry.RegisterQuadrature(q, parent, codim)
	return q
}

// GetFace is GetSubEntity for codimension 1
func (c *Context) GetFace(parent element.GeometryType, face, order int, twist element.Twist) *SubEntityQuadrature {
	return c.GetSubEntity(parent, 1, face, order, twist)
}

// PointList returns the list stored for id in dimension dim. For sub-entity ids
// this is the shared cell-local list of the sub-entity type.
func (c *Context) PointList(dim int, id Id) *PointList {
	if dim < 0 || dim >= len(c.lists) || id < 0 || int(id) >= len(c.lists[dim]) {
		panic(fmt.Sprintf("quadrature: unknown quadrature id %d in dimension %d", id, dim))
	}
	return c.lists[dim][id]
}

// Lookup returns the key and point list of id in dimension dim
func (c *Context) Lookup(dim int, id Id) (Key, *PointList) {
	pl := c.PointList(dim, id)
	key, _ := c.ids.KeyOf(dim, id)
	return key, pl
}

func (c *Context) store(key Key, id Id, pl *PointList) {
	dim := key.Dim()
	if int(id) != len(c.lists[dim]) {
		panic(fmt.Sprintf("quadrature: id %d for %v is not the next id of dimension %d", id, key, dim))
	}
	c.lists[dim] = append(c.lists[dim], pl)
}

func (c *Context) assertOpen(op string) {
	c.mode.AssertSingleThreaded("Context." + op)
	if c.closed {
		panic(fmt.Sprintf("quadrature: Context.%s after Close", op))
	}
}

// Close tears the context down. Every storage must have released its
// registration before.
func (c *Context) Close() {
	c.mode.AssertSingleThreaded("Context.Close")
	if c.closed {
		return
	}
	if n := c.registry.Active(); n > 0 {
		panic(fmt.Sprintf("quadrature: Context.Close with %d storages still registered", n))
	}
	c.closed = true
	ev := c.log.Info()
	for dim := range c.lists {
		ev = ev.Int(fmt.Sprintf("ids_%dd", dim), len(c.lists[dim]))
	}
	ev.Int("records", len(c.registry.records)).Msg("quadrature context closed")
}
