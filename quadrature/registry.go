package quadrature

import (
	"github.com/notargets/femquad/element"
	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=../mocks/mock_storage.go -package=mocks github.com/notargets/femquad/quadrature Storage

// Storage is implemented by caches that keep data per quadrature. A storage is
// told about every quadrature registered for its geometry type, including the ones
// registered before the storage itself.
type Storage interface {
	// CacheQuadrature announces quadrature id of codimension codim with size points
	CacheQuadrature(id Id, codim int, size int)
	// GeometryType is the cell type the storage caches data for
	GeometryType() element.GeometryType
}

// Quadrature is the identity side of a point set, enough to announce it
type Quadrature interface {
	Id() Id
	NumPoints() int
}

// Record is one broadcast kept for backfilling late storages
type Record struct {
	Id       Id
	Codim    int
	Size     int
	Geometry element.GeometryType
}

// Registration links a storage to a registry until released
type Registration struct {
	registry *Registry
	storage  Storage
	released bool
}

// Storage returns the registered storage
func (rg *Registration) Storage() Storage { return rg.storage }

// Release unregisters the storage. Releasing twice is a no-op.
func (rg *Registration) Release() {
	if rg == nil || rg.released {
		return
	}
	rg.registry.remove(rg)
}

// Registry broadcasts new quadratures to the registered storages. It holds no
// ownership of the storages; every storage must release its registration before it
// is dropped.
type Registry struct {
	mode    *ThreadMode
	log     zerolog.Logger
	active  []*Registration
	records []Record
}

// NewRegistry returns an empty registry guarded by mode
func NewRegistry(mode *ThreadMode, logger zerolog.Logger) *Registry {
	return &Registry{
		mode: mode,
		log:  logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds storage to the active list and backfills it, in broadcast order,
// with every recorded quadrature of its geometry type.
func (r *Registry) Register(storage Storage) *Registration {
	r.mode.AssertSingleThreaded("Registry.Register")
	rg := &Registration{registry: r, storage: storage}
	r.active = append(r.active, rg)

	g := storage.GeometryType()
	records := append([]Record(nil), r.records...)
	var backfilled int
	for _, rec := range records {
		if rec.Geometry == g {
			storage.CacheQuadrature(rec.Id, rec.Codim, rec.Size)
			backfilled++
		}
	}
	r.log.Debug().
		Stringer("geometry", g).
		Int("backfilled", backfilled).
		Int("active", len(r.active)).
		Msg("storage registered")
	return rg
}

// Unregister removes every registration of storage; unknown storages are ignored
func (r *Registry) Unregister(storage Storage) {
	r.mode.AssertSingleThreaded("Registry.Unregister")
	for _, rg := range append([]*Registration(nil), r.active...) {
		if rg.storage == storage {
			r.remove(rg)
		}
	}
}

func (r *Registry) remove(rg *Registration) {
	r.mode.AssertSingleThreaded("Registration.Release")
	for i, a := range r.active {
		if a == rg {
			r.active = append(r.active[:i], r.active[i+1:]...)
			break
		}
	}
	rg.released = true
	r.log.Debug().
		Stringer("geometry", rg.storage.GeometryType()).
		Int("active", len(r.active)).
		Msg("storage unregistered")
}

// RegisterQuadrature records q for geometry g and codimension codim and announces
// it to every active storage of geometry g, in registration order. Repeated
// announcements are not deduplicated.
func (r *Registry) RegisterQuadrature(q Quadrature, g element.GeometryType, codim int) {
	r.mode.AssertSingleThreaded("Registry.RegisterQuadrature")
	rec := Record{Id: q.Id(), Codim: codim, Size: q.NumPoints(), Geometry: g}
	r.records = append(r.records, rec)

	var notified int
	for _, rg := range append([]*Registration(nil), r.active...) {
		if rg.storage.GeometryType() == g {
			rg.storage.CacheQuadrature(rec.Id, rec.Codim, rec.Size)
			notified++
		}
	}
	r.log.Debug().
		Stringer("geometry", g).
		Int("id", int(rec.Id)).
		Int("codim", codim).
		Int("size", rec.Size).
		Int("notified", notified).
		Msg("quadrature registered")
}

// Records returns a copy of the broadcast log
func (r *Registry) Records() []Record { return append([]Record(nil), r.records...) }

// Active returns the number of registered storages
func (r *Registry) Active() int { return len(r.active) }

// Summary counts the recorded quadratures per geometry type
func (r *Registry) Summary() map[element.GeometryType]int {
	counts := make(map[element.GeometryType]int)
	for _, rec := range r.records {
		counts[rec.Geometry]++
	}
	return counts
}
