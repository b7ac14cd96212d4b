package quadrature

import (
	"fmt"

	"github.com/notargets/femquad/element"
)

// IdentityAllocator maps quadrature keys to ids, one sequential id space per
// spatial dimension. The mapping only grows.
type IdentityAllocator struct {
	mode *ThreadMode
	ids  map[Key]Id
	keys [element.D3 + 1][]Key // [dim][id]
}

// NewIdentityAllocator returns an empty allocator guarded by mode
func NewIdentityAllocator(mode *ThreadMode) *IdentityAllocator {
	return &IdentityAllocator{
		mode: mode,
		ids:  make(map[Key]Id),
	}
}

// IdFor returns the id of key, allocating the next id of the key's dimension the
// first time the key is seen. Allocation requires the single threaded phase.
func (a *IdentityAllocator) IdFor(key Key) Id {
	if id, ok := a.ids[key]; ok {
		return id
	}
	a.mode.AssertSingleThreaded("IdentityAllocator.IdFor")
	if !key.Geometry.Valid() || !key.Sub.Valid() {
		panic(fmt.Sprintf("quadrature: invalid geometry in key %v", key))
	}
	dim := key.Dim()
	id := Id(len(a.keys[dim]))
	a.keys[dim] = append(a.keys[dim], key)
	a.ids[key] = id
	return id
}

// Lookup returns the id of key without allocating
func (a *IdentityAllocator) Lookup(key Key) (Id, bool) {
	id, ok := a.ids[key]
	return id, ok
}

// KeyOf returns the key an id of dimension dim was allocated for
func (a *IdentityAllocator) KeyOf(dim int, id Id) (Key, bool) {
	if dim < 0 || dim >= len(a.keys) || id < 0 || int(id) >= len(a.keys[dim]) {
		return Key{}, false
	}
	return a.keys[dim][id], true
}

// Len returns how many ids have been allocated in dimension dim
func (a *IdentityAllocator) Len(dim int) int { return len(a.keys[dim]) }
