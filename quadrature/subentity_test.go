package quadrature_test

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cellVertices maps the reference vertices of g through x = o + Σ_d a_d (ξ_d+1)/2
func cellVertices(g element.GeometryType, origin []float64, axes [][]float64) [][]float64 {
	ref := element.Reference(g)
	verts := make([][]float64, ref.NumVertices())
	for i, xi := range ref.Vertices {
		x := append([]float64(nil), origin...)
		for d, a := range axes {
			for k := range x {
				x[k] += a[k] * 0.5 * (xi[d] + 1)
			}
		}
		verts[i] = x
	}
	return verts
}

type vertexIndex map[string]int

func (vi vertexIndex) id(x []float64) int {
	key := fmt.Sprintf("%.9f", x)
	if id, ok := vi[key]; ok {
		return id
	}
	vi[key] = len(vi)
	return vi[key]
}

func (vi vertexIndex) subEntity(g element.GeometryType, verts [][]float64, codim, i int) []int {
	local := element.Reference(g).SubEntity(codim, i)
	global := make([]int, len(local))
	for k, v := range local {
		global[k] = vi.id(verts[v])
	}
	return global
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := append([]int(nil), a...), append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// checkAdjacency evaluates every shared sub-entity of two cells from both sides and
// requires the inside and twisted outside points to agree in world coordinates.
// It returns the twists found per codimension.
func checkAdjacency(t *testing.T, g element.GeometryType, vertsA, vertsB [][]float64, order int) map[int][]element.Twist {
	ctx := newContext(nil)
	geomA, err := element.NewAffineGeometry(g, vertsA)
	require.NoError(t, err)
	geomB, err := element.NewAffineGeometry(g, vertsB)
	require.NoError(t, err)

	vi := make(vertexIndex)
	ref := element.Reference(g)
	twists := make(map[int][]element.Twist)
	for codim := 1; codim <= g.Dim(); codim++ {
		for a := 0; a < ref.NumSubEntities(codim); a++ {
			inside := vi.subEntity(g, vertsA, codim, a)
			for b := 0; b < ref.NumSubEntities(codim); b++ {
				outside := vi.subEntity(g, vertsB, codim, b)
				if !sameSet(inside, outside) {
					continue
				}
				sub := ref.SubEntityType(codim, a)
				tw := element.FaceTwist(sub, inside, outside)
				twists[codim] = append(twists[codim], tw)

				qa := ctx.GetSubEntity(g, codim, a, order, element.Inside)
				qb := ctx.GetSubEntity(g, codim, b, order, tw)
				require.Equal(t, qa.NumPoints(), qb.NumPoints())
				for i := 0; i < qa.NumPoints(); i++ {
					xa := geomA.Global(qa.Point(i))
					xb := geomB.Global(qb.Point(i))
					assert.InDeltaSlice(t, xa, xb, 1.e-12,
						"codim %d: sub-entity %d vs %d twist %d point %d", codim, a, b, tw, i)
				}
			}
		}
	}
	return twists
}

func TestSubEntity_TriangleNeighbours(t *testing.T) {
	a := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	b := [][]float64{{1, 0}, {1, 1}, {0, 1}}
	twists := checkAdjacency(t, element.Tri, a, b, 5)
	assert.Len(t, twists[1], 1)
	assert.Len(t, twists[2], 2)
	assert.NotEqual(t, element.Inside, twists[1][0])
}

func TestSubEntity_TetNeighbours(t *testing.T) {
	p := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
	a := [][]float64{p[0], p[1], p[2], p[3]}
	b := [][]float64{p[2], p[4], p[3], p[1]}
	twists := checkAdjacency(t, element.Tet, a, b, 4)
	assert.Len(t, twists[1], 1)
	assert.Len(t, twists[2], 3)
	assert.Len(t, twists[3], 3)
}

func TestSubEntity_HexNeighbours(t *testing.T) {
	a := cellVertices(element.Hex, []float64{0, 0, 0},
		[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	// Rotated so the shared face x=1 is seen through a non-trivial twist
	b := cellVertices(element.Hex, []float64{1, 0, 1},
		[][]float64{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}})
	twists := checkAdjacency(t, element.Hex, a, b, 3)
	require.Len(t, twists[1], 1)
	assert.NotEqual(t, element.Inside, twists[1][0])
	assert.Len(t, twists[2], 4)
	assert.Len(t, twists[3], 4)
}

func TestSubEntity_PrismNeighbours(t *testing.T) {
	a := cellVertices(element.Prism, []float64{0, 0, 0},
		[][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	// Stacked on top, upside down: the shared triangle z=1 is seen reflected
	b := cellVertices(element.Prism, []float64{0, 0, 1},
		[][]float64{{0, 1, 0}, {1, 0, 0}, {0, 0, 1}})
	twists := checkAdjacency(t, element.Prism, a, b, 3)
	require.Len(t, twists[1], 1)
	assert.NotEqual(t, element.Inside, twists[1][0])
}

func TestSubEntity_PointsInsideParent(t *testing.T) {
	ctx := newContext(nil)
	for _, g := range element.GeometryTypes {
		ref := element.Reference(g)
		for codim := 1; codim <= g.Dim(); codim++ {
			for se := 0; se < ref.NumSubEntities(codim); se++ {
				sub := ref.SubEntityType(codim, se)
				for tw := 0; tw < element.NumTwists(sub); tw++ {
					q := ctx.GetSubEntity(g, codim, se, 3, element.Twist(tw))
					for i := 0; i < q.NumPoints(); i++ {
						x := q.Point(i)
						require.Len(t, x, g.Dim())
						assert.True(t, ref.Contains(x, 1.e-12),
							"%v codim %d sub-entity %d twist %d: %v outside", g, codim, se, tw, x)
					}
				}
			}
		}
	}
}

func TestSubEntity_CachingRowsAreDense(t *testing.T) {
	ctx := newContext(nil)
	for _, g := range element.GeometryTypes {
		ref := element.Reference(g)
		for codim := 1; codim <= g.Dim(); codim++ {
			rows := make(map[quadrature.Key]map[int]bool)
			sizes := make(map[quadrature.Key]int)
			for se := 0; se < ref.NumSubEntities(codim); se++ {
				sub := ref.SubEntityType(codim, se)
				for tw := 0; tw < element.NumTwists(sub); tw++ {
					q := ctx.GetSubEntity(g, codim, se, 2, element.Twist(tw))
					key, size := q.Key(), q.NumPoints()
					if rows[key] == nil {
						rows[key] = make(map[int]bool)
					}
					sizes[key] = size
					placement := quadrature.Placements(key)[q.CachingPoint(0)/size]
					assert.Equal(t, se, placement.SubEntity)
					assert.Equal(t, element.Twist(tw), placement.Twist)
					for i := 0; i < size; i++ {
						row := q.CachingPoint(i)
						assert.False(t, rows[key][row], "%v row %d used twice", key, row)
						rows[key][row] = true
						assert.InDeltaSlice(t, placement.Map(q.LocalPoint(i)), q.Point(i), 1.e-14)
					}
				}
			}
			for key, used := range rows {
				n := quadrature.CachingRows(key, sizes[key])
				assert.Len(t, used, n, "%v", key)
				for row := range used {
					assert.True(t, row >= 0 && row < n, "%v row %d out of [0,%d)", key, row, n)
				}
			}
		}
	}
}

func TestSubEntity_CellListIsItsOwnCachingRow(t *testing.T) {
	ctx := newContext(nil)
	q := ctx.Get(element.Tet, 3)
	for i := 0; i < q.NumPoints(); i++ {
		assert.Equal(t, i, q.CachingPoint(i))
	}
	assert.Equal(t, q.NumPoints(), quadrature.CachingRows(q.Key(), q.NumPoints()))
	assert.Nil(t, quadrature.Placements(q.Key()))
}

func TestSubEntity_WeightsIntegrateFaceMeasure(t *testing.T) {
	ctx := newContext(nil)
	// Slanted tet face R+S+T=-1 has area 2√3 in the reference tet
	q := ctx.GetFace(element.Tet, 2, 3, 4)
	sum := 0.0
	for i := 0; i < q.NumPoints(); i++ {
		sum += q.Weight(i)
	}
	assert.InDelta(t, 2*math.Sqrt(3), sum*q.Placement().Scale(), 1.e-12)

	// Hex faces keep unit scale
	assert.InDelta(t, 1., ctx.GetFace(element.Hex, 5, 3, 6).Placement().Scale(), 1.e-14)
}

func TestCachingOffset_RejectsForeignSubEntity(t *testing.T) {
	key := quadrature.SubEntityKey(element.Prism, 1, 0, 2)
	assert.Panics(t, func() { quadrature.CachingOffset(key, 1, element.Inside, 3) })
	assert.Panics(t, func() { quadrature.CachingOffset(key, 4, 6, 3) })
	assert.Equal(t, (1*6+2)*3, quadrature.CachingOffset(key, 4, 2, 3))
}
