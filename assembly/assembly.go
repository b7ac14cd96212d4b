// Package assembly runs element loops over a mesh using cached shape function
// tables. The loop is the parallel phase of a quadrature.Context: all quadratures
// and tables are created beforehand, and the workers only read them.
package assembly

import (
	"context"
	"fmt"
	"runtime"

	"github.com/notargets/femquad/caching"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/notargets/femquad/utils"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Mesh is a conforming mesh of reference-numbered cells
type Mesh struct {
	Vertices [][]float64
	EToV     [][]int
	Types    []element.GeometryType
}

// Options configures an Assembler
type Options struct {
	// Order is the quadrature order, twice the highest basis order if zero
	Order int
	// Workers is the worker pool size, runtime.NumCPU() if zero
	Workers int
	// Source is the load function, 1 if nil
	Source func(x []float64) float64
}

// ElementData is what the element loop computes for one cell
type ElementData struct {
	Mass       *mat.SymDense
	Stiffness  *mat.SymDense
	Load       *mat.VecDense
	Projection *mat.VecDense // L2 projection of the source, M⁻¹ Load
	Volume     float64
}

// Result holds the element data and, per interior face, the squared L2 jump of
// the projected source across the face
type Result struct {
	Elements  []ElementData
	Faces     []utils.FacePair
	FaceJumps []float64
	Volume    float64
}

type faceQuadratures struct {
	inside, outside *quadrature.SubEntityQuadrature
}

// Assembler holds everything an element loop reads
type Assembler struct {
	qctx     *quadrature.Context
	mesh     Mesh
	storages map[element.GeometryType]*caching.Storage
	opts     Options
	log      zerolog.Logger

	geoms []*element.AffineGeometry
	conn  *utils.FaceConnector
	cells map[element.GeometryType]*quadrature.PointList
	pairs []utils.FacePair
	faces []faceQuadratures
}

// New validates the mesh and creates every quadrature the loop needs. It must be
// called in the single threaded phase.
func New(qctx *quadrature.Context, mesh Mesh, storages map[element.GeometryType]*caching.Storage, opts Options) (*Assembler, error) {
	if len(mesh.Types) != len(mesh.EToV) {
		return nil, fmt.Errorf("mesh has %d elements and %d types", len(mesh.EToV), len(mesh.Types))
	}
	maxOrder := 0
	for g, s := range storages {
		if s.GeometryType() != g {
			return nil, fmt.Errorf("storage for %v caches %v", g, s.GeometryType())
		}
		if o := s.Set().Order(); o > maxOrder {
			maxOrder = o
		}
	}
	if opts.Order == 0 {
		opts.Order = 2 * maxOrder
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Source == nil {
		opts.Source = func([]float64) float64 { return 1 }
	}

	a := &Assembler{
		qctx:     qctx,
		mesh:     mesh,
		storages: storages,
		opts:     opts,
		log:      qctx.Logger().With().Str("component", "assembly").Logger(),
		geoms:    make([]*element.AffineGeometry, len(mesh.EToV)),
		cells:    make(map[element.GeometryType]*quadrature.PointList),
	}
	for k, g := range mesh.Types {
		if g == element.Pyramid {
			return nil, fmt.Errorf("element %d: pyramids are not affine", k)
		}
		if _, ok := storages[g]; !ok {
			return nil, fmt.Errorf("element %d: no storage for %v", k, g)
		}
		verts := make([][]float64, len(mesh.EToV[k]))
		for i, v := range mesh.EToV[k] {
			if v < 0 || v >= len(mesh.Vertices) {
				return nil, fmt.Errorf("element %d: vertex %d out of range", k, v)
			}
			verts[i] = mesh.Vertices[v]
		}
		if len(verts) > 0 && len(verts[0]) != g.Dim() {
			return nil, fmt.Errorf("element %d: %v embedded in %dD", k, g, len(verts[0]))
		}
		geom, err := element.NewAffineGeometry(g, verts)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", k, err)
		}
		a.geoms[k] = geom
		if _, ok := a.cells[g]; !ok {
			a.cells[g] = qctx.Get(g, opts.Order)
		}
	}

	conn, err := utils.NewFaceConnector(mesh.Types, mesh.EToV)
	if err != nil {
		return nil, fmt.Errorf("failed to connect faces: %w", err)
	}
	a.conn = conn
	a.pairs = conn.InteriorFaces()
	a.faces = make([]faceQuadratures, len(a.pairs))
	for i, p := range a.pairs {
		a.faces[i] = faceQuadratures{
			inside:  qctx.GetFace(mesh.Types[p.K], p.F, opts.Order, element.Inside),
			outside: qctx.GetFace(mesh.Types[p.NK], p.NF, opts.Order, p.Twist),
		}
	}

	a.log.Debug().
		Int("elements", len(mesh.EToV)).
		Int("interior_faces", len(a.pairs)).
		Int("boundary_faces", conn.NumBoundaryFaces()).
		Int("order", opts.Order).
		Msg("assembler ready")
	return a, nil
}

// Connectivity returns the face connectivity of the mesh
func (a *Assembler) Connectivity() *utils.FaceConnector { return a.conn }

// Run executes the element loop and then the interior face loop on a pool of
// Options.Workers goroutines, inside a parallel region of the context.
func (a *Assembler) Run(ctx context.Context) (*Result, error) {
	mode := a.qctx.Mode()
	mode.BeginParallel(a.opts.Workers)
	defer mode.EndParallel()

	res := &Result{
		Elements:  make([]ElementData, len(a.geoms)),
		Faces:     a.pairs,
		FaceJumps: make([]float64, len(a.pairs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for k := range a.geoms {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ed, err := a.element(k)
			if err != nil {
				return fmt.Errorf("element %d: %w", k, err)
			}
			res.Elements[k] = ed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i := range a.pairs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.FaceJumps[i] = a.faceJump(i, res.Elements)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, ed := range res.Elements {
		res.Volume += ed.Volume
	}
	a.log.Info().
		Int("elements", len(res.Elements)).
		Int("faces", len(res.FaceJumps)).
		Float64("volume", res.Volume).
		Msg("assembly done")
	return res, nil
}

func (a *Assembler) element(k int) (ElementData, error) {
	g := a.mesh.Types[k]
	s := a.storages[g]
	geom := a.geoms[k]
	pl := a.cells[g]
	id := pl.Id()
	n, dim := s.Set().Size(), g.Dim()
	jac := s.Jacobians(id)
	detJ := geom.IntegrationElement()

	ed := ElementData{
		Mass:      mat.NewSymDense(n, nil),
		Stiffness: mat.NewSymDense(n, nil),
		Load:      mat.NewVecDense(n, nil),
	}
	grads := make([][]float64, n)
	gradRef := make([]float64, dim)
	for q := 0; q < pl.NumPoints(); q++ {
		w := pl.Weight(q) * detJ
		phi := s.Row(id, pl.CachingPoint(q))
		f := a.opts.Source(geom.Global(pl.Point(q)))
		for i := 0; i < n; i++ {
			for d := 0; d < dim; d++ {
				gradRef[d] = jac[d].At(q, i)
			}
			grads[i] = geom.GradientToWorld(gradRef)
		}
		for i := 0; i < n; i++ {
			ed.Load.SetVec(i, ed.Load.AtVec(i)+w*f*phi[i])
			for j := i; j < n; j++ {
				ed.Mass.SetSym(i, j, ed.Mass.At(i, j)+w*phi[i]*phi[j])
				ed.Stiffness.SetSym(i, j, ed.Stiffness.At(i, j)+w*floats.Dot(grads[i], grads[j]))
			}
		}
		ed.Volume += w
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(ed.Mass); !ok {
		return ed, fmt.Errorf("mass matrix is not positive definite")
	}
	ed.Projection = mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(ed.Projection, ed.Load); err != nil {
		return ed, fmt.Errorf("failed to solve for the projection: %w", err)
	}
	return ed, nil
}

func (a *Assembler) faceJump(i int, elements []ElementData) float64 {
	p, fq := a.pairs[i], a.faces[i]
	sIn, sOut := a.storages[a.mesh.Types[p.K]], a.storages[a.mesh.Types[p.NK]]
	uIn, uOut := elements[p.K].Projection.RawVector().Data, elements[p.NK].Projection.RawVector().Data
	scale := a.geoms[p.K].SubEntityScale(fq.inside.Placement())

	var jump float64
	for q := 0; q < fq.inside.NumPoints(); q++ {
		in := sIn.EvaluateAll(fq.inside.Id(), fq.inside.CachingPoint(q), uIn)
		out := sOut.EvaluateAll(fq.outside.Id(), fq.outside.CachingPoint(q), uOut)
		jump += fq.inside.Weight(q) * scale * (in - out) * (in - out)
	}
	return jump
}
