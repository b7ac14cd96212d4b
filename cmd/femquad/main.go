// Command femquad builds the quadratures and cached shape function tables of a
// set of reference cells, optionally mirrors them onto an OCCA device and runs
// the element loop over a mesh.
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"sort"

	"github.com/notargets/femquad/assembly"
	"github.com/notargets/femquad/basis"
	"github.com/notargets/femquad/caching"
	"github.com/notargets/femquad/device"
	"github.com/notargets/femquad/element"
	"github.com/notargets/femquad/quadrature"
	"github.com/notargets/femquad/utils"
	"github.com/notargets/gocca"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configFlag         string
	meshFlag           string
	deviceFlag         string
	verbosityTraceFlag bool
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML configuration file")
	flag.StringVar(&meshFlag, "mesh", "", "Mesh file to assemble over (overrides config)")
	flag.StringVar(&deviceFlag, "device", "", "OCCA device mode for table mirrors (overrides config)")
	flag.BoolVar(&verbosityTraceFlag, "v", false, "Verbosity: debug logging")
}

func main() {
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if verbosityTraceFlag {
		logLevel = zerolog.DebugLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := getConfig(configFlag)
	if err != nil {
		log.Fatal().Err(err).Str("file", configFlag).Msg("Cannot load config")
	}
	if meshFlag != "" {
		cfg.Mesh = meshFlag
	}
	if deviceFlag != "" {
		cfg.Device = deviceFlag
	}
	geometries, err := cfg.targets()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid geometries")
	}

	var mesh *assembly.Mesh
	if cfg.Mesh != "" {
		m, err := readMesh(cfg.Mesh)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot load mesh")
		}
		mesh = &m
		geometries = appendMissing(geometries, m.Types...)
		log.Info().Str("mesh", cfg.Mesh).Int("elements", len(m.EToV)).Msg("mesh loaded")
	}

	ctx := quadrature.NewContext(quadrature.Config{Logger: &log.Logger})

	storages := make(map[element.GeometryType]*caching.Storage)
	for _, g := range geometries {
		set, err := basis.New(cfg.kind(g), g, cfg.BasisOrder)
		if err != nil {
			log.Fatal().Err(err).Stringer("geometry", g).Msg("Cannot build shape functions")
		}
		storages[g] = caching.New(ctx, set)
	}

	var (
		dev     *gocca.OCCADevice
		mirrors []*device.Mirror
	)
	if cfg.Device != "" {
		if dev, err = utils.CreateDevice(cfg.Device); err != nil {
			log.Fatal().Err(err).Msg("Cannot create device")
		}
		for _, g := range geometries {
			mirrors = append(mirrors, device.NewMirror(ctx, dev, storages[g]))
		}
	}

	for _, g := range geometries {
		for _, order := range cfg.Orders {
			warm(ctx, g, order)
		}
	}

	if mesh != nil {
		runAssembly(ctx, *mesh, storages, cfg)
	}
	for _, m := range mirrors {
		checkMirror(m, storages[m.GeometryType()])
	}

	summary := ctx.Registry().Summary()
	for _, g := range element.GeometryTypes {
		if n := summary[g]; n > 0 {
			log.Info().
				Stringer("geometry", g).
				Int("quadratures", n).
				Int("evaluations", evaluations(storages, g)).
				Msg("summary")
		}
	}

	for _, m := range mirrors {
		m.Close()
	}
	if dev != nil {
		dev.Free()
	}
	for _, g := range geometries {
		storages[g].Close()
	}
	ctx.Close()
}

// warm creates the cell quadrature of order on g and one quadrature per
// sub-entity type and codimension, which tabulates every placement
func warm(ctx *quadrature.Context, g element.GeometryType, order int) {
	ctx.Get(g, order)
	ref := element.Reference(g)
	for codim := 1; codim <= g.Dim(); codim++ {
		for _, sub := range ref.SubEntityTypes(codim) {
			se := ref.SubEntitiesOfType(codim, sub)[0]
			ctx.GetSubEntity(g, codim, se, order, element.Inside)
		}
	}
}

func runAssembly(ctx *quadrature.Context, mesh assembly.Mesh,
	storages map[element.GeometryType]*caching.Storage, cfg Config) {
	asm, err := assembly.New(ctx, mesh, storages, assembly.Options{Workers: cfg.Workers})
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot set up assembly")
	}
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := asm.Run(runCtx)
	if err != nil {
		log.Fatal().Err(err).Msg("Assembly failed")
	}
	var maxJump float64
	for _, j := range res.FaceJumps {
		maxJump = math.Max(maxJump, j)
	}
	log.Info().
		Float64("volume", res.Volume).
		Int("interior_faces", len(res.Faces)).
		Float64("max_jump", maxJump).
		Msg("assembled")
}

// checkMirror evaluates the first shape function on the device for every
// mirrored table and compares it against the host cache
func checkMirror(m *device.Mirror, s *caching.Storage) {
	dofs := make([]float64, s.Set().Size())
	dofs[0] = 1
	for _, id := range m.Ids() {
		u, err := m.EvaluateAll(id, dofs)
		if err != nil {
			log.Fatal().Err(err).Stringer("geometry", m.GeometryType()).Msg("Device evaluation failed")
		}
		var maxErr float64
		for row := range u {
			maxErr = math.Max(maxErr, math.Abs(u[row]-s.EvaluateAll(id, row, dofs)))
		}
		log.Info().
			Stringer("geometry", m.GeometryType()).
			Int("id", int(id)).
			Int("rows", len(u)).
			Float64("max_error", maxErr).
			Msg("device table checked")
	}
}

func evaluations(storages map[element.GeometryType]*caching.Storage, g element.GeometryType) int {
	if s, ok := storages[g]; ok {
		return s.Evaluations()
	}
	return 0
}

func appendMissing(gs []element.GeometryType, more ...element.GeometryType) []element.GeometryType {
	seen := make(map[element.GeometryType]bool)
	for _, g := range gs {
		seen[g] = true
	}
	for _, g := range more {
		if !seen[g] {
			seen[g] = true
			gs = append(gs, g)
		}
	}
	sort.Slice(gs, func(i, j int) bool { return gs[i] < gs[j] })
	return gs
}
