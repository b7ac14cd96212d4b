package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/notargets/femquad/basis"
	"github.com/notargets/femquad/element"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Geometries []string          `yaml:"geometries"`
	Orders     []int             `yaml:"orders"`
	Basis      map[string]string `yaml:"basis"`
	BasisOrder int               `yaml:"basisOrder"`
	Workers    int               `yaml:"workers"`
	Mesh       string            `yaml:"mesh"`
	Device     string            `yaml:"device"`
}

func defaultConfig() Config {
	return Config{
		Geometries: []string{"Tri", "Rectangle", "Tet", "Hex", "Prism"},
		Orders:     []int{2, 4},
		BasisOrder: 2,
	}
}

// getConfig reads filename over the defaults; an empty name returns the defaults
func getConfig(filename string) (Config, error) {
	config := defaultConfig()
	if filename == "" {
		return config, nil
	}
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err = yaml.Unmarshal(configBytes, &config); err != nil {
		return config, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return config, config.validate()
}

func (c Config) validate() error {
	if c.BasisOrder < 0 {
		return fmt.Errorf("negative basis order %d", c.BasisOrder)
	}
	for _, o := range c.Orders {
		if o < 0 {
			return fmt.Errorf("negative quadrature order %d", o)
		}
	}
	if _, err := c.geometryTypes(); err != nil {
		return err
	}
	for name := range c.Basis {
		if _, err := element.ParseGeometryType(name); err != nil {
			return fmt.Errorf("basis: %w", err)
		}
	}
	return nil
}

func (c Config) geometryTypes() ([]element.GeometryType, error) {
	gs := make([]element.GeometryType, 0, len(c.Geometries))
	for _, name := range c.Geometries {
		g, err := element.ParseGeometryType(name)
		if err != nil {
			return nil, err
		}
		if g == element.Point {
			return nil, fmt.Errorf("no shape functions on %v", g)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

// targets returns the configured geometries without duplicates, in type order
func (c Config) targets() ([]element.GeometryType, error) {
	gs, err := c.geometryTypes()
	if err != nil {
		return nil, err
	}
	return appendMissing(nil, gs...), nil
}

// kind returns the configured basis kind of g, or the natural one for the cell
func (c Config) kind(g element.GeometryType) basis.Kind {
	for name, kind := range c.Basis {
		if pg, err := element.ParseGeometryType(name); err == nil && pg == g {
			return basis.Kind(strings.ToLower(kind))
		}
	}
	switch g {
	case element.Tri:
		return basis.KindDubiner
	case element.Line, element.Rectangle, element.Hex:
		return basis.KindLegendre
	}
	return basis.KindMonomial
}
