package main

import (
	"fmt"

	"github.com/notargets/femquad/assembly"
	"github.com/notargets/femquad/utils"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
)

// readMesh loads a 3D Gambit or Gmsh mesh and renumbers the cell vertices into
// reference order. Cell types follow from the vertex counts.
func readMesh(path string) (m assembly.Mesh, err error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read mesh %s: %w", path, err)
	}
	m.Vertices = make([][]float64, len(msh.Vertices))
	for i, v := range msh.Vertices {
		m.Vertices[i] = []float64{v[0], v[1], v[2]}
	}
	for k, verts := range msh.EtoV {
		g, err := utils.GeometryForVertexCount(3, len(verts))
		if err != nil {
			return m, fmt.Errorf("element %d: %w", k, err)
		}
		m.Types = append(m.Types, g)
		m.EToV = append(m.EToV, utils.FromGmshOrder(g, verts))
	}
	return m, nil
}
