package element

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AffineGeometry maps the reference cell onto a physical cell through the cell's
// frame vertices. It is exact for simplices and for parallelogram/parallelepiped
// cubes, which is all the assembly layer needs.
type AffineGeometry struct {
	Type GeometryType

	origin []float64  // world coordinates of the frame origin
	J      *mat.Dense // ∂x/∂ξ, [worldDim × refDim]
	Jinv   *mat.Dense // only set when worldDim == refDim
	detJ   float64
}

// NewAffineGeometry builds the geometry of a cell of type g from its world vertex
// coordinates, listed in reference vertex order.
func NewAffineGeometry(g GeometryType, vertices [][]float64) (*AffineGeometry, error) {
	ref := Reference(g)
	if len(vertices) != ref.NumVertices() {
		return nil, fmt.Errorf("%v needs %d vertices, got %d", g, ref.NumVertices(), len(vertices))
	}
	refDim := g.Dim()
	worldDim := len(vertices[0])
	if worldDim < refDim {
		return nil, fmt.Errorf("%v cannot be embedded in %d dimensions", g, worldDim)
	}

	ag := &AffineGeometry{
		Type:   g,
		origin: append([]float64(nil), vertices[ref.Frame[0]]...),
	}
	if refDim == 0 {
		ag.detJ = 1
		return ag, nil
	}
	ag.J = mat.NewDense(worldDim, refDim, nil)
	for d := 0; d < refDim; d++ {
		tip := vertices[ref.Frame[d+1]]
		for k := 0; k < worldDim; k++ {
			ag.J.Set(k, d, 0.5*(tip[k]-ag.origin[k]))
		}
	}
	if worldDim == refDim {
		ag.detJ = mat.Det(ag.J)
		if math.Abs(ag.detJ) < 1.e-14 {
			return nil, fmt.Errorf("degenerate %v: det(J) = %g", g, ag.detJ)
		}
		ag.Jinv = mat.NewDense(refDim, refDim, nil)
		if err := ag.Jinv.Inverse(ag.J); err != nil {
			return nil, fmt.Errorf("failed to invert %v Jacobian: %v", g, err)
		}
	} else {
		ag.detJ = MeasureScale(ag.J)
	}
	return ag, nil
}

// Global returns the world coordinates of reference point xi
func (ag *AffineGeometry) Global(xi []float64) []float64 {
	x := append([]float64(nil), ag.origin...)
	if ag.J == nil {
		return x
	}
	r, c := ag.J.Dims()
	for k := 0; k < r; k++ {
		for d := 0; d < c; d++ {
			x[k] += ag.J.At(k, d) * (xi[d] + 1)
		}
	}
	return x
}

// Jacobian returns ∂x/∂ξ, nil for point cells
func (ag *AffineGeometry) Jacobian() mat.Matrix { return ag.J }

// JacobianInverse returns ∂ξ/∂x for full dimensional cells, nil otherwise
func (ag *AffineGeometry) JacobianInverse() mat.Matrix { return ag.Jinv }

// IntegrationElement returns |det J| (or the measure scale for embedded cells)
func (ag *AffineGeometry) IntegrationElement() float64 { return math.Abs(ag.detJ) }

// GradientToWorld maps a reference gradient to world coordinates: ∇x = J⁻ᵀ ∇ξ
func (ag *AffineGeometry) GradientToWorld(gradRef []float64) []float64 {
	if ag.Jinv == nil {
		panic(fmt.Sprintf("element: %v geometry is not full dimensional", ag.Type))
	}
	n := len(gradRef)
	out := mat.NewVecDense(n, nil)
	out.MulVec(ag.Jinv.T(), mat.NewVecDense(n, append([]float64(nil), gradRef...)))
	return out.RawVector().Data
}

// SubEntityScale returns the world measure scale of the sub-entity placed by p,
// relative to the sub-entity's reference cell
func (ag *AffineGeometry) SubEntityScale(p Placement) float64 {
	Jp := p.Jacobian()
	if Jp == nil || ag.J == nil {
		return 1
	}
	var J mat.Dense
	J.Mul(ag.J, Jp)
	return MeasureScale(&J)
}

func sqrtAbs(v float64) float64 { return math.Sqrt(math.Abs(v)) }
