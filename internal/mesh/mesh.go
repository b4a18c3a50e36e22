// Package mesh samples a height function on a regular grid and builds a renderable triangle mesh.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/grapher/internal/expression"
)

// ErrInvalidParams is returned by Build for a step count outside [1, MaxSteps]
// or a non-positive range.
var ErrInvalidParams = errors.New("invalid mesh parameters")

// MaxSteps caps cells per axis so 4*Steps² vertices stay well inside uint32 indices.
const MaxSteps = 2048

// Green is the default surface colour.
var Green = mgl32.Vec4{0, 1, 0, 1}

// VertexStride is the number of float32 values per vertex in Interleaved output.
const VertexStride = 8

// Vertex is a homogeneous position plus an RGBA colour.
type Vertex struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Mesh is a vertex buffer plus triangle indices into it.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Sampling selects how big each grid quad is.
type Sampling int

const (
	// SamplingSeamless sizes every quad to the grid stride so cells tile the domain.
	SamplingSeamless Sampling = iota
	// SamplingLegacy uses unit quads at stride-spaced origins. Quads overlap or
	// leave gaps whenever the stride is not 1.
	SamplingLegacy
)

// ParseSampling converts a config string to a Sampling.
func ParseSampling(s string) (Sampling, error) {
	switch s {
	case "", "seamless":
		return SamplingSeamless, nil
	case "legacy":
		return SamplingLegacy, nil
	default:
		return 0, fmt.Errorf("unknown sampling %q (want seamless or legacy)", s)
	}
}

func (s Sampling) String() string {
	switch s {
	case SamplingSeamless:
		return "seamless"
	case SamplingLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Sampling(%d)", int(s))
	}
}

// Params controls grid generation.
type Params struct {
	Steps    int     // cells per axis
	Range    float64 // domain half-extent
	Time     float64 // value bound to t
	Sampling Sampling
	Color    mgl32.Vec4 // zero means Green
}

// Stride returns the distance between neighbouring cell origins.
func (p Params) Stride() float64 {
	return 2 * p.Range / float64(p.Steps)
}

// QuadSize returns the edge length of one emitted quad.
func (p Params) QuadSize() float64 {
	if p.Sampling == SamplingLegacy {
		return 1
	}
	return p.Stride()
}

func (p Params) validate() error {
	if p.Steps <= 0 || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d", ErrInvalidParams, p.Steps)
	}
	if p.Range <= 0 || math.IsNaN(p.Range) || math.IsInf(p.Range, 0) {
		return fmt.Errorf("%w: range %g", ErrInvalidParams, p.Range)
	}
	return nil
}

// Evaluator is a height function of the bound variables.
type Evaluator interface {
	Evaluate(b expression.Bindings) (float64, error)
}

// Build samples e over [-Range, Range]² and returns one independent quad
// (4 vertices, 2 triangles) per cell. Vertex heights are -f(x, z, t).
// Any evaluation error aborts the build.
func Build(e Evaluator, p Params) (*Mesh, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	color := p.Color
	if color == (mgl32.Vec4{}) {
		color = Green
	}

	cells := p.Steps * p.Steps
	m := &Mesh{
		Vertices: make([]Vertex, 0, cells*4),
		Indices:  make([]uint32, 0, cells*6),
	}

	stride := p.Stride()
	size := p.QuadSize()

	for i := 0; i < p.Steps; i++ {
		x0 := -p.Range + float64(i)*stride
		for j := 0; j < p.Steps; j++ {
			z0 := -p.Range + float64(j)*stride

			corners := [4][2]float64{
				{x0, z0},
				{x0 + size, z0},
				{x0, z0 + size},
				{x0 + size, z0 + size},
			}

			base := uint32(len(m.Vertices))
			for _, c := range corners {
				y, err := e.Evaluate(expression.Bindings{X: c[0], Z: c[1], T: p.Time})
				if err != nil {
					return nil, fmt.Errorf("sample (%g, %g): %w", c[0], c[1], err)
				}
				m.Vertices = append(m.Vertices, Vertex{
					Position: mgl32.Vec4{float32(c[0]), float32(-y), float32(c[1]), 1},
					Color:    color,
				})
			}

			m.Indices = append(m.Indices,
				base, base+1, base+2,
				base+2, base+3, base+1,
			)
		}
	}

	m.Bounds = computeBounds(m.Vertices)
	return m, nil
}

// Cells returns the number of grid cells in the mesh.
func (m *Mesh) Cells() int {
	return len(m.Vertices) / 4
}

// Interleaved flattens the vertices into position(4) + color(4) float32s.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		out = append(out, v.Position[:]...)
		out = append(out, v.Color[:]...)
	}
	return out
}

func computeBounds(verts []Vertex) Bounds {
	if len(verts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: verts[0].Position.Vec3(), Max: verts[0].Position.Vec3()}
	for _, v := range verts[1:] {
		p := v.Position.Vec3()
		for k := 0; k < 3; k++ {
			if p[k] < b.Min[k] {
				b.Min[k] = p[k]
			}
			if p[k] > b.Max[k] {
				b.Max[k] = p[k]
			}
		}
	}
	return b
}
