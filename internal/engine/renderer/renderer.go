// Package renderer uploads plotted meshes to OpenGL and draws them.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/grapher/internal/engine/shader"
	"github.com/Faultbox/grapher/internal/mesh"
	"github.com/Faultbox/grapher/internal/scene"
)

const vertexShader = `
#version 410 core

layout (location = 0) in vec4 aPos;
layout (location = 1) in vec4 aColor;

uniform mat4 uViewProj;

out vec4 vColor;

void main() {
	gl_Position = uViewProj * aPos;
	vColor = aColor;
}
`

const fragmentShader = `
#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
	FragColor = vColor;
}
`

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// gpuMesh is one uploaded mesh.
type gpuMesh struct {
	source *mesh.Mesh
	vao    uint32
	vbo    uint32
	ebo    uint32
	count  int32
}

// Renderer draws the scene's meshes with a single colour shader.
type Renderer struct {
	config     Config
	program    *shader.Program
	viewProj   int32
	meshes     map[string]*gpuMesh
	generation uint64
	wireframe  bool
	log        *zap.Logger
}

// New creates a renderer. The OpenGL context must already be current.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	program, err := shader.Compile(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	return &Renderer{
		config:   cfg,
		program:  program,
		viewProj: program.Uniform("uViewProj"),
		meshes:   make(map[string]*gpuMesh),
		log:      log,
	}, nil
}

// Close frees every GPU resource.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for key, m := range r.meshes {
		m.free()
		delete(r.meshes, key)
	}
	r.program.Delete()
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// SetWireframe toggles line rasterization.
func (r *Renderer) SetWireframe(on bool) {
	r.wireframe = on
	if on {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

// Wireframe reports whether wireframe mode is on.
func (r *Renderer) Wireframe() bool {
	return r.wireframe
}

// Sync uploads new or changed meshes and frees those no longer in the scene.
// Meshes are immutable, so pointer identity decides whether to re-upload.
func (r *Renderer) Sync(s *scene.Scene) {
	if s.Generation() == r.generation {
		return
	}
	r.generation = s.Generation()

	seen := make(map[string]bool, s.Len())
	s.Each(func(key string, obj *scene.Object) {
		seen[key] = true
		if cached, ok := r.meshes[key]; ok {
			if cached.source == obj.Mesh {
				return
			}
			cached.free()
		}
		r.meshes[key] = upload(obj.Mesh)
	})

	for key, m := range r.meshes {
		if !seen[key] {
			m.free()
			delete(r.meshes, key)
		}
	}

	r.log.Debug("scene synced",
		zap.Uint64("generation", r.generation),
		zap.Int("meshes", len(r.meshes)),
	)
}

// Draw clears the frame and draws every uploaded mesh.
func (r *Renderer) Draw(viewProj mgl32.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	gl.UniformMatrix4fv(r.viewProj, 1, false, &viewProj[0])

	for _, m := range r.meshes {
		gl.BindVertexArray(m.vao)
		gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
}

// ReadPixels returns the RGBA contents of the back buffer, bottom row first.
func (r *Renderer) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

func upload(m *mesh.Mesh) *gpuMesh {
	g := &gpuMesh{source: m, count: int32(len(m.Indices))}
	if len(m.Vertices) == 0 {
		return g
	}

	data := m.Interleaved()
	stride := int32(mesh.VertexStride * 4)

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)

	// Position (location = 0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	// Color (location = 1)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(4*4))
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return g
}

func (g *gpuMesh) free() {
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
	if g.vbo != 0 {
		gl.DeleteBuffers(1, &g.vbo)
	}
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}
