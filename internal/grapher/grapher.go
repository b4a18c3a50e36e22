// Package grapher is the interactive plotter: it owns the camera and the
// scene, turns input into camera motion and rebuilds the scene whenever a
// new equation snapshot arrives.
package grapher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/grapher/internal/camera"
	"github.com/Faultbox/grapher/internal/engine/input"
	"github.com/Faultbox/grapher/internal/equation"
	"github.com/Faultbox/grapher/internal/expression"
	"github.com/Faultbox/grapher/internal/mesh"
	"github.com/Faultbox/grapher/internal/scene"
)

// Options configures a Grapher.
type Options struct {
	Params  mesh.Params
	Animate bool

	// MouseScale divides relative mouse motion before it reaches the camera.
	MouseScale float64
	// MoveScale divides the frame time in milliseconds to get the walk distance.
	MoveScale float64

	ExportDir string
}

// DefaultOptions returns the stock plotting and input settings.
func DefaultOptions() Options {
	return Options{
		Params: mesh.Params{
			Steps:    16,
			Range:    8,
			Sampling: mesh.SamplingSeamless,
			Color:    mesh.Green,
		},
		MouseScale: 200,
		MoveScale:  200,
		ExportDir:  "exports",
	}
}

// Grapher implements engine.App.
type Grapher struct {
	cam     *camera.Camera
	scene   *scene.Scene
	channel *equation.Channel
	opts    Options
	log     *zap.Logger

	held     map[input.Key]bool
	running  atomic.Bool
	captured bool
	elapsed  time.Duration
	now      func() time.Time
}

// New creates a Grapher that reads equation snapshots from ch.
func New(cam *camera.Camera, ch *equation.Channel, opts Options, log *zap.Logger) *Grapher {
	if opts.MouseScale <= 0 {
		opts.MouseScale = 200
	}
	if opts.MoveScale <= 0 {
		opts.MoveScale = 200
	}
	g := &Grapher{
		cam:     cam,
		scene:   scene.New(),
		channel: ch,
		opts:    opts,
		log:     log,
		held:    make(map[input.Key]bool),
		now:     time.Now,
	}
	g.running.Store(true)
	return g
}

// Camera returns the camera.
func (g *Grapher) Camera() *camera.Camera { return g.cam }

// Scene returns the plotted scene.
func (g *Grapher) Scene() *scene.Scene { return g.scene }

// Running reports whether the render loop should keep going.
func (g *Grapher) Running() bool { return g.running.Load() }

// Captured reports whether the mouse is captured for looking around.
func (g *Grapher) Captured() bool { return g.captured }

// Stop ends the render loop. Safe to call from any goroutine.
func (g *Grapher) Stop() {
	if g.running.CompareAndSwap(true, false) {
		g.log.Info("stop requested")
	}
}

// HandleEvent reacts to a single input event.
func (g *Grapher) HandleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventQuit:
		g.Stop()

	case input.EventKeyDown:
		g.held[ev.Key] = true
		if ev.Repeat {
			return
		}
		switch ev.Key {
		case input.KeyEscape:
			if g.captured {
				g.captured = false
			} else {
				g.Stop()
			}
		case input.KeyRightShift:
			g.scene.Clear()
			g.log.Info("scene cleared")
		case input.KeyF5:
			if path, err := g.Export(); err != nil {
				g.log.Error("export failed", zap.Error(err))
			} else {
				g.log.Info("scene exported", zap.String("path", path))
			}
		}

	case input.EventKeyUp:
		delete(g.held, ev.Key)

	case input.EventMouseDown:
		if ev.Button == input.ButtonLeft {
			g.captured = true
		}

	case input.EventMouseMove:
		if !g.captured {
			return
		}
		g.cam.Spin(float32(ev.DeltaX / g.opts.MouseScale))
		g.cam.Crane(float32(ev.DeltaY / g.opts.MouseScale))
	}
}

// Update advances one frame of dt.
func (g *Grapher) Update(dt time.Duration) error {
	g.walk(dt)

	if snap, ok := g.channel.TryReceive(); ok {
		g.apply(snap)
	}

	g.elapsed += dt
	if g.opts.Animate && g.scene.HasAnimated() {
		p := g.opts.Params
		p.Time = float64(g.elapsed.Milliseconds())
		for _, err := range g.scene.Animate(p) {
			g.log.Warn("animated equation dropped",
				zap.String("equation", err.Source),
				zap.Error(err.Err),
			)
		}
	}
	return nil
}

// Elapsed returns the total time seen by Update.
func (g *Grapher) Elapsed() time.Duration {
	return g.elapsed
}

func (g *Grapher) walk(dt time.Duration) {
	var m mgl32.Vec3
	if g.held[input.KeyW] {
		m[2]++
	}
	if g.held[input.KeyS] {
		m[2]--
	}
	if g.held[input.KeyD] {
		m[0]++
	}
	if g.held[input.KeyA] {
		m[0]--
	}
	// Y-down frame: Space raises the camera.
	if g.held[input.KeySpace] {
		m[1]--
	}
	if g.held[input.KeyLeftShift] {
		m[1]++
	}
	if m == (mgl32.Vec3{}) {
		return
	}

	ms := float64(dt) / float64(time.Millisecond)
	g.cam.Walk(m.Mul(float32(ms / g.opts.MoveScale)))
}

func (g *Grapher) apply(snap equation.Snapshot) {
	p := g.opts.Params
	p.Time = float64(g.elapsed.Milliseconds())

	report := g.scene.Apply(snap, p)
	for _, le := range report.Errors {
		if errors.Is(le, expression.ErrEmpty) {
			g.log.Debug("blank line skipped", zap.Int("line", le.Line+1))
			continue
		}
		var pe *expression.ParseError
		if errors.As(le, &pe) {
			g.log.Warn("equation parse failed",
				zap.Int("line", le.Line+1),
				zap.String("equation", le.Source),
				zap.Error(pe.Err),
			)
			continue
		}
		g.log.Warn("equation build failed",
			zap.Int("line", le.Line+1),
			zap.String("equation", le.Source),
			zap.Error(le.Err),
		)
	}

	g.scene.Each(func(key string, obj *scene.Object) {
		// Heights are stored negated, so the plotted range is the flipped Y extent.
		b := obj.Mesh.Bounds
		g.log.Debug("surface built",
			zap.String("equation", key),
			zap.Float32("min", -b.Max.Y()),
			zap.Float32("max", -b.Min.Y()),
		)
	})

	g.log.Info("equations applied",
		zap.Uint64("seq", report.Seq),
		zap.Int("lines", len(snap.Lines)),
		zap.Int("built", report.Built),
		zap.Int("errors", len(report.Errors)),
		zap.Uint64("dropped", g.channel.Dropped()),
	)
}

// Export writes the current scene as a binary glTF file and returns its path.
func (g *Grapher) Export() (string, error) {
	if g.scene.Len() == 0 {
		return "", fmt.Errorf("nothing to export")
	}
	if g.opts.ExportDir != "" {
		if err := os.MkdirAll(g.opts.ExportDir, 0755); err != nil {
			return "", fmt.Errorf("creating export dir: %w", err)
		}
	}
	name := fmt.Sprintf("grapher_%s.glb", g.now().Format("2006-01-02_15-04-05.000"))
	path := filepath.Join(g.opts.ExportDir, name)
	if err := mesh.ExportGLTF(path, g.scene.Meshes()); err != nil {
		return "", err
	}
	return path, nil
}
