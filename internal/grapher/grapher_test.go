package grapher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/grapher/internal/camera"
	"github.com/Faultbox/grapher/internal/engine/input"
	"github.com/Faultbox/grapher/internal/equation"
	"github.com/Faultbox/grapher/internal/mesh"
)

func newTestGrapher(t *testing.T, opts Options) (*Grapher, *equation.Channel, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	ch := equation.NewChannel()
	cam := camera.New()
	cam.Speed = 1
	cam.Sensitivity = 1
	return New(cam, ch, opts, zap.New(core)), ch, logs
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Params.Steps = 2
	opts.Params.Range = 1
	return opts
}

func vecNear(a, b mgl32.Vec3) bool {
	for i := range a {
		if d := a[i] - b[i]; d > 1e-5 || d < -1e-5 {
			return false
		}
	}
	return true
}

func TestWalkForward(t *testing.T) {
	g, _, _ := newTestGrapher(t, testOptions())

	g.HandleEvent(input.KeyDown(input.KeyW))
	g.Update(200 * time.Millisecond)

	// Yaw 0 faces -Z; 200ms / 200 = one unit.
	if want := (mgl32.Vec3{0, 0, -1}); !vecNear(g.Camera().Position, want) {
		t.Errorf("position = %v, want %v", g.Camera().Position, want)
	}

	g.HandleEvent(input.KeyUp(input.KeyW))
	g.Update(200 * time.Millisecond)
	if want := (mgl32.Vec3{0, 0, -1}); !vecNear(g.Camera().Position, want) {
		t.Errorf("camera moved after key release: %v", g.Camera().Position)
	}
}

func TestWalkAxes(t *testing.T) {
	tests := []struct {
		key  input.Key
		want mgl32.Vec3
	}{
		{input.KeyS, mgl32.Vec3{0, 0, 1}},
		{input.KeyD, mgl32.Vec3{1, 0, 0}},
		{input.KeyA, mgl32.Vec3{-1, 0, 0}},
		{input.KeySpace, mgl32.Vec3{0, -1, 0}},
		{input.KeyLeftShift, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			g, _, _ := newTestGrapher(t, testOptions())
			g.HandleEvent(input.KeyDown(tt.key))
			g.Update(200 * time.Millisecond)
			if !vecNear(g.Camera().Position, tt.want) {
				t.Errorf("position = %v, want %v", g.Camera().Position, tt.want)
			}
		})
	}
}

func TestMouseLookRequiresCapture(t *testing.T) {
	g, _, _ := newTestGrapher(t, testOptions())

	g.HandleEvent(input.MouseMove(400, 200))
	if g.Camera().Yaw != 0 || g.Camera().Pitch != 0 {
		t.Fatalf("uncaptured mouse moved camera: yaw=%v pitch=%v", g.Camera().Yaw, g.Camera().Pitch)
	}

	g.HandleEvent(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft})
	if !g.Captured() {
		t.Fatal("left click did not capture")
	}
	g.HandleEvent(input.MouseMove(400, 200))
	if g.Camera().Yaw != 2 || g.Camera().Pitch != 1 {
		t.Errorf("yaw=%v pitch=%v, want 2 and 1", g.Camera().Yaw, g.Camera().Pitch)
	}
}

func TestEscape(t *testing.T) {
	g, _, _ := newTestGrapher(t, testOptions())

	g.HandleEvent(input.Event{Type: input.EventMouseDown, Button: input.ButtonLeft})
	g.HandleEvent(input.KeyDown(input.KeyEscape))
	if g.Captured() || !g.Running() {
		t.Fatalf("first Escape: captured=%v running=%v, want false/true", g.Captured(), g.Running())
	}

	g.HandleEvent(input.KeyUp(input.KeyEscape))
	g.HandleEvent(input.KeyDown(input.KeyEscape))
	if g.Running() {
		t.Error("second Escape did not stop")
	}
}

func TestQuitEventStops(t *testing.T) {
	g, _, _ := newTestGrapher(t, testOptions())
	g.HandleEvent(input.Event{Type: input.EventQuit})
	if g.Running() {
		t.Error("quit event did not stop")
	}
}

func TestStopFromAnotherGoroutine(t *testing.T) {
	g, _, _ := newTestGrapher(t, testOptions())
	done := make(chan struct{})
	go func() {
		g.Stop()
		close(done)
	}()
	<-done
	if g.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestUpdateAppliesSnapshot(t *testing.T) {
	g, ch, logs := newTestGrapher(t, testOptions())

	ch.Publish([]string{"x +", "x*z", ""})
	if err := g.Update(16 * time.Millisecond); err != nil {
		t.Fatal(err)
	}

	if keys := g.Scene().Keys(); len(keys) != 1 || keys[0] != "x*z" {
		t.Fatalf("scene keys = %q, want [x*z]", keys)
	}
	if n := logs.FilterMessage("equation parse failed").FilterField(zap.Int("line", 1)).Len(); n != 1 {
		t.Errorf("parse failure logged %d times, want 1", n)
	}
	blank := logs.FilterMessage("blank line skipped").All()
	if len(blank) != 1 || blank[0].Level != zapcore.DebugLevel {
		t.Errorf("blank line log = %+v", blank)
	}

	// Empty channel leaves the scene alone.
	g.Update(16 * time.Millisecond)
	if g.Scene().Len() != 1 {
		t.Errorf("scene changed without a snapshot")
	}
}

func TestUpdateLogsSurfaceRange(t *testing.T) {
	g, ch, logs := newTestGrapher(t, testOptions())
	ch.Publish([]string{"x"})
	g.Update(time.Millisecond)

	built := logs.FilterMessage("surface built").All()
	if len(built) != 1 {
		t.Fatalf("got %d surface logs, want 1", len(built))
	}
	fields := built[0].ContextMap()
	if fields["equation"] != "x" {
		t.Errorf("equation = %v, want x", fields["equation"])
	}
	// y = x over [-1, 1] spans [-1, 1].
	if fields["min"] != float32(-1) || fields["max"] != float32(1) {
		t.Errorf("range = [%v, %v], want [-1, 1]", fields["min"], fields["max"])
	}
}

func TestUpdateLogsBuildFailure(t *testing.T) {
	g, ch, logs := newTestGrapher(t, testOptions())
	ch.Publish([]string{"1 / x"})
	g.Update(0)

	if logs.FilterMessage("equation build failed").Len() != 1 {
		t.Errorf("build failure not logged: %v", logs.All())
	}
	if g.Scene().Len() != 0 {
		t.Errorf("scene has %d objects, want 0", g.Scene().Len())
	}
}

func TestAnimation(t *testing.T) {
	opts := testOptions()
	opts.Animate = true
	g, ch, _ := newTestGrapher(t, opts)

	ch.Publish([]string{"t"})
	g.Update(0)
	g.Update(100 * time.Millisecond)

	obj, ok := g.Scene().Get("t")
	if !ok {
		t.Fatal("animated object missing")
	}
	if y := obj.Mesh.Vertices[0].Position.Y(); y != -100 {
		t.Errorf("height at t=100ms = %v, want -100", y)
	}
	if g.Elapsed() != 100*time.Millisecond {
		t.Errorf("Elapsed() = %v", g.Elapsed())
	}
}

func TestRightShiftClears(t *testing.T) {
	g, ch, _ := newTestGrapher(t, testOptions())
	ch.Publish([]string{"x"})
	g.Update(0)

	g.HandleEvent(input.KeyDown(input.KeyRightShift))
	if g.Scene().Len() != 0 {
		t.Errorf("scene has %d objects after clear", g.Scene().Len())
	}
}

func TestExport(t *testing.T) {
	opts := testOptions()
	opts.ExportDir = filepath.Join(t.TempDir(), "out")
	g, ch, _ := newTestGrapher(t, opts)

	if _, err := g.Export(); err == nil {
		t.Error("Export() of empty scene should fail")
	}

	ch.Publish([]string{"x", "z"})
	g.Update(0)
	path, err := g.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if filepath.Ext(path) != ".glb" {
		t.Errorf("path = %q, want .glb", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Params.Steps != 16 || opts.Params.Range != 8 {
		t.Errorf("params = %+v", opts.Params)
	}
	if opts.Params.Sampling != mesh.SamplingSeamless {
		t.Errorf("sampling = %v", opts.Params.Sampling)
	}
}
