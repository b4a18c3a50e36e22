package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/grapher/internal/camera"
	"github.com/Faultbox/grapher/internal/engine/input"
	"github.com/Faultbox/grapher/internal/equation"
	"github.com/Faultbox/grapher/internal/mesh"
	"github.com/Faultbox/grapher/internal/scene"
)

type fakeWindow struct {
	frames   [][]input.Event
	polls    int
	captured bool
	swaps    int
	width    int
	height   int
	titles   []string
}

func (w *fakeWindow) PollEvents() []input.Event {
	defer func() { w.polls++ }()
	if w.polls < len(w.frames) {
		return w.frames[w.polls]
	}
	return nil
}

func (w *fakeWindow) SetCaptured(c bool) { w.captured = c }
func (w *fakeWindow) SwapBuffers() { w.swaps++ }
func (w *fakeWindow) Size() (int, int) { return w.width, w.height }
func (w *fakeWindow) SetTitle(t string) { w.titles = append(w.titles, t) }

type fakeRenderer struct {
	syncs     int
	draws     int
	wireframe bool
	resized   [2]int
	reads     int
}

func (r *fakeRenderer) Resize(w, h int) { r.resized = [2]int{w, h} }
func (r *fakeRenderer) Sync(*scene.Scene) { r.syncs++ }
func (r *fakeRenderer) Draw(mgl32.Mat4) { r.draws++ }
func (r *fakeRenderer) SetWireframe(on bool) { r.wireframe = on }
func (r *fakeRenderer) Wireframe() bool { return r.wireframe }
func (r *fakeRenderer) ReadPixels(w, h int) []byte {
	r.reads++
	return make([]byte, w*h*4)
}

type fakeApp struct {
	cam      *camera.Camera
	scene    *scene.Scene
	events   []input.Event
	updates  int
	stopAt   int
	captured bool
	err      error
}

func newFakeApp(stopAt int) *fakeApp {
	return &fakeApp{cam: camera.New(), scene: scene.New(), stopAt: stopAt}
}

func (a *fakeApp) Camera() *camera.Camera { return a.cam }
func (a *fakeApp) Scene() *scene.Scene { return a.scene }
func (a *fakeApp) HandleEvent(ev input.Event) { a.events = append(a.events, ev) }
func (a *fakeApp) Running() bool { return a.updates < a.stopAt }
func (a *fakeApp) Captured() bool { return a.captured }
func (a *fakeApp) Update(time.Duration) error {
	a.updates++
	return a.err
}

type fakeShots struct {
	calls  int
	width  int
	height int
}

func (s *fakeShots) CaptureFromPixels(p []byte, w, h int) (string, error) {
	s.calls++
	s.width, s.height = w, h
	return "shot.png", nil
}

func TestLoopRunsUntilAppStops(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600}
	r := &fakeRenderer{}
	app := newFakeApp(3)
	loop := NewLoop(LoopConfig{}, w, r, app, nil, zaptest.NewLogger(t))

	if err := loop.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The third update flips Running, so only two frames are presented.
	if loop.Frames() != 2 || w.swaps != 2 || r.draws != 2 || r.syncs != 2 {
		t.Errorf("frames=%d swaps=%d draws=%d syncs=%d, want 2 each",
			loop.Frames(), w.swaps, r.draws, r.syncs)
	}
	if app.updates != 3 {
		t.Errorf("updates = %d, want 3", app.updates)
	}
}

func TestLoopForwardsEvents(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600, frames: [][]input.Event{
		{input.KeyDown(input.KeyW), input.MouseMove(3, 4)},
		{input.KeyUp(input.KeyW)},
	}}
	app := newFakeApp(10)
	loop := NewLoop(LoopConfig{}, w, &fakeRenderer{}, app, nil, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		if _, err := loop.Frame(time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}

	if len(app.events) != 3 {
		t.Fatalf("app received %d events, want 3", len(app.events))
	}
	if app.events[1].DeltaX != 3 || app.events[1].DeltaY != 4 {
		t.Errorf("mouse event = %+v", app.events[1])
	}
}

func TestLoopHandlesWireframeAndResize(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600, frames: [][]input.Event{
		{input.KeyDown(input.KeyF1)},
		{{Type: input.EventWindowResize, Width: 1024, Height: 768}},
	}}
	r := &fakeRenderer{}
	app := newFakeApp(10)
	loop := NewLoop(LoopConfig{}, w, r, app, nil, zaptest.NewLogger(t))

	loop.Frame(time.Millisecond)
	if !r.wireframe {
		t.Error("F1 did not enable wireframe")
	}
	if len(app.events) != 0 {
		t.Errorf("F1 was forwarded to the app: %+v", app.events)
	}

	w.width, w.height = 1024, 768
	loop.Frame(time.Millisecond)
	if r.resized != [2]int{1024, 768} {
		t.Errorf("resized = %v, want [1024 768]", r.resized)
	}
}

func TestLoopScreenshot(t *testing.T) {
	w := &fakeWindow{width: 4, height: 2, frames: [][]input.Event{
		{input.KeyDown(input.KeyF12)},
	}}
	r := &fakeRenderer{}
	shots := &fakeShots{}
	loop := NewLoop(LoopConfig{}, w, r, newFakeApp(10), shots, zaptest.NewLogger(t))

	loop.Frame(time.Millisecond)
	loop.Frame(time.Millisecond)

	if shots.calls != 1 || r.reads != 1 {
		t.Errorf("captures = %d, reads = %d, want 1", shots.calls, r.reads)
	}
	if shots.width != 4 || shots.height != 2 {
		t.Errorf("capture size = %dx%d, want 4x2", shots.width, shots.height)
	}
}

func TestLoopSyncsCapture(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600}
	app := newFakeApp(10)
	app.captured = true
	loop := NewLoop(LoopConfig{}, w, &fakeRenderer{}, app, nil, zaptest.NewLogger(t))

	loop.Frame(time.Millisecond)
	if !w.captured {
		t.Error("window capture not synced with app")
	}
}

func TestLoopTitleTracksScene(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600}
	app := newFakeApp(10)
	loop := NewLoop(LoopConfig{Title: "Grapher"}, w, &fakeRenderer{}, app, nil, zaptest.NewLogger(t))

	loop.Frame(time.Millisecond)
	loop.Frame(time.Millisecond)
	if len(w.titles) != 1 || w.titles[0] != "Grapher - 0 surfaces" {
		t.Fatalf("titles = %q, want one empty-scene title", w.titles)
	}

	app.scene.Apply(equation.Snapshot{Seq: 1, Lines: []string{"x", "z"}}, mesh.Params{Steps: 2, Range: 1})
	loop.Frame(time.Millisecond)
	if len(w.titles) != 2 || w.titles[1] != "Grapher - 2 surfaces" {
		t.Errorf("titles = %q, want count updated to 2", w.titles)
	}
}

func TestLoopTitleDisabled(t *testing.T) {
	w := &fakeWindow{width: 800, height: 600}
	loop := NewLoop(LoopConfig{}, w, &fakeRenderer{}, newFakeApp(10), nil, zaptest.NewLogger(t))

	loop.Frame(time.Millisecond)
	if len(w.titles) != 0 {
		t.Errorf("titles = %q, want none without a prefix", w.titles)
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "Grapher - 0 surfaces"},
		{1, "Grapher - 1 surface"},
		{3, "Grapher - 3 surfaces"},
	}
	for _, tt := range tests {
		if got := Title("Grapher", tt.n); got != tt.want {
			t.Errorf("Title(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestLoopUpdateError(t *testing.T) {
	app := newFakeApp(10)
	app.err = errors.New("boom")
	loop := NewLoop(LoopConfig{}, &fakeWindow{width: 1, height: 1}, &fakeRenderer{}, app, nil, zaptest.NewLogger(t))

	if err := loop.Run(); !errors.Is(err, app.err) {
		t.Errorf("Run() error = %v, want wrapped boom", err)
	}
}

func TestFPSLimiterDisabled(t *testing.T) {
	f := NewFPSLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		f.Wait()
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("disabled limiter should not block")
	}
}

func TestFPSLimiterCaps(t *testing.T) {
	f := NewFPSLimiter(100)
	start := time.Now()
	for i := 0; i < 5; i++ {
		f.Wait()
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("5 frames at 100 fps took %v, want >= 40ms", elapsed)
	}
}
