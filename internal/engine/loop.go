package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/grapher/internal/engine/input"
)

// LoopConfig holds loop settings.
type LoopConfig struct {
	FPSLimit int
	// Title is the window title prefix; the plotted surface count is
	// appended whenever it changes. Empty leaves the title alone.
	Title string
}

// Loop runs frames until the app stops.
type Loop struct {
	window   Window
	renderer Renderer
	app      App
	shots    Screenshotter
	limiter  *FPSLimiter
	title    string
	log      *zap.Logger

	width, height int
	pendingShot   bool
	frames        uint64
	titled        bool
	titleCount    int
}

// NewLoop creates a render loop. shots may be nil to disable screenshots.
func NewLoop(cfg LoopConfig, w Window, r Renderer, app App, shots Screenshotter, log *zap.Logger) *Loop {
	width, height := w.Size()
	return &Loop{
		window:   w,
		renderer: r,
		app:      app,
		shots:    shots,
		limiter:  NewFPSLimiter(cfg.FPSLimit),
		title:    cfg.Title,
		log:      log,
		width:    width,
		height:   height,
	}
}

// Frames returns the number of frames presented.
func (l *Loop) Frames() uint64 {
	return l.frames
}

// Run drives frames until the app reports it is no longer running.
func (l *Loop) Run() error {
	l.log.Info("starting render loop", zap.Int("fps_limit", l.limiter.Limit()))

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	for {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		more, err := l.Frame(dt)
		if err != nil {
			return err
		}
		if !more {
			break
		}

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			l.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}

		l.limiter.Wait()
	}

	l.log.Info("render loop stopped", zap.Uint64("frames", l.frames))
	return nil
}

// Frame runs one iteration. It returns false once the app has stopped.
func (l *Loop) Frame(dt time.Duration) (bool, error) {
	for _, ev := range l.window.PollEvents() {
		l.handleEvent(ev)
	}

	if err := l.app.Update(dt); err != nil {
		return false, fmt.Errorf("update error: %w", err)
	}
	if !l.app.Running() {
		return false, nil
	}

	l.window.SetCaptured(l.app.Captured())

	l.renderer.Sync(l.app.Scene())
	l.updateTitle()

	aspect := float32(1)
	if l.height > 0 {
		aspect = float32(l.width) / float32(l.height)
	}
	l.renderer.Draw(l.app.Camera().ViewProjection(aspect))

	if l.pendingShot {
		l.pendingShot = false
		l.screenshot()
	}

	l.window.SwapBuffers()
	l.frames++
	return true, nil
}

func (l *Loop) handleEvent(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		l.width, l.height = l.window.Size()
		l.renderer.Resize(l.width, l.height)
	case input.EventKeyDown:
		if ev.Repeat {
			break
		}
		switch ev.Key {
		case input.KeyF1:
			l.renderer.SetWireframe(!l.renderer.Wireframe())
			l.log.Debug("wireframe toggled", zap.Bool("on", l.renderer.Wireframe()))
			return
		case input.KeyF12:
			l.pendingShot = true
			return
		}
	}
	l.app.HandleEvent(ev)
}

// Title formats the window title for n plotted surfaces.
func Title(prefix string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s - 1 surface", prefix)
	}
	return fmt.Sprintf("%s - %d surfaces", prefix, n)
}

func (l *Loop) updateTitle() {
	if l.title == "" {
		return
	}
	n := l.app.Scene().Len()
	if l.titled && n == l.titleCount {
		return
	}
	l.titled = true
	l.titleCount = n
	l.window.SetTitle(Title(l.title, n))
}

func (l *Loop) screenshot() {
	if l.shots == nil {
		l.log.Warn("screenshots disabled")
		return
	}
	pixels := l.renderer.ReadPixels(l.width, l.height)
	path, err := l.shots.CaptureFromPixels(pixels, l.width, l.height)
	if err != nil {
		l.log.Error("screenshot failed", zap.Error(err))
		return
	}
	l.log.Info("screenshot saved", zap.String("path", path))
}
