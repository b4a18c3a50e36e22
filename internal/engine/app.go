// Package engine drives the render loop over a window, a renderer and an App.
package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/grapher/internal/camera"
	"github.com/Faultbox/grapher/internal/engine/input"
	"github.com/Faultbox/grapher/internal/scene"
)

// App is what the loop runs: it reacts to input, advances per frame and
// exposes the camera and scene to draw.
type App interface {
	Camera() *camera.Camera
	Scene() *scene.Scene
	HandleEvent(ev input.Event)
	Update(dt time.Duration) error
	Running() bool
	Captured() bool
}

// Window is the platform window the loop presents to.
type Window interface {
	PollEvents() []input.Event
	SetCaptured(captured bool)
	SwapBuffers()
	Size() (int, int)
	SetTitle(title string)
}

// Renderer draws scenes.
type Renderer interface {
	Resize(width, height int)
	Sync(s *scene.Scene)
	Draw(viewProj mgl32.Mat4)
	SetWireframe(on bool)
	Wireframe() bool
	ReadPixels(width, height int) []byte
}

// Screenshotter stores captured frames.
type Screenshotter interface {
	CaptureFromPixels(pixels []byte, width, height int) (string, error)
}
