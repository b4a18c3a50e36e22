// Package camera provides the first-person camera used to fly around plotted surfaces.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPitch keeps the forward vector away from the poles, where its
// horizontal component would vanish.
const MaxPitch float32 = 89.99

// Camera is a first-person camera. Angles are in degrees.
//
// The world frame is Y-down: surface heights are negated when meshes are built,
// and the projection flips clip-space Y so that larger values appear higher on screen.
type Camera struct {
	Position mgl32.Vec3

	Pitch float32 // rotation about X, clamped to ±MaxPitch
	Yaw   float32 // rotation about Y, in [0, 360)
	Roll  float32 // unused

	// Speed scales Walk distances.
	Speed float32
	// Sensitivity scales Spin and Crane deltas.
	Sensitivity float32

	// Projection
	FOV  float32
	Near float32
	Far  float32
}

// New creates a camera at the origin with the default settings.
func New() *Camera {
	return &Camera{
		Speed:       3.5,
		Sensitivity: 15,
		FOV:         90,
		Near:        0.1,
		Far:         1000,
	}
}

// Vectors returns the forward and right unit vectors for the current orientation.
func (c *Camera) Vectors() (forward, right mgl32.Vec3) {
	pitch := float64(mgl32.DegToRad(c.Pitch))
	yaw := float64(mgl32.DegToRad(c.Yaw))

	forward = mgl32.Vec3{
		float32(gomath.Sin(yaw) * gomath.Cos(pitch)),
		float32(gomath.Sin(pitch)),
		float32(-gomath.Cos(yaw) * gomath.Cos(pitch)),
	}
	right = mgl32.Vec3{
		float32(gomath.Cos(yaw)),
		0,
		float32(gomath.Sin(yaw)),
	}
	return forward, right
}

// Walk moves the camera by m, given as {sideward, upward, forward} in camera units.
// Forward and sideward motion stay level regardless of pitch; upward motion is
// applied to world Y. Each axis is a separate update of the current position.
func (c *Camera) Walk(m mgl32.Vec3) {
	forward, right := c.Vectors()

	if level := (mgl32.Vec3{forward.X(), 0, forward.Z()}); level.Len() > 0 {
		c.Position = c.Position.Add(level.Normalize().Mul(m.Z() * c.Speed))
	}
	if level := (mgl32.Vec3{right.X(), 0, right.Z()}); level.Len() > 0 {
		c.Position = c.Position.Add(level.Normalize().Mul(m.X() * c.Speed))
	}
	c.Position = mgl32.Vec3{c.Position.X(), c.Position.Y() + m.Y()*c.Speed, c.Position.Z()}
}

// Spin turns the camera horizontally by delta (scaled by Sensitivity).
// Yaw wraps into [0, 360).
func (c *Camera) Spin(delta float32) {
	yaw := gomath.Mod(float64(c.Yaw)+float64(delta*c.Sensitivity), 360)
	if gomath.IsNaN(yaw) {
		return
	}
	if yaw < 0 {
		yaw += 360
	}
	c.Yaw = float32(yaw)
	if c.Yaw >= 360 {
		c.Yaw = 0
	}
}

// Crane tilts the camera vertically by delta (scaled by Sensitivity).
// Pitch is clamped, never wrapped.
func (c *Camera) Crane(delta float32) {
	pitch := c.Pitch + delta*c.Sensitivity
	if pitch != pitch { // NaN
		return
	}
	c.Pitch = mgl32.Clamp(pitch, -MaxPitch, MaxPitch)
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	forward, _ := c.Vectors()
	return mgl32.LookAtV(c.Position, c.Position.Add(forward), mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio,
// with clip-space Y flipped for the Y-down world frame.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
	return mgl32.Scale3D(1, -1, 1).Mul4(proj)
}

// ViewProjection returns ProjectionMatrix * ViewMatrix.
func (c *Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}
