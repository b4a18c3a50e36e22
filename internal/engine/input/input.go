// Package input defines backend-neutral input events.
package input

// EventType identifies the kind of an Event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
)

// Key is a keyboard key the application reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
	KeyLeftShift
	KeyRightShift
	KeyEscape
	KeyF1
	KeyF5
	KeyF12
)

var keyNames = map[Key]string{
	KeyW:          "W",
	KeyA:          "A",
	KeyS:          "S",
	KeyD:          "D",
	KeySpace:      "Space",
	KeyLeftShift:  "LeftShift",
	KeyRightShift: "RightShift",
	KeyEscape:     "Escape",
	KeyF1:         "F1",
	KeyF5:         "F5",
	KeyF12:        "F12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Mouse buttons
const (
	ButtonLeft   uint8 = 1
	ButtonMiddle uint8 = 2
	ButtonRight  uint8 = 3
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    Key
	Repeat bool
	Width  int
	Height int
	MouseX int
	MouseY int
	// Relative motion, valid for EventMouseMove.
	DeltaX float64
	DeltaY float64
	Button uint8
}

// KeyDown returns a key press event.
func KeyDown(k Key) Event {
	return Event{Type: EventKeyDown, Key: k}
}

// KeyUp returns a key release event.
func KeyUp(k Key) Event {
	return Event{Type: EventKeyUp, Key: k}
}

// MouseMove returns a relative mouse motion event.
func MouseMove(dx, dy float64) Event {
	return Event{Type: EventMouseMove, DeltaX: dx, DeltaY: dy}
}
