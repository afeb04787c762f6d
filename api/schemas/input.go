package schemas

// -- Low-Level Input Schemas --
//
// These mirror the CDP Input domain closely enough for a thin adapter, while
// keeping the physics and escalation logic free of chromedp imports.

// MouseEventType defines the type of a mouse event.
type MouseEventType string

const (
	MouseMove    MouseEventType = "mouseMoved"
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton defines the mouse button being pressed.
type MouseButton string

const (
	ButtonNone MouseButton = "none"
	ButtonLeft MouseButton = "left"
)

// MouseEventData encapsulates all data for a single dispatched mouse event.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	Buttons    int64          `json:"buttons"`
	ClickCount int            `json:"clickCount"`
	DeltaX     float64        `json:"deltaX"`
	DeltaY     float64        `json:"deltaY"`
}

// KeyModifier is a bitmask of held modifier keys.
type KeyModifier int

const (
	ModAlt KeyModifier = 1 << iota
	ModCtrl
	ModMeta
	ModShift
)

// KeyEventData describes a structured key press (key name plus modifiers).
// The executor is responsible for emitting the KeyDown/KeyUp pair.
type KeyEventData struct {
	Key       string      `json:"key"`
	Modifiers KeyModifier `json:"modifiers"`
}

// ElementGeometry is the last-known bounding box of a located element, in
// top-document viewport coordinates (frame offsets already applied).
type ElementGeometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the geometric center of the box.
func (g ElementGeometry) Center() (float64, float64) {
	return g.X + g.Width/2, g.Y + g.Height/2
}

// Valid reports whether the box has positive area.
func (g ElementGeometry) Valid() bool {
	return g.Width > 0 && g.Height > 0
}
