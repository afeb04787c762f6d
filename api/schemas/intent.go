package schemas

// ActionKind identifies the interaction requested by the planner. It is a
// closed enumeration; the escalation executor dispatches on it exactly once.
type ActionKind string

const (
	ActionClick  ActionKind = "CLICK"
	ActionType   ActionKind = "TYPE"
	ActionScroll ActionKind = "SCROLL"
	ActionWait   ActionKind = "WAIT"
)

// Valid reports whether the kind is one of the closed set.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionClick, ActionType, ActionScroll, ActionWait:
		return true
	}
	return false
}

// ScrollSpec describes a scroll request in page pixels.
type ScrollSpec struct {
	// Direction is "down", "up", "left" or "right".
	Direction string  `json:"direction"`
	Distance  float64 `json:"distance"`
}

// Intent is a single abstract instruction issued by the planner. It is
// immutable once issued and consumed by exactly one Execute call.
//
// TargetLocator is an opaque expression produced by the sensor (an XPath or
// CSS selector); the engine never validates its syntax beyond "did it match".
type Intent struct {
	TargetLocator string      `json:"target_locator"`
	Action        ActionKind  `json:"action"`
	Payload       string      `json:"payload,omitempty"`
	Scroll        *ScrollSpec `json:"scroll,omitempty"`
	// WaitMs applies to ActionWait only.
	WaitMs int `json:"wait_ms,omitempty"`
}
