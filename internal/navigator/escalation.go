package navigator

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/api/schemas"
	"github.com/xkilldash9x/vise/internal/browser/physics"
)

// Shared by the scripts below: compute an element's rect in top-viewport
// coordinates by accumulating the offsets of any enclosing same-origin
// frames, and climb the composed tree (through shadow hosts and frame
// elements) for containment checks.
const jsTargetHelpers = `
function __absRect(el) {
    let r = el.getBoundingClientRect();
    let x = r.x, y = r.y;
    let w = el.ownerDocument.defaultView;
    while (w && w !== window && w.frameElement) {
        const fr = w.frameElement.getBoundingClientRect();
        x += fr.x; y += fr.y;
        w = w.parent;
    }
    return { x: x, y: y, width: r.width, height: r.height };
}
function __composedContains(outer, inner) {
    let n = inner;
    while (n) {
        if (n === outer) return true;
        if (n.parentNode) { n = n.parentNode; continue; }
        if (n.host) { n = n.host; continue; }
        const w = n.defaultView || (n.ownerDocument && n.ownerDocument.defaultView);
        n = w ? w.frameElement : null;
    }
    return false;
}`

// Level 1 gate: is the chosen point actually hitting the target (or one of
// its composed ancestors/descendants), or is an overlay in the way?
const jsHitTest = `(function(x, y) {` + jsTargetHelpers + `
    const t = window.__viseTarget;
    if (!t || !t.isConnected) return { ok: false, reason: "detached" };
    const el = document.elementFromPoint(x, y);
    if (!el) return { ok: false, reason: "offscreen" };
    if (el === t || __composedContains(el, t) || __composedContains(t, el)) return { ok: true };
    return { ok: false, reason: "occluded by " + el.tagName };
})(%.2f, %.2f)`

// Level 2: script-origin click dispatch on the parked target. Works for
// elements a native click rejects because an overlay wins the hit test.
const jsScriptClick = `(function() {` + jsTargetHelpers + `
    const t = window.__viseTarget;
    if (!t || !t.isConnected) return { ok: false, reason: "detached" };
    t.scrollIntoView({ block: "center", inline: "center" });
    const view = t.ownerDocument.defaultView;
    const opt = { bubbles: true, cancelable: true, view: view };
    t.dispatchEvent(new MouseEvent("mousedown", opt));
    t.dispatchEvent(new MouseEvent("mouseup", opt));
    t.dispatchEvent(new MouseEvent("click", opt));
    if (typeof t.click === "function") t.click();
    return { ok: true };
})()`

// Level 4 prelude: re-verify the element's position immediately before
// acting, tolerating layout shifts since acquisition (visual servoing).
const jsServoGeometry = `(function() {` + jsTargetHelpers + `
    const t = window.__viseTarget;
    if (!t || !t.isConnected) return { ok: false, reason: "detached" };
    t.scrollIntoView({ block: "center", inline: "center" });
    const r = __absRect(t);
    if (r.width <= 0 || r.height <= 0) return { ok: false, reason: "zero size" };
    return { ok: true, x: r.x, y: r.y, width: r.width, height: r.height };
})()`

// Type step 2: force the value and fire the event triad reactive frameworks
// listen for. Native value assignment alone is invisible to most of them.
const jsForceValue = `(function(payload) {
    const t = window.__viseTarget;
    if (!t || !t.isConnected) return { ok: false, reason: "detached" };
    t.focus();
    try { t.value = payload; } catch (e) {}
    t.dispatchEvent(new Event("focus", { bubbles: true }));
    t.dispatchEvent(new Event("input", { bubbles: true }));
    t.dispatchEvent(new Event("change", { bubbles: true }));
    t.dispatchEvent(new Event("blur", { bubbles: true }));
    return { ok: true };
})(%s)`

// Type step 3: synthetic Enter sequence plus a direct submit on the owning
// form. Deliberately redundant: some forms intercept the key events, others
// only listen for submit.
const jsEnterHammer = `(function() {
    const t = window.__viseTarget;
    if (!t || !t.isConnected) return { ok: false, reason: "detached" };
    const opt = { key: "Enter", code: "Enter", keyCode: 13, which: 13, bubbles: true, cancelable: true };
    t.dispatchEvent(new KeyboardEvent("keydown", opt));
    t.dispatchEvent(new KeyboardEvent("keypress", opt));
    t.dispatchEvent(new KeyboardEvent("keyup", opt));
    if (t.form) {
        t.form.dispatchEvent(new Event("submit", { bubbles: true, cancelable: true }));
    }
    return { ok: true };
})()`

type scriptStatus struct {
	OK     bool    `json:"ok"`
	Reason string  `json:"reason"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScrollPhysics parameterizes the inertial scroll simulation.
type ScrollPhysics struct {
	InitialVelocity float64       `mapstructure:"initial_velocity"`
	Friction        float64       `mapstructure:"friction"`
	VelocityFloor   float64       `mapstructure:"velocity_floor"`
	Tick            time.Duration `mapstructure:"tick"`
}

// DefaultScrollPhysics matches a moderately brisk wheel fling.
func DefaultScrollPhysics() ScrollPhysics {
	return ScrollPhysics{
		InitialVelocity: 1400,
		Friction:        0.90,
		VelocityFloor:   40,
		Tick:            16 * time.Millisecond,
	}
}

// Escalator executes a located action through a fixed-order ladder of
// increasingly invasive techniques. Failures below the terminal level are
// logged and swallowed; escalation is the retry mechanism.
type Escalator struct {
	exec   PageExecutor
	sim    *physics.Simulator
	scroll ScrollPhysics
	logger *zap.Logger

	// pointer is the virtual cursor position carried between actions so
	// consecutive trajectories chain naturally.
	pointer physics.Vector2D
}

// NewEscalator builds an Escalator.
func NewEscalator(exec PageExecutor, sim *physics.Simulator, scroll ScrollPhysics, logger *zap.Logger) *Escalator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scroll.Tick <= 0 {
		scroll = DefaultScrollPhysics()
	}
	return &Escalator{exec: exec, sim: sim, scroll: scroll, logger: logger}
}

// Perform executes the intent's action against the located element and
// reports the highest escalation level that ran. Only terminal failures
// return an error.
func (e *Escalator) Perform(ctx context.Context, located *LocatedElement, intent schemas.Intent) (int, error) {
	switch intent.Action {
	case schemas.ActionClick:
		return e.click(ctx, located)
	case schemas.ActionType:
		return e.typeInto(ctx, located, intent.Payload)
	case schemas.ActionScroll:
		if intent.Scroll == nil {
			return 0, fmt.Errorf("scroll intent without scroll spec")
		}
		return 1, e.inertialScroll(ctx, *intent.Scroll)
	case schemas.ActionWait:
		d := time.Duration(intent.WaitMs) * time.Millisecond
		if d <= 0 {
			d = time.Second
		}
		return 1, e.exec.Sleep(ctx, d)
	default:
		return 0, fmt.Errorf("unsupported action %q", intent.Action)
	}
}

// -- Click ladder --

// click climbs the four-level ladder. Level 1 is a humanized pointer click
// gated by a hit test; level 2 dispatches script-origin events; level 3
// sends a raw input press/release pair that bypasses the page's script event
// model entirely; level 4 re-acquires geometry and fires raw input at the
// fresh center. Level 4 failure is terminal.
func (e *Escalator) click(ctx context.Context, located *LocatedElement) (int, error) {
	if err := e.humanClick(ctx, located.Geometry); err == nil {
		return 1, nil
	} else if ctx.Err() != nil {
		return 1, ctx.Err()
	} else {
		e.logger.Debug("click L1 failed, escalating", zap.Error(err))
	}

	if err := e.scriptClick(ctx); err == nil {
		return 2, nil
	} else if ctx.Err() != nil {
		return 2, ctx.Err()
	} else {
		e.logger.Debug("click L2 failed, escalating", zap.Error(err))
	}

	cx, cy := located.Geometry.Center()
	if err := e.rawClick(ctx, cx, cy); err == nil {
		return 3, nil
	} else if ctx.Err() != nil {
		return 3, ctx.Err()
	} else {
		e.logger.Debug("click L3 failed, escalating", zap.Error(err))
	}

	if err := e.servoClick(ctx); err != nil {
		if ctx.Err() != nil {
			return 4, ctx.Err()
		}
		e.logger.Warn("click L4 failed, target unreachable", zap.Error(err))
		return 4, fmt.Errorf("%w: %v", ErrEscalationExhausted, err)
	}
	return 4, nil
}

// humanClick moves the virtual pointer along a physics trajectory to a
// randomized point inside the element box and issues a native press/release
// with a randomized hold. The hit test runs first so an occluded target
// escalates instead of clicking the overlay.
func (e *Escalator) humanClick(ctx context.Context, geo schemas.ElementGeometry) error {
	if !geo.Valid() {
		return fmt.Errorf("element has no clickable area (%.0fx%.0f)", geo.Width, geo.Height)
	}
	point := e.sim.PointWithin(geo.X, geo.Y, geo.Width, geo.Height)

	status, err := e.evalStatus(ctx, fmt.Sprintf(jsHitTest, point.X, point.Y))
	if err != nil {
		return fmt.Errorf("hit test: %w", err)
	}
	if !status.OK {
		return fmt.Errorf("hit test rejected point: %s", status.Reason)
	}

	if err := e.moveTo(ctx, point); err != nil {
		return err
	}
	press := schemas.MouseEventData{
		Type: schemas.MousePress, X: point.X, Y: point.Y,
		Button: schemas.ButtonLeft, Buttons: 1, ClickCount: 1,
	}
	if err := e.exec.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}
	if err := e.exec.Sleep(ctx, e.sim.PressDuration()); err != nil {
		return err
	}
	release := schemas.MouseEventData{
		Type: schemas.MouseRelease, X: point.X, Y: point.Y,
		Button: schemas.ButtonLeft, ClickCount: 1,
	}
	return e.exec.DispatchMouseEvent(ctx, release)
}

func (e *Escalator) scriptClick(ctx context.Context) error {
	status, err := e.evalStatus(ctx, jsScriptClick)
	if err != nil {
		return err
	}
	if !status.OK {
		return fmt.Errorf("script click rejected: %s", status.Reason)
	}
	return nil
}

// rawClick sends the lowest-level input pair straight to the rendering
// engine. Pages that block synthetic script-origin events cannot see the
// difference from real hardware.
func (e *Escalator) rawClick(ctx context.Context, x, y float64) error {
	press := schemas.MouseEventData{
		Type: schemas.MousePress, X: x, Y: y,
		Button: schemas.ButtonLeft, Buttons: 1, ClickCount: 1,
	}
	if err := e.exec.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}
	release := schemas.MouseEventData{
		Type: schemas.MouseRelease, X: x, Y: y,
		Button: schemas.ButtonLeft, ClickCount: 1,
	}
	if err := e.exec.DispatchMouseEvent(ctx, release); err != nil {
		return err
	}
	e.pointer = physics.Vector2D{X: x, Y: y}
	return nil
}

func (e *Escalator) servoClick(ctx context.Context) error {
	status, err := e.evalStatus(ctx, jsServoGeometry)
	if err != nil {
		return fmt.Errorf("servo geometry: %w", err)
	}
	if !status.OK {
		return fmt.Errorf("servo geometry rejected: %s", status.Reason)
	}
	return e.rawClick(ctx, status.X+status.Width/2, status.Y+status.Height/2)
}

// moveTo walks the pointer along a generated trajectory, pacing the samples
// so the whole move takes a Fitts's-law plausible duration.
func (e *Escalator) moveTo(ctx context.Context, target physics.Vector2D) error {
	path := e.sim.Trajectory(e.pointer, target)
	duration := e.sim.MoveDuration(e.pointer.Dist(target))
	stepPause := duration / time.Duration(len(path))

	for _, pt := range path {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		move := schemas.MouseEventData{
			Type: schemas.MouseMove, X: pt.X, Y: pt.Y, Button: schemas.ButtonNone,
		}
		if err := e.exec.DispatchMouseEvent(ctx, move); err != nil {
			return err
		}
		e.pointer = pt
		if stepPause > 0 {
			if err := e.exec.Sleep(ctx, stepPause); err != nil {
				return err
			}
		}
	}
	return nil
}

// -- Type ladder --

// typeInto runs the sequential typing reinforcement: focus through the click
// ladder, clear, then character-by-character keys with a physical cadence;
// force the value and fire the framework event triad; hammer Enter and the
// owning form's submit. Steps 2 and 3 are best effort and never fail the
// action; only a failed focus is terminal.
func (e *Escalator) typeInto(ctx context.Context, located *LocatedElement, payload string) (int, error) {
	level, err := e.click(ctx, located)
	if err != nil {
		return level, fmt.Errorf("focus click: %w", err)
	}

	// Clear whatever is in the field: select-all, then delete.
	if err := e.exec.DispatchKeyEvent(ctx, schemas.KeyEventData{Key: "a", Modifiers: schemas.ModCtrl}); err != nil {
		return level, err
	}
	if err := e.exec.DispatchKeyEvent(ctx, schemas.KeyEventData{Key: "Backspace"}); err != nil {
		return level, err
	}

	var prev rune
	for _, ch := range payload {
		if ctx.Err() != nil {
			return level, ctx.Err()
		}
		if err := e.exec.Sleep(ctx, e.sim.TypingDelay(prev, ch)); err != nil {
			return level, err
		}
		if err := e.exec.SendKeys(ctx, string(ch)); err != nil {
			return level, err
		}
		prev = ch
	}

	// Reinforcement, not alternatives: always run both remaining steps.
	if status, err := e.evalStatus(ctx, fmt.Sprintf(jsForceValue, jsString(payload))); err != nil {
		e.logger.Debug("force-value step failed (ignored)", zap.Error(err))
	} else if !status.OK {
		e.logger.Debug("force-value step rejected (ignored)", zap.String("reason", status.Reason))
	}

	if _, err := e.evalStatus(ctx, jsEnterHammer); err != nil {
		e.logger.Debug("enter hammer failed (ignored)", zap.Error(err))
	}
	if err := e.exec.DispatchKeyEvent(ctx, schemas.KeyEventData{Key: "Enter"}); err != nil {
		e.logger.Debug("native enter failed (ignored)", zap.Error(err))
	}
	return level, nil
}

// -- Scroll --

// inertialScroll converts a fling into a decaying train of wheel deltas
// rather than one instantaneous jump, so scroll-triggered lazy loaders and
// intersection observers fire the way they would for a person.
func (e *Escalator) inertialScroll(ctx context.Context, spec schemas.ScrollSpec) error {
	horizontal := false
	sign := 1.0
	switch strings.ToLower(spec.Direction) {
	case "down", "":
	case "up":
		sign = -1.0
	case "right":
		horizontal = true
	case "left":
		horizontal = true
		sign = -1.0
	default:
		return fmt.Errorf("invalid scroll direction %q", spec.Direction)
	}

	distance := spec.Distance
	if distance <= 0 {
		distance = 600
	}
	if e.scroll.InitialVelocity < e.scroll.VelocityFloor {
		return fmt.Errorf("scroll physics cannot move: initial velocity %.0f below floor %.0f",
			e.scroll.InitialVelocity, e.scroll.VelocityFloor)
	}

	// One fling decays below the velocity floor after a few hundred pixels;
	// longer distances take repeated flings, like a person rolling the wheel
	// again.
	covered := 0.0
	for covered < distance {
		velocity := e.scroll.InitialVelocity
		for covered < distance && velocity >= e.scroll.VelocityFloor {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delta := velocity * e.scroll.Tick.Seconds()
			if covered+delta > distance {
				delta = distance - covered
			}
			wheel := schemas.MouseEventData{
				Type: schemas.MouseWheel, X: e.pointer.X, Y: e.pointer.Y, Button: schemas.ButtonNone,
			}
			if horizontal {
				wheel.DeltaX = sign * delta
			} else {
				wheel.DeltaY = sign * delta
			}
			if err := e.exec.DispatchMouseEvent(ctx, wheel); err != nil {
				return err
			}
			covered += delta
			velocity *= e.scroll.Friction
			if err := e.exec.Sleep(ctx, e.scroll.Tick); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Escalator) evalStatus(ctx context.Context, script string) (*scriptStatus, error) {
	raw, err := e.exec.EvaluateScript(ctx, script)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("script returned no result")
	}
	var status scriptStatus
	if err := jsoniter.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode script status: %w", err)
	}
	return &status, nil
}

// resetPointer is used by the controller after navigation, when viewport
// coordinates from the previous page are meaningless.
func (e *Escalator) resetPointer() {
	e.pointer = physics.Vector2D{}
}
