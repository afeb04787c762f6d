package navigator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/xkilldash9x/vise/api/schemas"
)

// PageExecutor is the low-level surface the engine needs from a browser
// session. The session package implements it over CDP; tests implement it
// with mocks. Every method honors context cancellation.
type PageExecutor interface {
	Sleep(ctx context.Context, d time.Duration) error
	DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error
	// SendKeys dispatches plain text as key events, one call per burst.
	SendKeys(ctx context.Context, keys string) error
	// DispatchKeyEvent emits the KeyDown/KeyUp pair for a structured key
	// (named keys and modifier combinations).
	DispatchKeyEvent(ctx context.Context, data schemas.KeyEventData) error
	// EvaluateScript runs a script in the page and returns its JSON value.
	EvaluateScript(ctx context.Context, script string) (json.RawMessage, error)
}

// EvidenceRecorder receives failure notifications so forensic artifacts can
// be captured out-of-band. Recording is always best effort.
type EvidenceRecorder interface {
	CaptureFailure(ctx context.Context, tag string)
}

var (
	// ErrNotFound means the locator expression matched nothing in any
	// search scope within budget. Syntactically invalid expressions are
	// reported identically; the caller cannot act on the distinction.
	ErrNotFound = errors.New("navigator: target not found in any scope")

	// ErrEscalationExhausted means the element was located but no
	// interaction technique reached it. A stronger negative signal than
	// ErrNotFound.
	ErrEscalationExhausted = errors.New("navigator: all escalation levels exhausted")
)

// LocatedElement is a scoped handle to a concrete on-page node plus its
// last-known geometry. It lives only within one Execute invocation; geometry
// and attachment can change between actions, so handles are never cached.
type LocatedElement struct {
	Expression string
	// Scope records which search step matched: "main", "frame" or "shadow".
	Scope    string
	Geometry schemas.ElementGeometry
}
