package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/api/schemas"
	"github.com/xkilldash9x/vise/internal/navigator"
)

// Executor adapts a session's RunActions into the browser-agnostic page
// surface the engine consumes. It carries no state of its own; everything
// flows through the bound run function.
type Executor struct {
	run    func(ctx context.Context, actions ...chromedp.Action) error
	logger *zap.Logger
}

var _ navigator.PageExecutor = (*Executor)(nil)

const (
	inputTimeout  = 10 * time.Second
	scriptTimeout = 20 * time.Second
)

// Sleep pauses for d, respecting cancellation.
func (e *Executor) Sleep(ctx context.Context, d time.Duration) error {
	return e.run(ctx, chromedp.Sleep(d))
}

// DispatchMouseEvent emits a single raw mouse event.
func (e *Executor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithButton(input.MouseButton(data.Button)).
		WithButtons(data.Buttons).
		WithClickCount(int64(data.ClickCount))
	if data.Type == schemas.MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}

	opCtx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()

	if err := e.run(opCtx, p); err != nil {
		if opCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("mouse event timed out after %v: %w", inputTimeout, opCtx.Err())
		}
		return err
	}
	return nil
}

// SendKeys types plain text through the native key event pipeline.
func (e *Executor) SendKeys(ctx context.Context, keys string) error {
	opCtx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()

	if err := e.run(opCtx, chromedp.KeyEvent(keys)); err != nil {
		if opCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("key input timed out after %v: %w", inputTimeout, opCtx.Err())
		}
		return err
	}
	return nil
}

// DispatchKeyEvent emits a KeyDown/KeyUp pair for a named key with modifiers.
func (e *Executor) DispatchKeyEvent(ctx context.Context, data schemas.KeyEventData) error {
	var mods input.Modifier
	if data.Modifiers&schemas.ModAlt != 0 {
		mods |= input.ModifierAlt
	}
	if data.Modifiers&schemas.ModCtrl != 0 {
		mods |= input.ModifierCtrl
	}
	if data.Modifiers&schemas.ModMeta != 0 {
		mods |= input.ModifierMeta
	}
	if data.Modifiers&schemas.ModShift != 0 {
		mods |= input.ModifierShift
	}

	keyDown := input.DispatchKeyEvent(input.KeyDown).WithModifiers(mods).WithKey(data.Key)
	keyUp := input.DispatchKeyEvent(input.KeyUp).WithModifiers(mods).WithKey(data.Key)

	opCtx, cancel := context.WithTimeout(ctx, inputTimeout)
	defer cancel()

	if err := e.run(opCtx, keyDown, keyUp); err != nil {
		return fmt.Errorf("dispatch key %q: %w", data.Key, err)
	}
	return nil
}

// EvaluateScript runs a script in the page, awaiting promises, and returns
// the JSON-serialized result. Page-side exceptions surface as errors rather
// than crashing the evaluation pipeline.
func (e *Executor) EvaluateScript(ctx context.Context, script string) (json.RawMessage, error) {
	var res json.RawMessage

	opCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	err := e.run(opCtx,
		chromedp.Evaluate(script, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
		}),
	)
	if err != nil {
		if opCtx.Err() == context.DeadlineExceeded {
			e.logger.Debug("script evaluation timed out", zap.Duration("timeout", scriptTimeout))
			return nil, fmt.Errorf("script evaluation timed out after %v: %w", scriptTimeout, opCtx.Err())
		}
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return res, nil
}

// Screenshot captures the current viewport as PNG.
func (e *Executor) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	opCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	err := e.run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// DOMSnapshot returns the serialized outer HTML of the current document.
func (e *Executor) DOMSnapshot(ctx context.Context) (string, error) {
	raw, err := e.EvaluateScript(ctx, `document.documentElement.outerHTML`)
	if err != nil {
		return "", err
	}
	var html string
	if err := json.Unmarshal(raw, &html); err != nil {
		return "", fmt.Errorf("decode dom snapshot: %w", err)
	}
	return html, nil
}
