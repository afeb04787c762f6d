package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/api/schemas"
)

// locateResult is the JSON shape returned by every locate script.
type locateResult struct {
	Found  bool    `json:"found"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// The query helper shared by all three scopes. It tries the expression as an
// XPath first and falls back to a CSS selector; a syntactically invalid
// expression simply yields null, which the Go side reports as ErrNotFound.
const jsQueryHelper = `
function __q(root, expr) {
    try {
        const doc = root.ownerDocument || root;
        const r = doc.evaluate(expr, root, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
        if (r && r.singleNodeValue) return r.singleNodeValue;
    } catch (e) {}
    try {
        if (root.querySelector) return root.querySelector(expr);
    } catch (e) {}
    return null;
}
function __hit(el, dx, dy) {
    window.__viseTarget = el;
    const r = el.getBoundingClientRect();
    return { found: true, x: r.x + dx, y: r.y + dy, width: r.width, height: r.height };
}`

// Scope 1: the main document.
const jsLocateMain = `(function(expr) {` + jsQueryHelper + `
    const el = __q(document, expr);
    if (!el) return { found: false };
    return __hit(el, 0, 0);
})(%s)`

// Scope 2: attached frames, in document order, recursively. Cross-origin
// frames throw on contentDocument access and are skipped; the browser does
// not expose their interiors to script. Geometry is translated into
// top-viewport coordinates by accumulating frame offsets.
const jsLocateFrames = `(function(expr) {` + jsQueryHelper + `
    function walk(doc, dx, dy) {
        const frames = doc.querySelectorAll('iframe, frame');
        for (const f of frames) {
            let inner = null;
            try { inner = f.contentDocument; } catch (e) { continue; }
            if (!inner) continue;
            const fr = f.getBoundingClientRect();
            const el = __q(inner, expr);
            if (el) return __hit(el, dx + fr.x, dy + fr.y);
            const nested = walk(inner, dx + fr.x, dy + fr.y);
            if (nested) return nested;
        }
        return null;
    }
    return walk(document, 0, 0) || { found: false };
})(%s)`

// Scope 3: a flat recursive pass over every element reachable from the main
// document that exposes an open shadow root. Shadow roots are rare enough
// that exhaustive search is cheap next to a failed interaction.
const jsLocateShadow = `(function(expr) {` + jsQueryHelper + `
    function scan(root) {
        for (const host of root.querySelectorAll('*')) {
            if (!host.shadowRoot) continue;
            const el = __q(host.shadowRoot, expr);
            if (el) return el;
            const nested = scan(host.shadowRoot);
            if (nested) return nested;
        }
        return null;
    }
    const el = scan(document);
    if (!el) return { found: false };
    return __hit(el, 0, 0);
})(%s)`

// Locator resolves a logical target expression to a live element, searching
// the main document, nested frames and shadow roots in that order, with a
// strict per-step budget and a short-circuit on first match.
type Locator struct {
	exec        PageExecutor
	logger      *zap.Logger
	stepTimeout time.Duration
}

// NewLocator builds a Locator over the given executor.
func NewLocator(exec PageExecutor, stepTimeout time.Duration, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &Locator{exec: exec, logger: logger, stepTimeout: stepTimeout}
}

// Locate resolves expr or returns ErrNotFound. It never returns a different
// error class for malformed expressions or per-step timeouts; only a parent
// context cancellation surfaces as such.
func (l *Locator) Locate(ctx context.Context, expr string) (*LocatedElement, error) {
	steps := []struct {
		scope  string
		script string
	}{
		{"main", jsLocateMain},
		{"frame", jsLocateFrames},
		{"shadow", jsLocateShadow},
	}

	for _, step := range steps {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res, err := l.runStep(ctx, step.script, expr)
		if err != nil {
			// A failed step is not a failed locate; the next scope may
			// still match. Budget overruns land here too.
			l.logger.Debug("locator step failed",
				zap.String("scope", step.scope), zap.Error(err))
			continue
		}
		if res.Found {
			l.logger.Debug("target acquired",
				zap.String("scope", step.scope), zap.String("expr", expr))
			return &LocatedElement{
				Expression: expr,
				Scope:      step.scope,
				Geometry: schemas.ElementGeometry{
					X: res.X, Y: res.Y, Width: res.Width, Height: res.Height,
				},
			}, nil
		}
	}
	return nil, ErrNotFound
}

func (l *Locator) runStep(ctx context.Context, script, expr string) (*locateResult, error) {
	stepCtx, cancel := context.WithTimeout(ctx, l.stepTimeout)
	defer cancel()

	raw, err := l.exec.EvaluateScript(stepCtx, fmt.Sprintf(script, jsString(expr)))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return &locateResult{}, nil
	}
	var res locateResult
	if err := jsoniter.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode locate result: %w", err)
	}
	return &res, nil
}

// jsString safely encodes a Go string as a JS string literal.
func jsString(v string) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
