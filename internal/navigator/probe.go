package navigator

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/api/schemas"
)

// All five signals are read in a single round trip so the snapshot cannot
// race against itself between reads.
const jsFingerprint = `(function() {
    const inputs = Array.from(document.querySelectorAll('input, select, textarea'));
    return {
        url: window.location.href,
        title: document.title,
        node_count: document.getElementsByTagName('*').length,
        visible_inputs: inputs.filter(i => i.offsetWidth > 0 && i.offsetHeight > 0).length,
        text_len: document.body && document.body.innerText ? document.body.innerText.length : 0,
        scroll_y: window.scrollY
    };
})()`

// Probe captures structural fingerprints of the current page.
type Probe struct {
	exec        PageExecutor
	logger      *zap.Logger
	stepTimeout time.Duration
}

// NewProbe builds a fingerprint probe over the given executor.
func NewProbe(exec PageExecutor, stepTimeout time.Duration, logger *zap.Logger) *Probe {
	if logger == nil {
		logger = zap.NewNop()
	}
	if stepTimeout <= 0 {
		stepTimeout = 5 * time.Second
	}
	return &Probe{exec: exec, logger: logger, stepTimeout: stepTimeout}
}

// Capture takes a fingerprint. It never returns an error: a failed capture
// (navigation in flight, session hiccup, detached document) yields a value
// with Captured=false, which the classifier maps to UNKNOWN_STATE.
func (p *Probe) Capture(ctx context.Context) schemas.Fingerprint {
	fp := schemas.Fingerprint{Timestamp: time.Now()}

	stepCtx, cancel := context.WithTimeout(ctx, p.stepTimeout)
	defer cancel()

	raw, err := p.exec.EvaluateScript(stepCtx, jsFingerprint)
	if err != nil {
		p.logger.Warn("fingerprint capture failed", zap.Error(err))
		return fp
	}
	if len(raw) == 0 || string(raw) == "null" {
		p.logger.Warn("fingerprint capture returned empty result")
		return fp
	}
	if err := jsoniter.Unmarshal(raw, &fp); err != nil {
		p.logger.Warn("fingerprint decode failed", zap.Error(err))
		return schemas.Fingerprint{Timestamp: fp.Timestamp}
	}
	fp.Captured = true
	return fp
}
