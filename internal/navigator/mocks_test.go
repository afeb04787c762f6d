package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xkilldash9x/vise/api/schemas"
)

// mockExecutor records everything dispatched to it and answers script
// evaluations through a swappable evalFn. Sleeps are recorded, not slept.
type mockExecutor struct {
	mu sync.Mutex

	mouseEvents []schemas.MouseEventData
	keyEvents   []schemas.KeyEventData
	typed       []string
	slept       []time.Duration
	evaluated   []string

	evalFn  func(script string) (json.RawMessage, error)
	mouseFn func(data schemas.MouseEventData) error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		evalFn: func(string) (json.RawMessage, error) {
			return json.RawMessage(`{"ok":true}`), nil
		},
	}
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slept = append(m.slept, d)
	return nil
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	fn := m.mouseFn
	m.mu.Unlock()
	if fn != nil {
		if err := fn(data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseEvents = append(m.mouseEvents, data)
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typed = append(m.typed, keys)
	return nil
}

func (m *mockExecutor) DispatchKeyEvent(ctx context.Context, data schemas.KeyEventData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyEvents = append(m.keyEvents, data)
	return nil
}

func (m *mockExecutor) EvaluateScript(ctx context.Context, script string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.evaluated = append(m.evaluated, script)
	fn := m.evalFn
	m.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("no eval handler installed")
	}
	return fn(script)
}

func (m *mockExecutor) getMouseEvents() []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schemas.MouseEventData, len(m.mouseEvents))
	copy(out, m.mouseEvents)
	return out
}

func (m *mockExecutor) getKeyEvents() []schemas.KeyEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schemas.KeyEventData, len(m.keyEvents))
	copy(out, m.keyEvents)
	return out
}

func (m *mockExecutor) getTyped() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.typed))
	copy(out, m.typed)
	return out
}

func (m *mockExecutor) getEvaluated() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.evaluated))
	copy(out, m.evaluated)
	return out
}

// mockRecorder captures evidence tags.
type mockRecorder struct {
	mu   sync.Mutex
	tags []string
}

func (r *mockRecorder) CaptureFailure(_ context.Context, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tag)
}

func (r *mockRecorder) getTags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tags))
	copy(out, r.tags)
	return out
}
