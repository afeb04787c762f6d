package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	foundBox = `{"found":true,"x":100,"y":200,"width":50,"height":20}`
	notFound = `{"found":false}`
)

func scopeOf(script string) string {
	switch {
	case strings.Contains(script, "shadowRoot"):
		return "shadow"
	case strings.Contains(script, "iframe, frame"):
		return "frame"
	default:
		return "main"
	}
}

func TestLocateMainDocument(t *testing.T) {
	mock := newMockExecutor()
	mock.evalFn = func(script string) (json.RawMessage, error) {
		if scopeOf(script) == "main" {
			return json.RawMessage(foundBox), nil
		}
		t.Fatalf("later scope evaluated after main matched: %s", scopeOf(script))
		return nil, nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	el, err := loc.Locate(context.Background(), `//button[@id="go"]`)
	require.NoError(t, err)
	assert.Equal(t, "main", el.Scope)
	assert.Equal(t, 100.0, el.Geometry.X)
	assert.Equal(t, 20.0, el.Geometry.Height)
	cx, cy := el.Geometry.Center()
	assert.Equal(t, 125.0, cx)
	assert.Equal(t, 210.0, cy)
}

func TestLocateFallsThroughToShadow(t *testing.T) {
	mock := newMockExecutor()
	mock.evalFn = func(script string) (json.RawMessage, error) {
		if scopeOf(script) == "shadow" {
			return json.RawMessage(foundBox), nil
		}
		return json.RawMessage(notFound), nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	el, err := loc.Locate(context.Background(), "input.search")
	require.NoError(t, err)
	assert.Equal(t, "shadow", el.Scope)

	// All three scopes must have been tried, in order.
	var order []string
	for _, s := range mock.getEvaluated() {
		order = append(order, scopeOf(s))
	}
	assert.Equal(t, []string{"main", "frame", "shadow"}, order)
}

func TestLocateNotFoundAnywhere(t *testing.T) {
	mock := newMockExecutor()
	mock.evalFn = func(string) (json.RawMessage, error) {
		return json.RawMessage(notFound), nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	_, err := loc.Locate(context.Background(), "#missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateStepErrorDoesNotAbortSearch(t *testing.T) {
	mock := newMockExecutor()
	mock.evalFn = func(script string) (json.RawMessage, error) {
		switch scopeOf(script) {
		case "main":
			return nil, fmt.Errorf("evaluation blew up")
		case "frame":
			return json.RawMessage(foundBox), nil
		}
		return json.RawMessage(notFound), nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	el, err := loc.Locate(context.Background(), "a.next")
	require.NoError(t, err)
	assert.Equal(t, "frame", el.Scope)
}

func TestLocateMalformedExpressionIsNotFound(t *testing.T) {
	// The page-side helper swallows syntax errors and returns no match; a
	// null evaluation result must map to the same ErrNotFound.
	mock := newMockExecutor()
	mock.evalFn = func(string) (json.RawMessage, error) {
		return json.RawMessage(`null`), nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	_, err := loc.Locate(context.Background(), "[[[not-a-selector")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocateHonorsContextCancellation(t *testing.T) {
	mock := newMockExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loc := NewLocator(mock, time.Second, zap.NewNop())
	_, err := loc.Locate(ctx, "#anything")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mock.getEvaluated())
}

func TestLocateEmbedsExpressionAsJSONLiteral(t *testing.T) {
	mock := newMockExecutor()
	mock.evalFn = func(script string) (json.RawMessage, error) {
		return json.RawMessage(foundBox), nil
	}

	loc := NewLocator(mock, time.Second, zap.NewNop())
	expr := `//a[text()="it's \"quoted\""]`
	_, err := loc.Locate(context.Background(), expr)
	require.NoError(t, err)

	evals := mock.getEvaluated()
	require.NotEmpty(t, evals)
	encoded, _ := json.Marshal(expr)
	assert.Contains(t, evals[0], string(encoded))
}
