package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombineContextCancelsOnSecondary(t *testing.T) {
	primary := context.Background()
	secondary, cancelSecondary := context.WithCancel(context.Background())

	combined, cancel := combineContext(primary, secondary)
	defer cancel()

	cancelSecondary()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not canceled after secondary cancellation")
	}
}

func TestCombineContextCancelsOnPrimary(t *testing.T) {
	primary, cancelPrimary := context.WithCancel(context.Background())
	secondary := context.Background()

	combined, cancel := combineContext(primary, secondary)
	defer cancel()

	cancelPrimary()
	select {
	case <-combined.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context not canceled after primary cancellation")
	}
}

func TestCombineContextCancelFuncReleases(t *testing.T) {
	combined, cancel := combineContext(context.Background(), context.Background())
	cancel()
	assert.ErrorIs(t, combined.Err(), context.Canceled)
}
