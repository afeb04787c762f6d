package session

import "context"

// combineContext derives a context that is canceled when either input is.
// chromedp actions must die with the session even when the caller's context
// is still live, and vice versa.
func combineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()

	return combined, cancel
}
