package navigator

import "github.com/xkilldash9x/vise/api/schemas"

// Thresholds are the minimum structural deltas that count as a change.
// They are empirically tuned, not derived; treat them as configuration and
// do not assume they generalize across wildly different page sizes.
type Thresholds struct {
	NodeDelta int `mapstructure:"node_delta"`
	TextDelta int `mapstructure:"text_delta"`
}

// DefaultThresholds matches the values the deltas were originally tuned with.
func DefaultThresholds() Thresholds {
	return Thresholds{NodeDelta: 5, TextDelta: 20}
}

// Classify diffs two fingerprints into one outcome label using a fixed
// priority order, returning at the first matching rule. A navigation
// dominates everything (structural counts are meaningless across a page
// change), and input-count deltas are checked before the coarser DOM and
// text deltas because they are the most actionable signal for the common
// "reveal a hidden search box" pattern.
func Classify(before, after schemas.Fingerprint, t Thresholds) schemas.OutcomeLabel {
	if !before.Captured || !after.Captured {
		return schemas.OutcomeUnknownState
	}
	if after.URL != before.URL {
		return schemas.OutcomeURLNavigated
	}
	if after.VisibleInputCount > before.VisibleInputCount {
		return schemas.OutcomeInputFieldAppeared
	}
	if after.VisibleInputCount < before.VisibleInputCount {
		return schemas.OutcomeUICollapsed
	}
	if after.Title != before.Title {
		return schemas.OutcomeTitleChanged
	}
	if abs(after.NodeCount-before.NodeCount) > t.NodeDelta {
		return schemas.OutcomeDOMMutated
	}
	if abs(after.TextLength-before.TextLength) > t.TextDelta {
		return schemas.OutcomeContentUpdated
	}
	return schemas.OutcomeNoChange
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
