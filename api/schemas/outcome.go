package schemas

import "time"

// OutcomeLabel is the discrete classification of a page change observed
// between the pre-action and post-action fingerprints.
type OutcomeLabel string

const (
	OutcomeURLNavigated       OutcomeLabel = "URL_NAVIGATED"
	OutcomeInputFieldAppeared OutcomeLabel = "INPUT_FIELD_APPEARED"
	OutcomeUICollapsed        OutcomeLabel = "UI_COLLAPSED"
	OutcomeTitleChanged       OutcomeLabel = "TITLE_CHANGED"
	OutcomeDOMMutated         OutcomeLabel = "DOM_MUTATED"
	OutcomeContentUpdated     OutcomeLabel = "CONTENT_UPDATED"
	OutcomeNoChange           OutcomeLabel = "NO_CHANGE"
	OutcomeAcquisitionFailed  OutcomeLabel = "ACQUISITION_FAILED"
	OutcomeUnknownState       OutcomeLabel = "UNKNOWN_STATE"
)

// Fingerprint is a small structural snapshot of a page, cheap enough to take
// before and after every action. Two fingerprints are only ever compared,
// never merged. Captured is false when the probe itself failed; a comparison
// involving an uncaptured fingerprint always classifies as UNKNOWN_STATE.
type Fingerprint struct {
	URL               string    `json:"url"`
	Title             string    `json:"title"`
	NodeCount         int       `json:"node_count"`
	VisibleInputCount int       `json:"visible_inputs"`
	TextLength        int       `json:"text_len"`
	ScrollY           float64   `json:"scroll_y"`
	Timestamp         time.Time `json:"timestamp"`
	Captured          bool      `json:"captured"`
}

// ExecutionResult is the single value returned by every Execute call. The
// engine converts all internal failures into a populated Error field and a
// terminal outcome label rather than letting them propagate.
type ExecutionResult struct {
	Outcome             OutcomeLabel `json:"outcome"`
	EscalationLevelUsed int          `json:"escalation_level_used"`
	Located             bool         `json:"located"`
	Error               string       `json:"error,omitempty"`
	Before              Fingerprint  `json:"fingerprint_before"`
	After               Fingerprint  `json:"fingerprint_after"`
}
