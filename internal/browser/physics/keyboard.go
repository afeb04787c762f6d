package physics

import (
	"math"
	"time"
	"unicode"
)

// keyPosition is an approximate physical location on a QWERTY board, in
// key-unit coordinates (column, row). Row offsets reflect the stagger of a
// real keyboard.
type keyPosition struct {
	col float64
	row float64
}

var keyLayout = buildKeyLayout()

func buildKeyLayout() map[rune]keyPosition {
	rows := []struct {
		keys   string
		offset float64
	}{
		{"`1234567890-=", 0.0},
		{"qwertyuiop[]\\", 0.5},
		{"asdfghjkl;'", 0.75},
		{"zxcvbnm,./", 1.25},
	}
	layout := make(map[rune]keyPosition, 64)
	for r, row := range rows {
		for c, ch := range row.keys {
			layout[ch] = keyPosition{col: row.offset + float64(c), row: float64(r)}
		}
	}
	// The space bar spans the middle of the bottom row; model it as a
	// single wide key under the home position.
	layout[' '] = keyPosition{col: 5.0, row: 4.0}
	return layout
}

// positionOf maps a rune to its layout position. Uppercase letters map to
// their lowercase key; characters off the modeled board land on the home
// position so they cost an average-ish travel rather than zero.
func positionOf(ch rune) keyPosition {
	lower := unicode.ToLower(ch)
	if pos, ok := keyLayout[lower]; ok {
		return pos
	}
	return keyPosition{col: 5.5, row: 2.0}
}

// keyDistance is the Euclidean travel between two keys in key units.
func keyDistance(a, b rune) float64 {
	pa, pb := positionOf(a), positionOf(b)
	return math.Hypot(pa.col-pb.col, pa.row-pb.row)
}

// TypingDelay returns the pause to insert before dispatching next, given the
// previously typed character. It is a pure, deterministic function: a base
// latency, plus a penalty proportional to the physical travel between the
// two keys, plus a word-boundary thinking pause when next starts a gap
// (whitespace or punctuation). The result is always at least the configured
// base latency and grows monotonically with layout distance.
func (s *Simulator) TypingDelay(prev, next rune) time.Duration {
	ms := s.cfg.KeyBaseDelayMs
	if prev != 0 {
		ms += keyDistance(prev, next) * s.cfg.KeyDistanceDelayMs
	}
	if unicode.IsSpace(next) || unicode.IsPunct(next) {
		ms += s.cfg.WordPauseMs
	}
	return time.Duration(ms) * time.Millisecond
}
