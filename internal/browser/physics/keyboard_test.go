package physics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newCadenceSimulator() *Simulator {
	return New(DefaultConfig())
}

func TestTypingDelayNeverBelowBase(t *testing.T) {
	sim := newCadenceSimulator()
	base := time.Duration(sim.cfg.KeyBaseDelayMs) * time.Millisecond

	for _, pair := range [][2]rune{{0, 'a'}, {'a', 'a'}, {'a', 's'}, {'q', 'p'}, {'z', '0'}} {
		d := sim.TypingDelay(pair[0], pair[1])
		assert.GreaterOrEqual(t, d, base, "pair %q%q", pair[0], pair[1])
	}
}

func TestTypingDelayGrowsWithKeyTravel(t *testing.T) {
	sim := newCadenceSimulator()

	same := sim.TypingDelay('f', 'f')
	adjacent := sim.TypingDelay('f', 'g')
	across := sim.TypingDelay('q', 'p')

	assert.Less(t, same, adjacent)
	assert.Less(t, adjacent, across)
}

func TestTypingDelayFirstKeyHasNoTravelPenalty(t *testing.T) {
	sim := newCadenceSimulator()
	base := time.Duration(sim.cfg.KeyBaseDelayMs) * time.Millisecond
	assert.Equal(t, base, sim.TypingDelay(0, 'q'))
}

func TestTypingDelayWordBoundaryPause(t *testing.T) {
	sim := newCadenceSimulator()

	letter := sim.TypingDelay('a', 's')
	space := sim.TypingDelay('a', ' ')
	punct := sim.TypingDelay('a', '.')

	pause := time.Duration(sim.cfg.WordPauseMs) * time.Millisecond
	assert.Greater(t, space, letter)
	assert.Greater(t, punct, letter)
	// With no travel term the pause is exactly the word-boundary surcharge.
	assert.Equal(t, pause, sim.TypingDelay(0, ' ')-sim.TypingDelay(0, 'x'))
}

func TestTypingDelayIsDeterministic(t *testing.T) {
	sim := newCadenceSimulator()
	assert.Equal(t, sim.TypingDelay('t', 'h'), sim.TypingDelay('t', 'h'))
}

func TestPositionOfUppercaseMapsToLowercaseKey(t *testing.T) {
	assert.Equal(t, positionOf('q'), positionOf('Q'))
	assert.Zero(t, keyDistance('A', 'a'))
}

func TestPositionOfUnknownRuneLandsOnHome(t *testing.T) {
	pos := positionOf('€')
	assert.Equal(t, keyPosition{col: 5.5, row: 2.0}, pos)
}

func TestKeyDistanceSymmetry(t *testing.T) {
	assert.Equal(t, keyDistance('a', 'k'), keyDistance('k', 'a'))
	assert.Zero(t, keyDistance('a', 'a'))
	assert.Positive(t, keyDistance('a', 's'))
}
