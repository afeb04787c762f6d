package physics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededSimulator(t *testing.T, seed int64, mutate func(*Config)) *Simulator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Rng = rand.New(rand.NewSource(seed))
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func TestTrajectoryEndsExactlyAtTarget(t *testing.T) {
	sim := seededSimulator(t, 1, nil)
	start := Vector2D{X: 10, Y: 10}
	end := Vector2D{X: 640, Y: 480}

	for i := 0; i < 50; i++ {
		path := sim.Trajectory(start, end)
		require.NotEmpty(t, path)
		assert.Equal(t, end, path[len(path)-1])
	}
}

func TestTrajectoryOvershootBranchStillPinsEndpoint(t *testing.T) {
	sim := seededSimulator(t, 2, func(c *Config) {
		c.OvershootProbability = 1.0
	})
	start := Vector2D{X: 0, Y: 0}
	end := Vector2D{X: 300, Y: 120}

	path := sim.Trajectory(start, end)
	assert.Equal(t, end, path[len(path)-1])

	// The overshoot must actually pass beyond the target before correcting.
	overshootDist := end.Dist(start) * sim.cfg.OvershootRatio
	var passed bool
	for _, p := range path {
		if p.Dist(end) > 1 && p.Sub(start).Mag() > end.Sub(start).Mag()+overshootDist*0.3 {
			passed = true
			break
		}
	}
	assert.True(t, passed, "overshoot branch should travel past the target")
	// Correction adds a second segment.
	assert.Greater(t, len(path), stepCount(start.Dist(end)))
}

func TestTrajectoryTinyMoveCollapsesToEndpoint(t *testing.T) {
	sim := seededSimulator(t, 3, nil)
	end := Vector2D{X: 100.4, Y: 100.4}
	path := sim.Trajectory(Vector2D{X: 100, Y: 100}, end)
	assert.Equal(t, []Vector2D{end}, path)
}

func TestTrajectoryIsDeterministicForSeed(t *testing.T) {
	a := seededSimulator(t, 99, nil).Trajectory(Vector2D{}, Vector2D{X: 500, Y: 300})
	b := seededSimulator(t, 99, nil).Trajectory(Vector2D{}, Vector2D{X: 500, Y: 300})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different paths (-a +b):\n%s", diff)
	}
}

func TestTrajectoryStaysRoughlyNearCorridor(t *testing.T) {
	sim := seededSimulator(t, 4, func(c *Config) {
		c.OvershootProbability = 0
	})
	start := Vector2D{X: 0, Y: 0}
	end := Vector2D{X: 800, Y: 0}

	// Horizontal travel: lateral wander is bounded by the arc cap plus noise.
	path := sim.Trajectory(start, end)
	for _, p := range path {
		assert.LessOrEqual(t, p.Y, sim.cfg.ArcMaxPx+20)
		assert.GreaterOrEqual(t, p.Y, -(sim.cfg.ArcMaxPx + 20))
	}
}

func TestMoveDurationGrowsWithDistance(t *testing.T) {
	sim := seededSimulator(t, 5, nil)

	var shortTotal, longTotal time.Duration
	for i := 0; i < 200; i++ {
		shortTotal += sim.MoveDuration(50)
		longTotal += sim.MoveDuration(1200)
	}
	assert.Greater(t, longTotal, shortTotal)
	assert.Positive(t, shortTotal)
}

func TestPressDurationHasFloor(t *testing.T) {
	sim := seededSimulator(t, 6, nil)
	for i := 0; i < 500; i++ {
		assert.GreaterOrEqual(t, sim.PressDuration(), 25*time.Millisecond)
	}
}

func TestPointWithinStaysInsideBox(t *testing.T) {
	sim := seededSimulator(t, 7, nil)
	const x, y, w, h = 250.0, 90.0, 120.0, 28.0
	for i := 0; i < 1000; i++ {
		p := sim.PointWithin(x, y, w, h)
		assert.GreaterOrEqual(t, p.X, x+1)
		assert.LessOrEqual(t, p.X, x+w-1)
		assert.GreaterOrEqual(t, p.Y, y+1)
		assert.LessOrEqual(t, p.Y, y+h-1)
	}
}

func TestStepCountBounds(t *testing.T) {
	assert.Equal(t, 6, stepCount(0))
	assert.Equal(t, 6, stepCount(4))
	assert.Equal(t, 120, stepCount(1e6))
	assert.Greater(t, stepCount(900), stepCount(100))
}
