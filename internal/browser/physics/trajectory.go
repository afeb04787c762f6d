package physics

import (
	"math"
	"math/rand"
	"time"

	"github.com/aquilax/go-perlin"
)

// Simulator generates human-plausible pointer paths and typing cadences.
// It performs no I/O and never blocks; callers are responsible for pacing
// the dispatch of the points it returns.
type Simulator struct {
	cfg    Config
	rng    *rand.Rand
	noiseX *perlin.Perlin
	noiseY *perlin.Perlin
}

// New creates a Simulator. A nil Config.Rng is replaced with a wall-clock
// seeded source; tests pass a seeded one for determinism.
func New(cfg Config) *Simulator {
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	// Derive the noise seed from the same source so an injected Rng pins the
	// drift too.
	seed := rng.Int63()
	// Standard Perlin parameters; the two axes get distinct seeds so the
	// drift is not a 45-degree diagonal.
	const alpha, beta, n = 2.0, 2.0, int32(3)
	return &Simulator{
		cfg:    cfg,
		rng:    rng,
		noiseX: perlin.NewPerlin(alpha, beta, n, seed),
		noiseY: perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// MoveDuration returns a Fitts's-law movement time for a travel of the given
// distance, with a small multiplicative jitter so repeated moves differ.
func (s *Simulator) MoveDuration(distance float64) time.Duration {
	const targetWidth = 30.0
	id := math.Log2(1.0 + distance/targetWidth)
	mt := s.cfg.FittsA + s.cfg.FittsB*id
	mt += mt * (s.rng.Float64()*0.3 - 0.15)
	if mt < 0 {
		mt = 0
	}
	return time.Duration(mt) * time.Millisecond
}

// Trajectory returns an ordered, finite sequence of pointer positions from
// start to end. The last point is always exactly end, on every branch.
//
// The path is a cubic Bezier whose control points bow perpendicular to the
// travel vector by a random arc proportional to distance (capped), sampled
// at a step count scaled to distance. Per-sample Gaussian tremor and Perlin
// drift are damped to zero on approach, simulating a hand steadying near the
// target. With fixed probability the path overshoots by a small fraction of
// the travel vector and corrects back.
func (s *Simulator) Trajectory(start, end Vector2D) []Vector2D {
	travel := end.Sub(start)
	dist := travel.Mag()
	if dist < 1.0 {
		return []Vector2D{end}
	}

	aim := end
	overshot := s.rng.Float64() < s.cfg.OvershootProbability
	if overshot {
		aim = end.Add(travel.Normalize().Mul(dist * s.cfg.OvershootRatio))
	}

	path := s.curve(start, aim, dist)
	if overshot {
		// Short correction hop back to the exact target. The correction
		// travels a small distance, so it gets its own (short) curve.
		corr := s.curve(aim, end, aim.Dist(end))
		path = append(path, corr...)
	}
	// The damping guarantees near-exact arrival; pin the endpoint anyway so
	// callers can rely on it.
	path[len(path)-1] = end
	return path
}

// curve produces one noisy Bezier segment from a to b.
func (s *Simulator) curve(a, b Vector2D, travelDist float64) []Vector2D {
	segDist := a.Dist(b)
	steps := stepCount(segDist)

	arc := s.cfg.ArcRatio * travelDist
	if arc > s.cfg.ArcMaxPx {
		arc = s.cfg.ArcMaxPx
	}
	perp := b.Sub(a).Normalize().Perp()
	// Each control point gets an independent signed bow so the curve can
	// flex into a shallow S.
	p1 := a.Add(b.Sub(a).Mul(1.0 / 3.0)).Add(perp.Mul((s.rng.Float64()*2 - 1) * arc))
	p2 := a.Add(b.Sub(a).Mul(2.0 / 3.0)).Add(perp.Mul((s.rng.Float64()*2 - 1) * arc))

	phase := s.rng.Float64() * 100.0
	path := make([]Vector2D, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		pt := cubicBezier(a, p1, p2, b, t)

		// Tremor damping: full amplitude mid-flight, zero at the endpoint.
		damp := 1.0 - t*t
		jitter := Vector2D{
			X: s.rng.NormFloat64() * s.cfg.JitterStdDev,
			Y: s.rng.NormFloat64() * s.cfg.JitterStdDev,
		}
		drift := Vector2D{
			X: s.noiseX.Noise1D(phase + t*s.cfg.PerlinFrequency),
			Y: s.noiseY.Noise1D(phase + t*s.cfg.PerlinFrequency),
		}.Mul(s.cfg.PerlinAmplitude)

		path[i] = pt.Add(jitter.Add(drift).Mul(damp))
	}
	path[len(path)-1] = b
	return path
}

// stepCount scales sampling density with distance: longer moves get more
// samples, bounded so tiny corrections still render and huge sweeps stay cheap.
func stepCount(dist float64) int {
	steps := int(math.Sqrt(dist) * 2.5)
	if steps < 6 {
		steps = 6
	}
	if steps > 120 {
		steps = 120
	}
	return steps
}

func cubicBezier(p0, p1, p2, p3 Vector2D, t float64) Vector2D {
	omt := 1.0 - t
	omt2 := omt * omt
	t2 := t * t
	return p0.Mul(omt2 * omt).
		Add(p1.Mul(3 * omt2 * t)).
		Add(p2.Mul(3 * omt * t2)).
		Add(p3.Mul(t2 * t))
}

// PressDuration returns a randomized mouse button hold time.
func (s *Simulator) PressDuration() time.Duration {
	ms := 60 + s.rng.NormFloat64()*20
	if ms < 25 {
		ms = 25
	}
	return time.Duration(ms) * time.Millisecond
}

// PointWithin picks a click point inside the box, normally distributed
// around the center and clamped to the inner 90% so the very edge is never
// hit. Width and height must be positive.
func (s *Simulator) PointWithin(x, y, width, height float64) Vector2D {
	cx := x + width/2
	cy := y + height/2
	px := cx + s.rng.NormFloat64()*(width*0.9/6.0)
	py := cy + s.rng.NormFloat64()*(height*0.9/6.0)
	px = math.Max(x+1, math.Min(x+width-1, px))
	py = math.Max(y+1, math.Min(y+height-1, py))
	return Vector2D{X: px, Y: py}
}
