package physics

import "math/rand"

// Config holds the parameters of the pointer and typing simulation.
// All fields are plain values so a Config can come straight out of viper.
type Config struct {
	// Rng is the random source for the simulator. Tests inject a seeded
	// source to pin specific branches (e.g. force the overshoot path).
	// When nil, New seeds one from the wall clock.
	Rng *rand.Rand `mapstructure:"-" json:"-" yaml:"-"`

	// Fitts's law coefficients, in milliseconds. Movement time for a
	// travel of distance D is FittsA + FittsB*log2(1+D/W).
	FittsA float64 `mapstructure:"fitts_a" json:"fitts_a" yaml:"fitts_a"`
	FittsB float64 `mapstructure:"fitts_b" json:"fitts_b" yaml:"fitts_b"`

	// ArcRatio controls how far the Bezier control points bow away from
	// the straight line, as a fraction of travel distance. ArcMaxPx caps
	// the absolute offset so cross-screen moves do not loop absurdly.
	ArcRatio float64 `mapstructure:"arc_ratio" json:"arc_ratio" yaml:"arc_ratio"`
	ArcMaxPx float64 `mapstructure:"arc_max_px" json:"arc_max_px" yaml:"arc_max_px"`

	// JitterStdDev is the per-sample Gaussian tremor amplitude in pixels.
	// The amplitude is damped to zero on approach to the endpoint.
	JitterStdDev float64 `mapstructure:"jitter_std_dev" json:"jitter_std_dev" yaml:"jitter_std_dev"`

	// Perlin drift: low-frequency wander layered on top of the tremor.
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" json:"perlin_amplitude" yaml:"perlin_amplitude"`
	PerlinFrequency float64 `mapstructure:"perlin_frequency" json:"perlin_frequency" yaml:"perlin_frequency"`

	// OvershootProbability is the chance a move deliberately overshoots
	// the target and corrects back; OvershootRatio is the overshoot
	// length as a fraction of the travel vector.
	OvershootProbability float64 `mapstructure:"overshoot_probability" json:"overshoot_probability" yaml:"overshoot_probability"`
	OvershootRatio       float64 `mapstructure:"overshoot_ratio" json:"overshoot_ratio" yaml:"overshoot_ratio"`

	// Typing cadence. KeyBaseDelayMs is the floor between keystrokes,
	// KeyDistanceDelayMs the penalty per key-unit travelled on the
	// physical layout, WordPauseMs the extra thinking pause before
	// whitespace and punctuation.
	KeyBaseDelayMs     float64 `mapstructure:"key_base_delay_ms" json:"key_base_delay_ms" yaml:"key_base_delay_ms"`
	KeyDistanceDelayMs float64 `mapstructure:"key_distance_delay_ms" json:"key_distance_delay_ms" yaml:"key_distance_delay_ms"`
	WordPauseMs        float64 `mapstructure:"word_pause_ms" json:"word_pause_ms" yaml:"word_pause_ms"`
}

// DefaultConfig returns parameters tuned for an unremarkable desktop user.
func DefaultConfig() Config {
	return Config{
		FittsA:               100.0,
		FittsB:               140.0,
		ArcRatio:             0.22,
		ArcMaxPx:             120.0,
		JitterStdDev:         1.1,
		PerlinAmplitude:      2.2,
		PerlinFrequency:      0.8,
		OvershootProbability: 0.18,
		OvershootRatio:       0.08,
		KeyBaseDelayMs:       60.0,
		KeyDistanceDelayMs:   14.0,
		WordPauseMs:          140.0,
	}
}
