package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/vise/internal/browser/physics"
	"github.com/xkilldash9x/vise/internal/navigator"
)

// Config is the root configuration tree. Values come from, in ascending
// priority: built-in defaults, a config file, and VISE_* environment
// variables.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Browser      BrowserConfig      `mapstructure:"browser"`
	Navigator    navigator.Config   `mapstructure:"navigator"`
	Physics      physics.Config     `mapstructure:"physics"`
	Evidence     EvidenceConfig     `mapstructure:"evidence"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is "console" for colorized terminal output or "json".
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	AddSource   bool   `mapstructure:"add_source"`

	// File output with rotation. Empty LogFile disables it.
	LogFile    string `mapstructure:"log_file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// BrowserConfig controls browser launch and navigation behavior.
type BrowserConfig struct {
	Headless     bool   `mapstructure:"headless"`
	UserAgent    string `mapstructure:"user_agent"`
	ExecPath     string `mapstructure:"exec_path"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`

	LaunchTimeout     time.Duration `mapstructure:"launch_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	// PostLoadWait is the quiet period after the document is ready.
	PostLoadWait time.Duration `mapstructure:"post_load_wait"`
	// HydrationNudge scrolls down and back after load to provoke
	// scroll-gated rendering.
	HydrationNudge bool `mapstructure:"hydration_nudge"`
}

// EvidenceConfig controls forensic artifact capture on failures.
type EvidenceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// OrchestratorConfig bounds mission concurrency.
type OrchestratorConfig struct {
	MaxConcurrentMissions int64 `mapstructure:"max_concurrent_missions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "vise")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 14)
	v.SetDefault("logger.compress", true)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.launch_timeout", 30*time.Second)
	v.SetDefault("browser.navigation_timeout", 60*time.Second)
	v.SetDefault("browser.post_load_wait", 1500*time.Millisecond)
	v.SetDefault("browser.hydration_nudge", true)

	nav := navigator.DefaultConfig()
	v.SetDefault("navigator.step_timeout", nav.StepTimeout)
	v.SetDefault("navigator.settle_delay", nav.SettleDelay)
	v.SetDefault("navigator.actions_per_second", nav.ActionsPerSecond)
	v.SetDefault("navigator.thresholds.node_delta", nav.Thresholds.NodeDelta)
	v.SetDefault("navigator.thresholds.text_delta", nav.Thresholds.TextDelta)
	v.SetDefault("navigator.scroll.initial_velocity", nav.Scroll.InitialVelocity)
	v.SetDefault("navigator.scroll.friction", nav.Scroll.Friction)
	v.SetDefault("navigator.scroll.velocity_floor", nav.Scroll.VelocityFloor)
	v.SetDefault("navigator.scroll.tick", nav.Scroll.Tick)

	phys := physics.DefaultConfig()
	v.SetDefault("physics.fitts_a", phys.FittsA)
	v.SetDefault("physics.fitts_b", phys.FittsB)
	v.SetDefault("physics.arc_ratio", phys.ArcRatio)
	v.SetDefault("physics.arc_max_px", phys.ArcMaxPx)
	v.SetDefault("physics.jitter_std_dev", phys.JitterStdDev)
	v.SetDefault("physics.perlin_amplitude", phys.PerlinAmplitude)
	v.SetDefault("physics.perlin_frequency", phys.PerlinFrequency)
	v.SetDefault("physics.overshoot_probability", phys.OvershootProbability)
	v.SetDefault("physics.overshoot_ratio", phys.OvershootRatio)
	v.SetDefault("physics.key_base_delay_ms", phys.KeyBaseDelayMs)
	v.SetDefault("physics.key_distance_delay_ms", phys.KeyDistanceDelayMs)
	v.SetDefault("physics.word_pause_ms", phys.WordPauseMs)

	v.SetDefault("evidence.enabled", true)
	v.SetDefault("evidence.dir", "./evidence")

	v.SetDefault("orchestrator.max_concurrent_missions", 4)
}

// Load reads configuration from the optional file at cfgPath (or the standard
// search locations when empty), overlays VISE_* environment variables, and
// returns the validated tree.
func Load(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("vise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vise")
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine unless one was named explicitly.
		if cfgPath != "" {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.Logger.Format)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser window dimensions must be positive")
	}
	if c.Navigator.StepTimeout <= 0 {
		return fmt.Errorf("navigator.step_timeout must be positive")
	}
	if c.Navigator.SettleDelay < 0 {
		return fmt.Errorf("navigator.settle_delay cannot be negative")
	}
	if c.Navigator.Scroll.Friction <= 0 || c.Navigator.Scroll.Friction >= 1 {
		return fmt.Errorf("navigator.scroll.friction must be in (0, 1)")
	}
	if c.Orchestrator.MaxConcurrentMissions <= 0 {
		return fmt.Errorf("orchestrator.max_concurrent_missions must be positive")
	}
	return nil
}
