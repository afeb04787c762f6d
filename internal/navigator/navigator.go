package navigator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/vise/api/schemas"
	"github.com/xkilldash9x/vise/internal/browser/physics"
)

// Config holds the controller-level tunables.
type Config struct {
	// StepTimeout bounds every individual browser round trip (locate steps,
	// fingerprint captures, script evaluations).
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	// SettleDelay is the fixed pause between acting and capturing the
	// post-action fingerprint, so async reactions have time to land.
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	// ActionsPerSecond throttles Execute calls across the session. Zero
	// disables throttling.
	ActionsPerSecond float64 `mapstructure:"actions_per_second"`

	Thresholds Thresholds    `mapstructure:"thresholds"`
	Scroll     ScrollPhysics `mapstructure:"scroll"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		StepTimeout:      5 * time.Second,
		SettleDelay:      3500 * time.Millisecond,
		ActionsPerSecond: 0,
		Thresholds:       DefaultThresholds(),
		Scroll:           DefaultScrollPhysics(),
	}
}

// Controller drives single-action missions: acquire the target, act through
// the escalation ladder, and classify the page's reaction. It is safe for
// concurrent use; actions on one controller serialize, because interleaved
// pointer trajectories on one page would corrupt each other.
type Controller struct {
	mu sync.Mutex

	exec      PageExecutor
	locator   *Locator
	probe     *Probe
	escalator *Escalator
	evidence  EvidenceRecorder
	limiter   *rate.Limiter
	cfg       Config
	logger    *zap.Logger
}

// NewController assembles a controller over a page executor. evidence may be
// nil when no forensic capture is wanted.
func NewController(exec PageExecutor, sim *physics.Simulator, cfg Config, evidence EvidenceRecorder, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultConfig().StepTimeout
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}

	var limiter *rate.Limiter
	if cfg.ActionsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.ActionsPerSecond), 1)
	}

	return &Controller{
		exec:      exec,
		locator:   NewLocator(exec, cfg.StepTimeout, logger.Named("locator")),
		probe:     NewProbe(exec, cfg.StepTimeout, logger.Named("probe")),
		escalator: NewEscalator(exec, sim, cfg.Scroll, logger.Named("escalator")),
		evidence:  evidence,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}
}

// NoteNavigation resets pointer state after a page load, when viewport
// coordinates from the previous document are meaningless.
func (c *Controller) NoteNavigation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.escalator.resetPointer()
}

// Execute runs one intent end to end and always returns a well-formed
// result; failures are encoded in the Outcome and Error fields, never
// panicked or lost. The before fingerprint is taken prior to acting and the
// after fingerprint after SettleDelay, whether or not the action succeeded,
// so callers can still see what the failed attempt did to the page.
func (c *Controller) Execute(ctx context.Context, intent schemas.Intent) (result schemas.ExecutionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during execution", zap.Any("panic", r))
			result = schemas.ExecutionResult{
				Outcome: schemas.OutcomeUnknownState,
				Error:   fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if !intent.Action.Valid() {
		return schemas.ExecutionResult{
			Outcome: schemas.OutcomeUnknownState,
			Error:   fmt.Sprintf("invalid action %q", intent.Action),
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return schemas.ExecutionResult{
				Outcome: schemas.OutcomeUnknownState,
				Error:   err.Error(),
			}
		}
	}

	result.Before = c.probe.Capture(ctx)

	// SCROLL and WAIT have no target; acquisition is vacuously satisfied.
	var located *LocatedElement
	if intent.Action == schemas.ActionClick || intent.Action == schemas.ActionType {
		var err error
		located, err = c.locator.Locate(ctx, intent.TargetLocator)
		if err != nil {
			c.logger.Warn("target acquisition failed",
				zap.String("locator", intent.TargetLocator), zap.Error(err))
			c.recordFailure(ctx, "acquisition")
			result.Outcome = schemas.OutcomeAcquisitionFailed
			result.Error = err.Error()
			return result
		}
	}
	result.Located = true

	level, err := c.escalator.Perform(ctx, located, intent)
	result.EscalationLevelUsed = level
	if err != nil {
		c.logger.Warn("action failed at terminal escalation level",
			zap.String("action", string(intent.Action)),
			zap.Int("level", level), zap.Error(err))
		c.recordFailure(ctx, "escalation")
		result.Error = err.Error()
	}

	if c.cfg.SettleDelay > 0 {
		if serr := c.exec.Sleep(ctx, c.cfg.SettleDelay); serr != nil && result.Error == "" {
			result.Error = serr.Error()
		}
	}
	result.After = c.probe.Capture(ctx)

	if err != nil {
		// The page may have reacted anyway; keep both fingerprints but do
		// not claim to know the outcome.
		result.Outcome = schemas.OutcomeUnknownState
		return result
	}

	result.Outcome = Classify(result.Before, result.After, c.cfg.Thresholds)
	c.logger.Info("action executed",
		zap.String("action", string(intent.Action)),
		zap.Int("level", level),
		zap.String("outcome", string(result.Outcome)))
	return result
}

func (c *Controller) recordFailure(ctx context.Context, tag string) {
	if c.evidence == nil {
		return
	}
	c.evidence.CaptureFailure(ctx, tag)
}
