package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/vise/api/schemas"
	"github.com/xkilldash9x/vise/internal/browser/physics"
	"github.com/xkilldash9x/vise/internal/browser/session"
	"github.com/xkilldash9x/vise/internal/config"
	"github.com/xkilldash9x/vise/internal/forensics"
	"github.com/xkilldash9x/vise/internal/navigator"
)

// Mission is one page plus the ordered intents to run against it.
type Mission struct {
	TargetURL string           `json:"target_url"`
	Intents   []schemas.Intent `json:"intents"`
}

// MissionReport is the full record of one mission's execution.
type MissionReport struct {
	MissionID  string                    `json:"mission_id"`
	TargetURL  string                    `json:"target_url"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Error      string                    `json:"error,omitempty"`
	Results    []schemas.ExecutionResult `json:"results"`
}

// BrowserSession is the lifecycle surface the orchestrator drives.
type BrowserSession interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	Close() error
}

// SessionFactory opens a browser session and hands back the page executor
// bound to it. Production uses the chromedp session; tests inject fakes.
type SessionFactory func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (BrowserSession, navigator.PageExecutor, error)

func defaultFactory(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (BrowserSession, navigator.PageExecutor, error) {
	sess, err := session.NewSession(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return sess, sess.Executor(), nil
}

// Orchestrator runs missions concurrently, each in its own browser session,
// bounded by a weighted semaphore.
type Orchestrator struct {
	cfg     *config.Config
	logger  *zap.Logger
	sem     *semaphore.Weighted
	factory SessionFactory
}

// New builds an Orchestrator from the loaded configuration.
func New(cfg *config.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:     cfg,
		logger:  logger,
		sem:     semaphore.NewWeighted(cfg.Orchestrator.MaxConcurrentMissions),
		factory: defaultFactory,
	}
}

// RunMissions executes all missions and returns their reports in input
// order. Individual mission failures are recorded in the report rather than
// aborting the batch; only context cancellation stops everything.
func (o *Orchestrator) RunMissions(ctx context.Context, missions []Mission) ([]MissionReport, error) {
	reports := make([]MissionReport, len(missions))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range missions {
		g.Go(func() error {
			if err := o.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer o.sem.Release(1)
			reports[i] = o.runMission(gctx, m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports, err
	}
	return reports, nil
}

// runMission opens a session, navigates, executes the intents sequentially
// and always returns a report, even when the session never came up.
func (o *Orchestrator) runMission(ctx context.Context, m Mission) MissionReport {
	report := MissionReport{
		MissionID: uuid.New().String(),
		TargetURL: m.TargetURL,
		StartedAt: time.Now(),
	}
	defer func() { report.FinishedAt = time.Now() }()

	log := o.logger.Named("mission").With(
		zap.String("mission_id", report.MissionID),
		zap.String("url", m.TargetURL))

	sess, exec, err := o.factory(ctx, o.cfg.Browser, log)
	if err != nil {
		report.Error = fmt.Sprintf("session start: %v", err)
		log.Error("session start failed", zap.Error(err))
		return report
	}
	defer sess.Close()

	var evidence navigator.EvidenceRecorder
	if o.cfg.Evidence.Enabled {
		if page, ok := exec.(forensics.PageCapturer); ok {
			rec, recErr := forensics.NewRecorder(page, o.cfg.Evidence.Dir, log.Named("forensics"))
			if recErr != nil {
				log.Warn("evidence recorder unavailable", zap.Error(recErr))
			} else {
				evidence = rec
			}
		}
	}

	physCfg := o.cfg.Physics
	if physCfg.Rng == nil {
		physCfg.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	ctrl := navigator.NewController(exec, physics.New(physCfg), o.cfg.Navigator, evidence, log.Named("navigator"))

	if err := sess.Navigate(ctx, m.TargetURL); err != nil {
		report.Error = fmt.Sprintf("navigate: %v", err)
		log.Error("navigation failed", zap.Error(err))
		return report
	}
	ctrl.NoteNavigation()

	report.Results = make([]schemas.ExecutionResult, 0, len(m.Intents))
	for i, intent := range m.Intents {
		if ctx.Err() != nil {
			report.Error = ctx.Err().Error()
			return report
		}
		res := ctrl.Execute(ctx, intent)
		report.Results = append(report.Results, res)
		log.Info("intent finished",
			zap.Int("step", i+1),
			zap.String("action", string(intent.Action)),
			zap.String("outcome", string(res.Outcome)))
		if res.Outcome == schemas.OutcomeURLNavigated {
			ctrl.NoteNavigation()
		}
	}
	return report
}
