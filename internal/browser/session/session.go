package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vise/internal/config"
)

// Session owns one browser tab and its allocator. All page operations route
// through RunActions, which ties every action to both the session lifecycle
// and the caller's deadline.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    config.BrowserConfig

	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	closeOnce sync.Once
}

// NewSession launches a browser and opens a fresh tab. The caller must Close
// the session to release the browser process.
func NewSession(parentCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.New().String()
	log := logger.With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parentCtx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Force the browser to start now so a broken environment fails fast
	// instead of on the first action.
	startCtx, cancel := context.WithTimeout(tabCtx, cfg.LaunchTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}

	log.Info("browser session started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.WindowWidth),
		zap.Int("height", cfg.WindowHeight))

	return &Session{
		id:          sessionID,
		logger:      log,
		cfg:         cfg,
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// RunActions executes chromedp actions against the tab, honoring both the
// session lifecycle and the caller's context.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		// Report the cause rather than the generic cancellation.
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if s.ctx.Err() != nil {
			return fmt.Errorf("session closed: %w", s.ctx.Err())
		}
	}
	return err
}

// Executor returns the low-level page interface bound to this session.
func (s *Session) Executor() *Executor {
	return &Executor{run: s.RunActions, logger: s.logger.Named("executor")}
}

// Navigate loads a URL, waits for the document plus a fixed post-load quiet
// period, and nudges lazy hydration with a small scroll round trip. Pages
// that render their interactive shell only after the first scroll event are
// common enough that skipping the nudge costs more than it saves.
func (s *Session) Navigate(ctx context.Context, targetURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	s.logger.Info("navigating", zap.String("url", targetURL))
	if err := s.RunActions(navCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", targetURL, err)
	}

	if s.cfg.PostLoadWait > 0 {
		if err := s.RunActions(ctx, chromedp.Sleep(s.cfg.PostLoadWait)); err != nil {
			return err
		}
	}

	if s.cfg.HydrationNudge {
		if err := s.hydrationNudge(ctx); err != nil {
			s.logger.Debug("hydration nudge failed (ignored)", zap.Error(err))
		}
	}
	return nil
}

// hydrationNudge scrolls down a viewport's worth and back to provoke
// scroll-gated rendering, then lets the page settle briefly.
func (s *Session) hydrationNudge(ctx context.Context) error {
	return s.RunActions(ctx,
		chromedp.Evaluate(`window.scrollBy({top: 400, behavior: "smooth"})`, nil),
		chromedp.Sleep(400*time.Millisecond),
		chromedp.Evaluate(`window.scrollTo({top: 0, behavior: "smooth"})`, nil),
		chromedp.Sleep(250*time.Millisecond),
	)
}

// Close tears down the tab and the browser. Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("closing browser session")
		s.cancelTab()
		s.cancelAlloc()
	})
	return nil
}
