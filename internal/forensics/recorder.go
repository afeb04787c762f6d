package forensics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// PageCapturer is the slice of the session surface forensics needs.
type PageCapturer interface {
	Screenshot(ctx context.Context) ([]byte, error)
	DOMSnapshot(ctx context.Context) (string, error)
}

// Recorder persists failure artifacts: a screenshot, the serialized DOM, and
// a small structural summary of the page. Capture is strictly best effort;
// a recorder must never make a failing action fail harder.
type Recorder struct {
	page   PageCapturer
	dir    string
	logger *zap.Logger
}

// structuralSummary is written alongside the raw artifacts so a failure can
// be triaged without opening the full DOM dump.
type structuralSummary struct {
	CapturedAt time.Time `json:"captured_at"`
	Tag        string    `json:"tag"`
	Title      string    `json:"title"`
	Forms      int       `json:"forms"`
	Inputs     int       `json:"inputs"`
	Buttons    int       `json:"buttons"`
	Anchors    int       `json:"anchors"`
	Frames     int       `json:"frames"`
	ShadowHint int       `json:"template_nodes"`
}

// NewRecorder builds a Recorder writing into dir, creating it if needed.
func NewRecorder(page PageCapturer, dir string, logger *zap.Logger) (*Recorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir %s: %w", dir, err)
	}
	return &Recorder{page: page, dir: dir, logger: logger}, nil
}

// CaptureFailure writes whatever artifacts it can obtain for the given tag.
// Partial captures are normal: a crashed tab may yield a DOM but no
// screenshot, or nothing at all.
func (r *Recorder) CaptureFailure(ctx context.Context, tag string) {
	stamp := time.Now().UTC().Format("20060102T150405.000")
	base := filepath.Join(r.dir, fmt.Sprintf("%s_%s", stamp, sanitizeTag(tag)))

	if png, err := r.page.Screenshot(ctx); err != nil {
		r.logger.Debug("failure screenshot unavailable", zap.Error(err))
	} else if err := os.WriteFile(base+".png", png, 0o644); err != nil {
		r.logger.Warn("failed writing screenshot", zap.String("path", base+".png"), zap.Error(err))
	}

	dom, err := r.page.DOMSnapshot(ctx)
	if err != nil {
		r.logger.Debug("failure dom snapshot unavailable", zap.Error(err))
		return
	}
	if err := os.WriteFile(base+".html", []byte(dom), 0o644); err != nil {
		r.logger.Warn("failed writing dom snapshot", zap.String("path", base+".html"), zap.Error(err))
	}

	summary := summarize(dom, tag)
	data, err := jsoniter.MarshalIndent(summary, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(base+".json", data, 0o644); err != nil {
		r.logger.Warn("failed writing summary", zap.String("path", base+".json"), zap.Error(err))
	}
	r.logger.Info("failure evidence captured", zap.String("tag", tag), zap.String("base", base))
}

// summarize parses the DOM dump and counts the structures that matter when
// triaging a failed interaction.
func summarize(dom, tag string) structuralSummary {
	s := structuralSummary{CapturedAt: time.Now().UTC(), Tag: tag}

	doc, err := htmlquery.Parse(strings.NewReader(dom))
	if err != nil || doc == nil {
		return s
	}
	if titleNode := htmlquery.FindOne(doc, "//title"); titleNode != nil {
		s.Title = strings.TrimSpace(htmlquery.InnerText(titleNode))
	}
	s.Forms = countNodes(doc, "//form")
	s.Inputs = countNodes(doc, "//input | //textarea | //select")
	s.Buttons = countNodes(doc, "//button")
	s.Anchors = countNodes(doc, "//a[@href]")
	s.Frames = countNodes(doc, "//iframe | //frame")
	// Serialized shadow DOM shows up as declarative template nodes; a rough
	// hint at web-component density.
	s.ShadowHint = countNodes(doc, "//template")
	return s
}

func countNodes(doc *html.Node, expr string) int {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return 0
	}
	return len(nodes)
}

func sanitizeTag(tag string) string {
	if tag == "" {
		return "failure"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, tag)
}
