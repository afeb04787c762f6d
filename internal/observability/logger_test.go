package observability

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/vise/internal/config"
)

// memSink collects console output for assertions.
type memSink struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *memSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *memSink) Sync() error { return nil }

func (s *memSink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestInitializeJSONFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memSink{}
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "vise-test",
	}, zapcore.AddSync(sink))

	GetLogger().Info("hello", zap.String("k", "v"))
	out := sink.String()
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, "vise-test")
}

func TestLevelFiltering(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memSink{}
	Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(sink))

	log := GetLogger()
	log.Info("quiet")
	log.Warn("loud")

	out := sink.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	sink := &memSink{}
	Initialize(config.LoggerConfig{Level: "verbose", Format: "json"}, zapcore.AddSync(sink))

	log := GetLogger()
	log.Debug("hidden")
	log.Info("shown")

	out := sink.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &memSink{}
	second := &memSink{}
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(second))

	GetLogger().Info("routed")
	assert.Contains(t, first.String(), "routed")
	assert.Empty(t, second.String())
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	log := GetLogger()
	require.NotNil(t, log)
}
