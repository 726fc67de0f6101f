package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	randv2 "math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type testMemOutWriter struct {
	lock sync.Mutex
	data bytes.Buffer
}

func (w *testMemOutWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.data.Write(p)
}

func (w *testMemOutWriter) Lines() []string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return strings.Split(strings.TrimSpace(w.data.String()), "\n")
}

func (w *testMemOutWriter) String() string {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.data.String()
}

func TestLogLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LogLevelDebug.String())
	require.Equal(t, "INFO", LogLevelInfo.String())
	require.Equal(t, "WARN", LogLevelWarn.String())
	require.Equal(t, "ERROR", LogLevelError.String())
	require.Equal(t, zapcore.DebugLevel, LogLevelDebug.zapLevel())
	require.Equal(t, zapcore.InfoLevel, LogLevelInfo.zapLevel())
	require.Equal(t, zapcore.WarnLevel, LogLevelWarn.zapLevel())
	require.Equal(t, zapcore.ErrorLevel, LogLevelError.zapLevel())
	require.Equal(t, zapcore.DebugLevel, LogLevel("unknown").zapLevel())
}

func TestParseLogLevel(t *testing.T) {
	testcases := map[string]LogLevel{
		"":        LogLevelDebug,
		"debug":   LogLevelDebug,
		" info ":  LogLevelInfo,
		"Warn":    LogLevelWarn,
		"ERROR":   LogLevelError,
		"verbose": LogLevelDebug,
	}
	for in, expected := range testcases {
		require.Equal(t, expected, ParseLogLevel(in), in)
	}
}

func TestParseLogEncoder(t *testing.T) {
	enc, ok := ParseLogEncoder("JSON")
	require.True(t, ok)
	require.Equal(t, JSON, enc)
	enc, ok = ParseLogEncoder("plain")
	require.True(t, ok)
	require.Equal(t, PlainText, enc)
	_, ok = ParseLogEncoder("yaml")
	require.False(t, ok)
}

func TestXLoggerJSONWriter(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerEncoder(JSON),
		WithXLoggerWriter(w),
	)
	logger.Debug("debug message", zap.Int("key", 1))
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error(errors.New("boom"), "error message")
	require.NoError(t, logger.Sync())

	lines := w.Lines()
	require.Len(t, lines, 4)
	entries := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.Equal(t, "DEBUG", entries[0]["lvl"])
	require.Equal(t, "debug message", entries[0]["msg"])
	require.EqualValues(t, 1, entries[0]["key"])
	require.Contains(t, entries[0]["callAt"], "xlog_test.go")
	require.Equal(t, "ERROR", entries[3]["lvl"])
	require.Equal(t, "boom", entries[3]["error"])
}

func TestXLoggerDynamicLevel(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(
		WithXLoggerLevel(LogLevelWarn),
		WithXLoggerEncoder(PlainText),
		WithXLoggerWriter(w),
	)
	require.Equal(t, zapcore.WarnLevel.String(), logger.Level())
	logger.Logf(getLogLevelOrDefault(""), "unprintable debug message %d", 1)
	logger.Logf(getLogLevelOrDefault(LogLevelInfo.String()), "unprintable info message %d", 2)
	logger.Logf(getLogLevelOrDefault(LogLevelWarn.String()), "printable warn message %d", 3)

	logger.IncreaseLogLevel(zapcore.DebugLevel)
	require.Equal(t, zapcore.DebugLevel.String(), logger.Level())
	logger.Logf(zapcore.DebugLevel, "dynamic printable debug message %d", 4)
	require.NoError(t, logger.Sync())

	out := w.String()
	require.NotContains(t, out, "unprintable")
	require.Contains(t, out, "printable warn message 3")
	require.Contains(t, out, "dynamic printable debug message 4")
}

func TestXLoggerEnvLevel(t *testing.T) {
	t.Setenv("XLOG_LVL", "error")
	logger := NewXLogger(WithXLoggerWriter(&testMemOutWriter{}))
	require.Equal(t, zapcore.ErrorLevel.String(), logger.Level())
}

func TestXLoggerContextFields(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(WithXLoggerLevel(LogLevelDebug), WithXLoggerWriter(w))
	ctx := context.WithValue(context.Background(), ContextKeyTaskID, uint64(7))
	ctx = context.WithValue(ctx, ContextKeyKind, "Insert")
	logger.DebugContext(ctx, "step")
	logger.WarnContext(context.Background(), "no fields")
	require.NoError(t, logger.Sync())

	lines := w.Lines()
	require.Len(t, lines, 2)
	entry := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.EqualValues(t, 7, entry["taskId"])
	require.Equal(t, "Insert", entry["kind"])
	entry = map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.NotContains(t, entry, "taskId")
}

func TestXLoggerNamedSharesLevel(t *testing.T) {
	w := &testMemOutWriter{}
	logger := NewXLogger(WithXLoggerLevel(LogLevelInfo), WithXLoggerWriter(w))
	child := logger.Named("sched")
	child.Debug("hidden")
	logger.IncreaseLogLevel(zapcore.DebugLevel)
	child.Debug("visible")
	require.NoError(t, child.Sync())

	lines := w.Lines()
	require.Len(t, lines, 1)
	entry := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "sched", entry["component"])
	require.Equal(t, "visible", entry["msg"])
}

func TestXLoggerTeeWriters(t *testing.T) {
	w1, w2 := &testMemOutWriter{}, &testMemOutWriter{}
	logger := NewXLogger(WithXLoggerLevel(LogLevelInfo), WithXLoggerWriter(w1), WithXLoggerWriter(w2))
	logger.Info("both")
	require.NoError(t, logger.Sync())
	require.Contains(t, w1.String(), "both")
	require.Contains(t, w2.String(), "both")
}

func TestXLoggerUnknownEncoder(t *testing.T) {
	require.Panics(t, func() {
		NewXLogger(WithXLoggerEncoder(_encMax))
	})
}

func TestNopXLogger(t *testing.T) {
	logger := NewNopXLogger()
	logger.Debug("nothing")
	logger.Error(errors.New("nothing"), "nothing")
	logger.Logf(zapcore.ErrorLevel, "nothing %d", 1)
	require.NoError(t, logger.Sync())
	require.NotNil(t, logger.Named("child"))
}

func TestWrapCore(t *testing.T) {
	w := &testMemOutWriter{}
	lvlEnabler := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cc := newConsoleCore(writeSyncerOf(w), lvlEnabler, JSON, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder)
	require.NotNil(t, cc)
	require.Nil(t, newConsoleCore(nil, lvlEnabler, JSON, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder))

	_, err := WrapCore(cc, nil)
	require.ErrorIs(t, err, errXLogEmptyCoreConfig)

	wrapped, err := WrapCore(cc, componentCoreEncoderCfg)
	require.NoError(t, err)
	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, wrapped.Enabled(zapcore.DebugLevel))
	require.True(t, wrapped.Enabled(zapcore.ErrorLevel))

	err = wrapped.Write(zapcore.Entry{Level: zapcore.ErrorLevel, LoggerName: "commonCore", Message: "wrapped"}, nil)
	require.NoError(t, err)
	require.NoError(t, wrapped.Sync())
	entry := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(w.Lines()[0]), &entry))
	require.Equal(t, "commonCore", entry["component"])
	require.NotContains(t, entry, "callAt")
}

func TestXLogger_DataRace(t *testing.T) {
	logger := NewXLogger(WithXLoggerWriter(&testMemOutWriter{}))
	lvls := []zapcore.Level{
		zapcore.DebugLevel,
		zapcore.InfoLevel,
		zapcore.WarnLevel,
		zapcore.ErrorLevel,
	}
	n := int32(len(lvls))
	var wg sync.WaitGroup
	total := 10
	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rng := randv2.Int32N(n)
				if i*total+j == 666 {
					logger.IncreaseLogLevel(lvls[rng])
				}
				logger.Logf(lvls[rng], "message i: %d; j: %d", i, j)
			}
		}(i)
	}
	wg.Wait()
	_ = logger.Sync()
}

func BenchmarkXLogger_Zap(b *testing.B) {
	logger := NewXLogger(WithXLoggerLevel(LogLevelInfo), WithXLoggerWriter(&testMemOutWriter{}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("message")
	}
	b.ReportAllocs()
}
