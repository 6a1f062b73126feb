package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
)

type LogSuite struct {
	suite.Suite
	origL *zap.Logger
	origP *ZapProperties
}

func (s *LogSuite) SetupTest() {
	s.origL = L()
	s.origP = _globalP.Load().(*ZapProperties)
	lg, p, err := InitTestLogger(s.T(), &Config{Level: "debug", Format: FormatConsole})
	s.Require().NoError(err)
	ReplaceGlobals(lg, p)
}

func (s *LogSuite) TearDownTest() {
	ReplaceGlobals(s.origL, s.origP)
}

func (s *LogSuite) TestLevel() {
	SetLevel(zapcore.WarnLevel)
	s.Equal(zapcore.WarnLevel, GetLevel())
	s.False(L().Core().Enabled(zapcore.InfoLevel))
	SetLevel(zapcore.DebugLevel)
	s.True(L().Core().Enabled(zapcore.DebugLevel))
}

func (s *LogSuite) TestInvalidLevel() {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(nopWriter{}))
	s.Error(err)
}

func (s *LogSuite) TestCtxLogger() {
	s.Equal(L(), Ctx(nil).Logger)
	s.Equal(L(), Ctx(context.Background()).Logger)

	ctx := WithModule(context.Background(), "pickle")
	l := Ctx(ctx)
	s.NotEqual(L(), l.Logger)
	s.Same(l, Ctx(ctx))

	ctx = WithTraceID(ctx, "trace-1")
	s.NotSame(l, Ctx(ctx))
	Ctx(ctx).Info("traced", FieldOp("unpickle"))
}

func (s *LogSuite) TestRateGroup() {
	l := With(FieldWindow("hud")).WithRateGroup("log.test", 1, 1)
	s.True(l.RatedInfo(1, "first"))
	s.False(l.RatedInfo(1, "second"))

	other := With().WithRateGroup("log.test", 1, 1)
	s.False(other.RatedWarn(1, "shared group"))

	s.True(With().RatedDebug(1, "global limiter never drops"))
}

func (s *LogSuite) TestBinder() {
	var b Binder
	s.NotNil(b.Logger())
	custom := With(FieldComponent("registry"))
	b.SetLogger(custom)
	s.Same(custom, b.Logger())

	b.SetComponent("window-registry", zap.String("registry", "hud"))
	s.NotSame(custom, b.Logger())
}

func (s *LogSuite) TestTextFormat() {
	var buf bytes.Buffer
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "info", Format: FormatText}, zapcore.AddSync(&buf))
	s.Require().NoError(err)

	lg.With(FieldOp("unpickle")).Info("window loaded", FieldWindow("hud"))
	lg.Debug("below level")

	out := buf.String()
	s.Contains(out, "[INFO]")
	s.Contains(out, "window loaded")
	s.Contains(out, `"op": "unpickle"`)
	s.Contains(out, `"window": "hud"`)
	s.NotContains(out, "below level")
	s.Equal(1, strings.Count(out, "\n"))
}

func (s *LogSuite) TestAsyncWrite() {
	var buf bytes.Buffer
	truncated := testutil.ToFloat64(metrics.LoggingTruncatedWrites)
	lg, _, err := InitLoggerWithWriteSyncer(&Config{
		Level:                    "debug",
		Format:                   FormatText,
		DisableCaller:            true,
		AsyncWriteEnable:         true,
		AsyncWriteMaxBytesPerLog: 128,
	}, zapcore.AddSync(&buf))
	s.Require().NoError(err)

	lg.Info("archive written", FieldModule("archive"))
	lg.Warn(strings.Repeat("x", 512))
	Cleanup()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	s.Require().Len(lines, 2)
	s.Contains(lines[0], "archive written")
	s.Len(lines[1], 127)
	s.Equal(truncated+1, testutil.ToFloat64(metrics.LoggingTruncatedWrites))

	// 停止后的写入直接落到底层输出。
	lg.Info("after stop")
	s.Contains(buf.String(), "after stop")
}

type countingCore struct {
	zapcore.LevelEnabler
	withs *atomic.Int32
}

func (c countingCore) With([]zapcore.Field) zapcore.Core {
	c.withs.Inc()
	return c
}

func (c countingCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c countingCore) Write(zapcore.Entry, []zapcore.Field) error { return nil }

func (c countingCore) Sync() error { return nil }

func (s *LogSuite) TestLazyWith() {
	withs := atomic.NewInt32(0)
	core := NewLazyWith(countingCore{LevelEnabler: zapcore.WarnLevel, withs: withs},
		[]zapcore.Field{FieldModule("pickle")})
	lg := zap.New(core)

	lg.Info("filtered by level")
	s.EqualValues(0, withs.Load())

	lg.Warn("first")
	lg.Warn("second")
	s.EqualValues(1, withs.Load())

	s.Same(core, NewLazyWith(core, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLog(t *testing.T) {
	suite.Run(t, new(LogSuite))
}
