// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/uber/jaeger-client-go/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _globalL, _globalP, _globalS, _globalR, _globalCallerL atomic.Value

var _namedRateLimiters sync.Map

var (
	_cleanupMu sync.Mutex
	_cleanups  []func()
)

// RateLimiter 是限流日志使用的最小接口。
type RateLimiter interface {
	CheckCredit(delta float64) bool
}

// nopRateLimiter 从不丢弃日志。
type nopRateLimiter struct{}

func (nopRateLimiter) CheckCredit(delta float64) bool { return true }

// limiterHolder 保证 atomic.Value 中存放的始终是同一具体类型。
type limiterHolder struct {
	RateLimiter
}

func init() {
	l, p := newStdLogger()

	ReplaceGlobals(l, p)

	_globalR.Store(limiterHolder{nopRateLimiter{}})
	configureRateLimiterFromEnv()
}

// InitLogger 根据配置初始化一个 zap Logger。
// 同时开启 Stdout 与文件输出时，日志会写到两个目标。
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	var outputs []zapcore.WriteSyncer
	if len(cfg.File.Filename) > 0 {
		lg, err := initFileLog(&cfg.File)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, zapcore.AddSync(lg))
	}
	if cfg.Stdout || len(outputs) == 0 {
		stdOut, _, err := zap.Open([]string{"stdout"}...)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, stdOut)
	}
	levelCfg := *cfg
	if strings.EqualFold(levelCfg.Level, "trace") || levelCfg.Level == "" {
		levelCfg.Level = "debug"
	}
	lg, r, err := InitLoggerWithWriteSyncer(&levelCfg, zap.CombineWriteSyncers(outputs...), opts...)
	if err != nil {
		return nil, nil, err
	}
	return lg, r, nil
}

// InitTestLogger 初始化一个把日志写入 testing.T 的 Logger，供单元测试使用。
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	writer := newTestingWriter(t)
	zapOptions := []zap.Option{
		// zap 内部错误同样写入 testing.T，并将测试标记为失败。
		zap.ErrorOutput(writer.WithMarkFailed(true)),
	}
	opts = append(zapOptions, opts...)
	return InitLoggerWithWriteSyncer(cfg, writer, opts...)
}

// InitLoggerWithWriteSyncer 使用指定的 WriteSyncer 初始化 zap Logger。
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("initLoggerWithWriteSyncer UnmarshalText cfg.Level err:%w", err)
	}
	var core zapcore.Core
	if cfg.AsyncWriteEnable {
		asyncCfg := *cfg
		asyncCfg.initialize()
		ac := NewAsyncTextIOCore(&asyncCfg, output, level)
		registerCleanup(ac.Stop)
		core = ac
	} else {
		core = NewTextCore(newZapEncoder(cfg), output, level)
	}
	opts = append(cfg.buildOptions(output), opts...)
	lg := zap.New(core, opts...)
	r := &ZapProperties{
		Core:   core,
		Syncer: output,
		Level:  level,
	}
	return lg, r, nil
}

// initFileLog 使用 lumberjack 创建支持滚动的文件输出。
func initFileLog(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	logPath := filepath.Join(cfg.RootPath, cfg.Filename)
	if st, err := os.Stat(logPath); err == nil {
		if st.IsDir() {
			return nil, errors.New("can't use directory as log file name")
		}
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = defaultLogMaxSize
	}

	return &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

func newStdLogger() (*zap.Logger, *ZapProperties) {
	conf := &Config{Level: "info", Stdout: true}
	lg, r, _ := InitLogger(conf, zap.OnFatal(zapcore.WriteThenPanic))
	return lg, r
}

// L 返回全局 Logger，可通过 ReplaceGlobals 替换，支持并发使用。
func L() *zap.Logger {
	return _globalL.Load().(*zap.Logger)
}

// S 返回全局 SugaredLogger。
func S() *zap.SugaredLogger {
	return _globalS.Load().(*zap.SugaredLogger)
}

// R 返回全局限流器；未开启限流时返回永不丢弃的空实现。
func R() RateLimiter {
	if h, ok := _globalR.Load().(limiterHolder); ok && h.RateLimiter != nil {
		return h.RateLimiter
	}
	return nopRateLimiter{}
}

// ReplaceGlobals 替换全局 Logger 与 SugaredLogger，支持并发使用。
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	_globalL.Store(logger)
	_globalS.Store(logger.Sugar())
	_globalCallerL.Store(logger.WithOptions(zap.AddCallerSkip(1)))
	_globalP.Store(props)
}

// registerCleanup 登记一个在 Cleanup 时执行的函数，用于停止异步写协程。
func registerCleanup(fn func()) {
	_cleanupMu.Lock()
	_cleanups = append(_cleanups, fn)
	_cleanupMu.Unlock()
}

// Cleanup 停止所有异步写 Core 并排空其队列，进程退出前调用。
func Cleanup() {
	_cleanupMu.Lock()
	fns := _cleanups
	_cleanups = nil
	_cleanupMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Sync 刷新所有缓冲中的日志。
func Sync() error {
	if err := L().Sync(); err != nil {
		return err
	}
	return S().Sync()
}

func Level() zap.AtomicLevel {
	return _globalP.Load().(*ZapProperties).Level
}

// configureRateLimiterFromEnv 根据 DGUI_LOG_RATE_* 环境变量配置全局限流器。
//
//   - DGUI_LOG_RATE_ENABLE: "1"/"true" 开启限流（默认关闭）。
//   - DGUI_LOG_RATE_CREDIT_PER_SECOND: 每秒补充额度，默认 1.0。
//   - DGUI_LOG_RATE_MAX_BALANCE: 最大额度，默认 60.0。
func configureRateLimiterFromEnv() {
	if !getenvBool("DGUI_LOG_RATE_ENABLE", false) {
		_globalR.Store(limiterHolder{nopRateLimiter{}})
		return
	}

	credit := getenvFloat("DGUI_LOG_RATE_CREDIT_PER_SECOND", 1.0)
	maxBalance := getenvFloat("DGUI_LOG_RATE_MAX_BALANCE", 60.0)

	_globalR.Store(limiterHolder{utils.NewRateLimiter(credit, maxBalance)})
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
