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
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogMaxSize = 300 // 日志文件默认最大大小，单位 MB。

	FormatConsole = "console"
	FormatJSON    = "json"
	// FormatText 为带方括号分隔的单行文本格式，命令行默认使用。
	FormatText = "text"

	textTimeLayout = "2006/01/02 15:04:05.000 -07:00"
)

// FileLogConfig 为文件日志相关配置。
type FileLogConfig struct {
	// RootPath 为日志文件根目录。
	RootPath string `json:"rootpath" yaml:"rootpath" mapstructure:"rootpath"`
	// Filename 为日志文件名，留空表示关闭文件日志。
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`
	// MaxSize 表示单个日志文件的最大大小，单位 MB。
	MaxSize int `json:"max-size" yaml:"max-size" mapstructure:"max-size"`
	// MaxDays 表示日志文件最大保留天数，默认为不删除。
	MaxDays int `json:"max-days" yaml:"max-days" mapstructure:"max-days"`
	// MaxBackups 表示最多保留多少个历史日志文件。
	MaxBackups int `json:"max-backups" yaml:"max-backups" mapstructure:"max-backups"`
}

// Config 为日志相关配置，可通过 viper 从 yaml/json 加载。
type Config struct {
	// Level 为日志级别，支持 trace(等同 debug)/debug/info/warn/error。
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	// Format 为日志格式，可选 text、console 或 json，默认 console。
	Format string `json:"format" yaml:"format" mapstructure:"format"`
	// DisableTimestamp 表示是否禁用日志中的自动时间戳。
	DisableTimestamp bool `json:"disable-timestamp" yaml:"disable-timestamp" mapstructure:"disable-timestamp"`
	// Stdout 表示是否输出到标准输出。
	Stdout bool `json:"stdout" yaml:"stdout" mapstructure:"stdout"`
	// File 为文件日志配置。
	File FileLogConfig `json:"file" yaml:"file" mapstructure:"file"`
	// Development 为 true 时 DPanic 会直接 panic，并对 Warn 及以上级别输出堆栈。
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
	// DisableCaller 表示是否关闭调用方文件名和行号标注。
	DisableCaller bool `json:"disable-caller" yaml:"disable-caller" mapstructure:"disable-caller"`
	// DisableStacktrace 表示是否完全关闭自动堆栈采集。
	DisableStacktrace bool `json:"disable-stacktrace" yaml:"disable-stacktrace" mapstructure:"disable-stacktrace"`
	// Sampling 为日志采样配置（以“每秒”为单位），参考 zapcore.NewSampler。
	Sampling *zap.SamplingConfig `json:"sampling" yaml:"sampling" mapstructure:"sampling"`

	// AsyncWriteEnable 开启后日志先进入队列，由后台协程写入带缓冲的输出。
	AsyncWriteEnable bool `json:"async-write-enable" yaml:"async-write-enable" mapstructure:"async-write-enable"`
	// AsyncWriteFlushInterval 为缓冲区定时刷新间隔。
	AsyncWriteFlushInterval time.Duration `json:"async-write-flush-interval" yaml:"async-write-flush-interval" mapstructure:"async-write-flush-interval"`
	// AsyncWriteDroppedTimeout 为队列已满时等待入队的最长时间，超时即丢弃。
	AsyncWriteDroppedTimeout time.Duration `json:"async-write-dropped-timeout" yaml:"async-write-dropped-timeout" mapstructure:"async-write-dropped-timeout"`
	// AsyncWriteNonDroppableLevel 及以上级别的日志永不丢弃。
	AsyncWriteNonDroppableLevel string `json:"async-write-non-droppable-level" yaml:"async-write-non-droppable-level" mapstructure:"async-write-non-droppable-level"`
	// AsyncWriteStopTimeout 为关闭时排空队列的最长时间。
	AsyncWriteStopTimeout time.Duration `json:"async-write-stop-timeout" yaml:"async-write-stop-timeout" mapstructure:"async-write-stop-timeout"`
	// AsyncWritePendingLength 为队列长度。
	AsyncWritePendingLength int `json:"async-write-pending-length" yaml:"async-write-pending-length" mapstructure:"async-write-pending-length"`
	// AsyncWriteBufferSize 为底层 BufferedWriteSyncer 的缓冲大小。
	AsyncWriteBufferSize int `json:"async-write-buffer-size" yaml:"async-write-buffer-size" mapstructure:"async-write-buffer-size"`
	// AsyncWriteMaxBytesPerLog 为单条日志的最大字节数，超出部分被截断。
	AsyncWriteMaxBytesPerLog int `json:"async-write-max-bytes-per-log" yaml:"async-write-max-bytes-per-log" mapstructure:"async-write-max-bytes-per-log"`
}

// ZapProperties 记录 zap 日志相关的核心信息。
type ZapProperties struct {
	Core   zapcore.Core
	Syncer zapcore.WriteSyncer
	Level  zap.AtomicLevel
}

func newZapEncoder(cfg *Config) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "name",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	switch {
	case strings.EqualFold(cfg.Format, FormatJSON):
		if cfg.DisableTimestamp {
			encCfg.TimeKey = ""
		}
		return zapcore.NewJSONEncoder(encCfg)
	case strings.EqualFold(cfg.Format, FormatText):
		encCfg.ConsoleSeparator = " "
		encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(textTimeLayout) + "]")
		}
		encCfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		}
		encCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + c.TrimmedPath() + "]")
		}
		encCfg.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + name + "]")
		}
	}
	if cfg.DisableTimestamp {
		encCfg.TimeKey = ""
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

func (cfg *Config) buildOptions(errSink zapcore.WriteSyncer) []zap.Option {
	opts := []zap.Option{zap.ErrorOutput(errSink)}

	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}

	stackLevel := zap.ErrorLevel
	if cfg.Development {
		stackLevel = zap.WarnLevel
	}
	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(stackLevel))
	}

	if cfg.Sampling != nil {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, time.Second, cfg.Sampling.Initial, cfg.Sampling.Thereafter, zapcore.SamplerHook(cfg.Sampling.Hook))
		}))
	}
	return opts
}

// initialize 为异步写相关的零值配置填充默认值。
func (cfg *Config) initialize() {
	if cfg.AsyncWriteFlushInterval <= 0 {
		cfg.AsyncWriteFlushInterval = 10 * time.Second
	}
	if cfg.AsyncWriteDroppedTimeout <= 0 {
		cfg.AsyncWriteDroppedTimeout = 100 * time.Millisecond
	}
	if _, err := zapcore.ParseLevel(cfg.AsyncWriteNonDroppableLevel); cfg.AsyncWriteNonDroppableLevel == "" || err != nil {
		cfg.AsyncWriteNonDroppableLevel = zapcore.ErrorLevel.String()
	}
	if cfg.AsyncWriteStopTimeout <= 0 {
		cfg.AsyncWriteStopTimeout = time.Second
	}
	if cfg.AsyncWritePendingLength <= 0 {
		cfg.AsyncWritePendingLength = 1024
	}
	if cfg.AsyncWriteBufferSize <= 0 {
		cfg.AsyncWriteBufferSize = 4 * 1024
	}
	if cfg.AsyncWriteMaxBytesPerLog <= 0 {
		cfg.AsyncWriteMaxBytesPerLog = 1024 * 1024
	}
}
