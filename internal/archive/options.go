package archive

import (
	"github.com/lk2023060901/danmu-garden-ui/internal/compressor"
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	"github.com/lk2023060901/danmu-garden-ui/pkg/buffer/stream"
)

const (
	// DefaultMinCompressSize 为开启压缩时触发压缩的最小存档体大小。
	DefaultMinCompressSize = 1024
	// DefaultMaxFrameSize 为单个分段帧允许的最大字节数。
	DefaultMaxFrameSize uint32 = 16 * 1024 * 1024
	// DefaultMaxBodySize 为解码时允许的最大存档体大小（解压前后都受其约束）。
	DefaultMaxBodySize = stream.MaxSize
)

// Config 为存档相关配置，可通过 viper 从 yaml 的 archive 节加载。
type Config struct {
	// Compression 为压缩算法：none 或 zstd。
	Compression string `json:"compression" yaml:"compression" mapstructure:"compression"`
	// MinCompressSize 为触发压缩的最小存档体字节数。
	MinCompressSize int `json:"min-compress-size" yaml:"min-compress-size" mapstructure:"min-compress-size"`
	// MaxFrameSize 为单个分段帧的最大字节数，0 表示使用默认值。
	MaxFrameSize uint32 `json:"max-frame-size" yaml:"max-frame-size" mapstructure:"max-frame-size"`
}

type Options struct {
	Compressor      compressor.Compressor
	MinCompressSize int
	MaxFrameSize    uint32
	MaxBodySize     int
	Pickle          []pickle.Option
}

type Option func(*Options)

func NewOptions(opts ...Option) Options {
	o := Options{
		Compressor:      compressor.NopCompressor{},
		MinCompressSize: DefaultMinCompressSize,
		MaxFrameSize:    DefaultMaxFrameSize,
		MaxBodySize:     DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Compressor == nil {
		o.Compressor = compressor.NopCompressor{}
	}
	if o.MaxFrameSize == 0 {
		o.MaxFrameSize = DefaultMaxFrameSize
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}
	return o
}

// WithCompressor 指定编码时使用的压缩器；解码时若算法一致也会复用它。
func WithCompressor(c compressor.Compressor) Option {
	return func(o *Options) {
		o.Compressor = c
	}
}

func WithMinCompressSize(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MinCompressSize = n
		}
	}
}

func WithMaxFrameSize(n uint32) Option {
	return func(o *Options) {
		o.MaxFrameSize = n
	}
}

func WithMaxBodySize(n int) Option {
	return func(o *Options) {
		o.MaxBodySize = n
	}
}

// WithPickleOptions 指定编解码分段名时使用的 pickle 选项。
func WithPickleOptions(opts ...pickle.Option) Option {
	return func(o *Options) {
		o.Pickle = append(o.Pickle, opts...)
	}
}

// WithConfig 按配置设置阈值与压缩器。压缩器创建失败时返回错误，而不是静默关闭压缩。
func WithConfig(cfg Config) (Option, error) {
	c, err := compressor.New(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return func(o *Options) {
		o.Compressor = c
		if cfg.MinCompressSize > 0 {
			o.MinCompressSize = cfg.MinCompressSize
		}
		if cfg.MaxFrameSize > 0 {
			o.MaxFrameSize = cfg.MaxFrameSize
		}
	}, nil
}
