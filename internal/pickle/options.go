package pickle

const (
	DefaultMaxDepth        = 128
	DefaultMaxStringLen    = 16 << 20 // 16MB
	DefaultMaxContainerLen = 1 << 20
)

// Config 为编解码限制配置，可通过 viper 加载。
type Config struct {
	// MaxDepth 为 Tuple/Mapping 的最大嵌套深度。
	MaxDepth int `json:"max-depth" yaml:"max-depth" mapstructure:"max-depth"`
	// MaxStringLen 为单个字符串或对象 payload 的最大字节数。
	MaxStringLen int `json:"max-string-len" yaml:"max-string-len" mapstructure:"max-string-len"`
	// MaxContainerLen 为单个 Tuple/Mapping 的最大元素个数。
	MaxContainerLen int `json:"max-container-len" yaml:"max-container-len" mapstructure:"max-container-len"`
}

// Options 为编码器与解码器共享的选项。
type Options struct {
	MaxDepth        int
	MaxStringLen    int
	MaxContainerLen int
	Registry        *TypeRegistry
}

// Option 用于修改 Options。
type Option func(*Options)

// NewOptions 返回应用了 opts 的默认选项。
func NewOptions(opts ...Option) Options {
	o := Options{
		MaxDepth:        DefaultMaxDepth,
		MaxStringLen:    DefaultMaxStringLen,
		MaxContainerLen: DefaultMaxContainerLen,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	return o
}

func WithMaxDepth(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxDepth = n
		}
	}
}

func WithMaxStringLen(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxStringLen = n
		}
	}
}

func WithMaxContainerLen(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxContainerLen = n
		}
	}
}

// WithRegistry 指定对象类型注册表，默认使用 DefaultRegistry。
func WithRegistry(r *TypeRegistry) Option {
	return func(o *Options) {
		o.Registry = r
	}
}

// WithConfig 使用配置中的非零限制覆盖默认值。
func WithConfig(cfg Config) Option {
	return func(o *Options) {
		WithMaxDepth(cfg.MaxDepth)(o)
		WithMaxStringLen(cfg.MaxStringLen)(o)
		WithMaxContainerLen(cfg.MaxContainerLen)(o)
	}
}
