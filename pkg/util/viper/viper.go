package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
//
// 设置了环境变量前缀时，形如 PREFIX_LOG_LEVEL 的环境变量会覆盖 log.level，
// 键中的 "." 与 "-" 均映射为 "_"。只有设置过默认值或出现在配置文件中的键才会被覆盖。
type Config struct {
	v *spfviper.Viper
}

// Option 用于定制 Config。
type Option func(*spfviper.Viper)

// WithEnvPrefix 开启环境变量覆盖，prefix 为变量名前缀（不含下划线）。
func WithEnvPrefix(prefix string) Option {
	return func(v *spfviper.Viper) {
		v.SetEnvPrefix(prefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
}

// WithDefaults 设置默认值，key 使用点分路径，如 "log.level"。
func WithDefaults(defaults map[string]any) Option {
	return func(v *spfviper.Viper) {
		for key, val := range defaults {
			v.SetDefault(key, val)
		}
	}
}

// New 创建一个 Config。未调用 LoadFile 时只包含默认值与环境变量。
func New(opts ...Option) *Config {
	v := spfviper.New()
	for _, opt := range opts {
		opt(v)
	}
	return &Config{v: v}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断。
func (c *Config) LoadFile(path string) error {
	if c.v == nil {
		c.v = spfviper.New()
	}

	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	default:
		// 交给 viper 推断，失败时由 ReadInConfig 返回错误。
	}

	return c.v.ReadInConfig()
}

// ConfigFile 返回已加载的配置文件路径，未加载时为空。
func (c *Config) ConfigFile() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// IsSet 报告 key 是否在配置文件、环境变量或默认值中出现。
func (c *Config) IsSet(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Unmarshal 将完整配置反序列化到 dst，dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将指定 key 对应的子配置反序列化到 dst，dst 应为结构体或 map 的指针。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	if c.v == nil {
		return nil
	}
	return c.v.UnmarshalKey(key, dst)
}
