package application

import (
	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	zlog "github.com/lk2023060901/danmu-garden-ui/pkg/log"
)

const (
	// EnvPrefix 为环境变量覆盖配置时使用的前缀，如 DGUI_LOG_LEVEL。
	EnvPrefix = "DGUI"
	// EnvConfigFilePath 指定配置文件路径的环境变量。
	EnvConfigFilePath = "DGUI_CONFIG_FILE_PATH"
	// DefaultConfigPath 为默认配置文件路径，不存在时使用内置默认值。
	DefaultConfigPath = "./config.yaml"
)

// MetricsConfig 为指标相关配置。
type MetricsConfig struct {
	// Enable 为 true 时把所有指标注册到应用私有的 Registry。
	Enable bool `json:"enable" yaml:"enable" mapstructure:"enable"`
}

// Config 汇总应用的全部配置节。
type Config struct {
	Log     zlog.Config            `json:"log" yaml:"log" mapstructure:"log"`
	Logging map[string]zlog.Config `json:"logging" yaml:"logging" mapstructure:"logging"`
	Pickle  pickle.Config          `json:"pickle" yaml:"pickle" mapstructure:"pickle"`
	Archive archive.Config         `json:"archive" yaml:"archive" mapstructure:"archive"`
	Metrics MetricsConfig          `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":                 "info",
		"log.format":                zlog.FormatText,
		"log.stdout":                false,
		"log.file.rootpath":         "",
		"log.file.filename":         "",
		"pickle.max-depth":          pickle.DefaultMaxDepth,
		"pickle.max-string-len":     pickle.DefaultMaxStringLen,
		"pickle.max-container-len":  pickle.DefaultMaxContainerLen,
		"archive.compression":       "zstd",
		"archive.min-compress-size": archive.DefaultMinCompressSize,
		"archive.max-frame-size":    archive.DefaultMaxFrameSize,
		"metrics.enable":            false,
	}
}
