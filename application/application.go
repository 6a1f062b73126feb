package application

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/danmu-garden-ui/internal/archive"
	"github.com/lk2023060901/danmu-garden-ui/internal/pickle"
	zlog "github.com/lk2023060901/danmu-garden-ui/pkg/log"
	"github.com/lk2023060901/danmu-garden-ui/pkg/metrics"
	zviper "github.com/lk2023060901/danmu-garden-ui/pkg/util/viper"
)

// Application 为命令行工具的运行时容器，负责加载配置并初始化日志与指标。
type Application struct {
	args []string

	cfg      *zviper.Config
	conf     Config
	loggers  map[string]*zlog.MLogger
	registry *prometheus.Registry
}

// Option 用于定制 Application。
type Option func(*Application)

// WithArgs 指定用于解析 --config 的命令行参数（不含程序名），默认为 os.Args[1:]。
func WithArgs(args []string) Option {
	return func(a *Application) {
		a.args = args
	}
}

func New(opts ...Option) *Application {
	a := &Application{}
	if len(os.Args) > 1 {
		a.args = os.Args[1:]
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run 加载配置并初始化日志与指标。配置文件路径的优先级从低到高为：
//  1. 默认 ./config.yaml（不存在时仅使用内置默认值）
//  2. 环境变量 DGUI_CONFIG_FILE_PATH
//  3. 命令行 --config <path> 或 --config=<path>
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := cfg.Unmarshal(&a.conf); err != nil {
		return errors.Wrap(err, "unmarshal config")
	}

	if err := a.initLogging(); err != nil {
		return err
	}
	a.initMetrics()

	zlog.Debug("application started", zap.String("config", cfg.ConfigFile()))
	return nil
}

// Close 刷新日志并停止异步写协程。
func (a *Application) Close() {
	_ = zlog.Sync()
	zlog.Cleanup()
}

// Config 返回解析后的配置。
func (a *Application) Config() *Config {
	return &a.conf
}

// Viper 返回底层配置对象。
func (a *Application) Viper() *zviper.Config {
	return a.cfg
}

// Logger 返回配置中 logging 节定义的具名 Logger，未定义时退化为全局 Logger。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// Gatherer 返回指标 Registry，未开启指标时为 nil。
func (a *Application) Gatherer() prometheus.Gatherer {
	if a.registry == nil {
		return nil
	}
	return a.registry
}

// PickleOptions 返回按配置生成的 pickle 选项。
func (a *Application) PickleOptions() []pickle.Option {
	return []pickle.Option{pickle.WithConfig(a.conf.Pickle)}
}

// ArchiveOptions 返回按配置生成的存档选项。
func (a *Application) ArchiveOptions() ([]archive.Option, error) {
	opt, err := archive.WithConfig(a.conf.Archive)
	if err != nil {
		return nil, errors.Wrap(err, "archive config")
	}
	return []archive.Option{opt, archive.WithPickleOptions(a.PickleOptions()...)}, nil
}

func (a *Application) configPath() (string, bool, error) {
	configPath := DefaultConfigPath
	explicit := false

	if envPath := os.Getenv(EnvConfigFilePath); envPath != "" {
		configPath = envPath
		explicit = true
	}

	for i := 0; i < len(a.args); i++ {
		arg := a.args[i]
		if arg == "--config" {
			if i+1 >= len(a.args) {
				return "", false, fmt.Errorf("missing value after --config")
			}
			configPath = a.args[i+1]
			explicit = true
			i++
			continue
		}
		if val, ok := strings.CutPrefix(arg, "--config="); ok && val != "" {
			configPath = val
			explicit = true
		}
	}
	return configPath, explicit, nil
}

// loadConfig 解析配置文件路径并加载。显式指定的文件必须存在。
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath, explicit, err := a.configPath()
	if err != nil {
		return nil, err
	}

	cfg := zviper.New(zviper.WithEnvPrefix(EnvPrefix), zviper.WithDefaults(defaults()))
	if !explicit {
		if _, err := os.Stat(configPath); err != nil {
			return cfg, nil
		}
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

// initLogging 初始化全局 Logger 与 logging 节中的具名 Logger。
func (a *Application) initLogging() error {
	logger, props, err := initLogger(&a.conf.Log)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)

	if len(a.conf.Logging) == 0 {
		return nil
	}
	a.loggers = make(map[string]*zlog.MLogger, len(a.conf.Logging))
	for name, lc := range a.conf.Logging {
		cfgCopy := lc
		logger, _, err := initLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.Named(name)}
	}
	return nil
}

// initLogger 在既未开启 stdout 也未配置文件时把日志写到 stderr，保证 stdout 只承载命令输出。
func initLogger(cfg *zlog.Config) (*zap.Logger, *zlog.ZapProperties, error) {
	if !cfg.Stdout && cfg.File.Filename == "" {
		levelCfg := *cfg
		if levelCfg.Level == "" || strings.EqualFold(levelCfg.Level, "trace") {
			levelCfg.Level = "debug"
		}
		return zlog.InitLoggerWithWriteSyncer(&levelCfg, zapcore.Lock(zapcore.AddSync(os.Stderr)))
	}
	return zlog.InitLogger(cfg)
}

func (a *Application) initMetrics() {
	if !a.conf.Metrics.Enable {
		return
	}
	a.registry = prometheus.NewRegistry()
	metrics.Register(a.registry)
	metrics.RegisterLoggingMetrics(a.registry)
}
