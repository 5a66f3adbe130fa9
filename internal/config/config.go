package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"textpilot/internal/client"
	"textpilot/internal/settings"
)

// Config is the typed view of the process configuration
type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Log      LogConfig       `mapstructure:"log"`
	Client   ClientConfig    `mapstructure:"client"`
	Settings settings.Config `mapstructure:"settings"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig 服务监听配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// WriteTimeout 为 0 时由重试策略和单次超时推算
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// RedactPatterns 额外的脱敏正则，作用于诊断日志
	RedactPatterns []string `mapstructure:"redact_patterns"`
}

// ClientConfig 请求客户端配置
type ClientConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxJitter   time.Duration `mapstructure:"max_jitter"`
	// Timeout bounds a single HTTP attempt
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetryPolicy converts the client section into a retry policy
func (c ClientConfig) RetryPolicy() client.RetryPolicy {
	return client.RetryPolicy{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		MaxJitter:   c.MaxJitter,
	}
}

// MetricsConfig Prometheus 配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Init 初始化配置，加载 .env 和 config.yaml
func Init(cfgFile string) {
	// Load .env file (ignore if not exists)
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Environment variables
	viper.SetEnvPrefix("TEXTPILOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// setDefaults 注册默认值，AutomaticEnv 只对已知的 key 生效
func setDefaults(v *viper.Viper) {
	policy := client.DefaultRetryPolicy()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.write_timeout", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.redact_patterns", []string{})
	v.SetDefault("client.max_attempts", policy.MaxAttempts)
	v.SetDefault("client.base_delay", policy.BaseDelay)
	v.SetDefault("client.max_jitter", policy.MaxJitter)
	v.SetDefault("client.timeout", client.DefaultTimeout)
	v.SetDefault("settings.backend", settings.BackendFile)
	v.SetDefault("settings.path", settings.DefaultFilePath)
	v.SetDefault("settings.redis_url", "")
	v.SetDefault("settings.redis_key", settings.DefaultRedisKey)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load unmarshals the global viper instance into a Config
func Load() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	if cfg.Metrics.Path == "" || !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return nil, fmt.Errorf("invalid metrics.path %q", cfg.Metrics.Path)
	}
	return &cfg, nil
}
