package settings

import "fmt"

// Backend names accepted in Config.Backend
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures a Store
type Config struct {
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	RedisURL string `mapstructure:"redis_url"`
	RedisKey string `mapstructure:"redis_key"`
}

// NewStore builds the store named by cfg.Backend. An empty backend means file.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("settings backend %q requires a redis URL", cfg.Backend)
		}
		return NewRedisStore(cfg.RedisURL, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.Backend)
	}
}
