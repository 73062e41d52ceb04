package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"3000"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"3001"`
	Arena      Arena   `yaml:"arena"`
	Session    Session `yaml:"session"`
	Redis      Redis   `yaml:"redis"`
}

// Arena describes the remote service that runs matches and computes moves.
type Arena struct {
	BaseURL        string        `yaml:"base-url" env:"ARENA_BASE_URL" env-default:"http://127.0.0.1:5000"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"ARENA_REQUEST_TIMEOUT" env-default:"60s"`
}

type Session struct {
	PollInterval time.Duration `yaml:"poll-interval" env:"SESSION_POLL_INTERVAL" env-default:"1s"`
	ResetDelay   time.Duration `yaml:"reset-delay" env:"SESSION_RESET_DELAY" env-default:"3s"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	StatsTTL time.Duration `yaml:"stats-ttl" env:"REDIS_STATS_TTL" env-default:"24h"`
}

// Load - reads the config file at path; when the file does not exist only the environment is used.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from environment: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
