package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	once     sync.Once
	instance *Config
)

const DefaultEnvPath = "./configs/.env"

type Config struct {
}

// New loads DefaultEnvPath once. Variables already set in the environment win
// over the file.
func New() *Config {
	return NewFromFile(DefaultEnvPath)
}

func NewFromFile(path string) *Config {
	once.Do(func() {
		err := godotenv.Load(path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Fatal("loading envs error: ", err)
			}
			slog.Warn("env file not found, using process environment", slog.String("path", path))
		}
		instance = &Config{}
	})
	return instance
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

func (c *Config) GetStringOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in config, using default", slog.String("key", key), slog.Int("default", def))
		return def
	}
	return n
}

// GetDuration accepts time.ParseDuration strings such as "250ms" or "1m".
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in config, using default", slog.String("key", key), slog.Duration("default", def))
		return def
	}
	return d
}
