package config

import "time"

// Redis configures the product list cache. An empty address disables it.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
}
