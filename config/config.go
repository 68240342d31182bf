package config

import (
	"fmt"
	"time"
)

type Config struct {
	Server   Server   `yaml:"server" validate:"required"`
	Storage  Storage  `yaml:"storage" validate:"required"`
	Sessions Sessions `yaml:"sessions" validate:"required"`
}

type Server struct {
	Port      string `yaml:"port" default:":8080" comment:"Server Port" validate:"required"`
	Env       string `yaml:"env" default:"development" comment:"Server Environment" validate:"required,oneof=development production"`
	BaseURL   string `yaml:"base_url" default:"http://localhost:8080" comment:"Public URL of the API, used in the OpenAPI document" validate:"required,httporhttps"`
	RateLimit int    `yaml:"rate_limit" default:"5" comment:"Requests per second allowed on auth endpoints" validate:"gte=0"`
}

type Storage struct {
	Driver      string `yaml:"driver" default:"memory" comment:"Entity store: memory or postgres" validate:"required,oneof=memory postgres"`
	DatabaseURL string `yaml:"database_url" comment:"Database URL, required for the postgres driver" validate:"required_if=Driver postgres"`
}

type Sessions struct {
	Driver        string `yaml:"driver" default:"memory" comment:"Session store: memory or redis" validate:"required,oneof=memory redis"`
	RedisURL      string `yaml:"redis_url" comment:"Redis URL, required for the redis driver" validate:"required_if=Driver redis"`
	TTL           string `yaml:"ttl" default:"24h" comment:"Session lifetime as a Go duration" validate:"required"`
	SweepInterval string `yaml:"sweep_interval" default:"1h" comment:"How often expired in-memory sessions are pruned" validate:"required"`
	CookieName    string `yaml:"cookie_name" default:"connectx_session" comment:"Name of the session cookie" validate:"required"`
}

// Durations parses the session lifetime and sweep interval
func (s Sessions) Durations() (ttl, sweep time.Duration, err error) {
	ttl, err = time.ParseDuration(s.TTL)
	if err != nil {
		return 0, 0, fmt.Errorf("sessions.ttl: %w", err)
	}

	sweep, err = time.ParseDuration(s.SweepInterval)
	if err != nil {
		return 0, 0, fmt.Errorf("sessions.sweep_interval: %w", err)
	}

	if ttl <= 0 {
		return 0, 0, fmt.Errorf("sessions.ttl must be positive")
	}

	return ttl, sweep, nil
}
