package state

import (
	"context"
	"fmt"
	"os"

	"connectx/config"
	"connectx/schema"
	"connectx/sessions"
	"connectx/storage"
	"connectx/storage/memory"
	"connectx/storage/postgres"

	"github.com/go-playground/validator/v10"
	"github.com/infinitybotlist/eureka/genconfig"
	"github.com/infinitybotlist/eureka/snippets"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	Logger    *zap.Logger
	Context   = context.Background()
	Validator *validator.Validate
	Config    *config.Config
)

// Setup loads config.yaml and builds the logger and validator. Stores are
// built separately by OpenStorage and OpenSessions and passed to routers.
func Setup() {
	Validator = schema.NewValidator()

	genconfig.GenConfig(config.Config{})

	cfg, err := os.ReadFile("config.yaml")
	if err != nil {
		panic("Failed to read config file: " + err.Error())
	}

	Config, err = Load(cfg)
	if err != nil {
		panic(err.Error())
	}

	Logger = snippets.CreateZap()
}

// Load parses and validates a config document
func Load(b []byte) (*config.Config, error) {
	var cfg config.Config

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	v := Validator
	if v == nil {
		v = schema.NewValidator()
	}

	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	if _, _, err := cfg.Sessions.Durations(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &cfg, nil
}

// OpenStorage builds the entity store selected by the config
func OpenStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return postgres.Open(cfg.Storage.DatabaseURL, logger)
	case "memory":
		logger.Warn("Using the in-memory entity store, data is lost on restart")
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// OpenSessions builds the session store selected by the config
func OpenSessions(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sessions.Store, error) {
	_, sweep, err := cfg.Sessions.Durations()
	if err != nil {
		return nil, err
	}

	switch cfg.Sessions.Driver {
	case "redis":
		client, err := sessions.DialRedis(ctx, cfg.Sessions.RedisURL)
		if err != nil {
			return nil, err
		}
		return sessions.NewRedisStore(client), nil
	case "memory":
		return sessions.NewMemoryStore(sweep, logger), nil
	}

	return nil, fmt.Errorf("unknown session driver %q", cfg.Sessions.Driver)
}
