// Package config loads tooling defaults from the environment. The block core
// takes its three declared parameters explicitly and never reads these.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"tiller/internal/storage"
)

type Settings struct {
	StoreKind string `env:"TILLER_STORE"`
	DBPath    string `env:"TILLER_DB_PATH" envDefault:"tiller.db"`
	LogLevel  string `env:"TILLER_LOG_LEVEL" envDefault:"info"`
}

// FromEnv parses settings from the environment on top of build-dependent
// defaults (the store kind follows the storage build tags).
func FromEnv() (Settings, error) {
	settings := Settings{StoreKind: storage.DefaultStoreKind()}
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return settings, nil
}
