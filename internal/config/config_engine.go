package config

import (
	"fmt"
	"time"
)

// EngineApp holds engine-side application settings derived from the shared
// structured config.
type EngineApp struct {
	// HashKey is the HMAC key used by the engine for payload integrity checks.
	HashKey string
}

// EngineAdapter holds network settings used by the engine transport layer.
type EngineAdapter struct {
	// HTTPAddress is the base URL of the remote store server.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound engine requests.
	RequestTimeout time.Duration
}

// EngineStorage groups engine storage backend settings.
type EngineStorage struct {
	// ClientDB holds the local SQLite settings.
	ClientDB ClientDB
	// Exports holds the audit export directory settings.
	Exports Exports
}

// EngineConfig is the top-level sync engine configuration assembled from
// [StructuredConfig].
type EngineConfig struct {
	// App contains application-level engine settings.
	App EngineApp
	// Adapter contains outbound transport address and timeouts.
	Adapter EngineAdapter
	// Storage contains engine storage settings.
	Storage EngineStorage
	// Scheduler contains background sync settings.
	Scheduler Scheduler
}

// GetEngineConfig builds and validates an engine-specific config view from
// the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the engine runtime, and validates the resulting [EngineConfig].
func GetEngineConfig() (*EngineConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	engineCfg := &EngineConfig{
		App: EngineApp{
			HashKey: cfg.App.HashKey,
		},
		Adapter: EngineAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: EngineStorage{
			ClientDB: cfg.Storage.ClientDB,
			Exports:  cfg.Storage.Exports,
		},
		Scheduler: cfg.Scheduler,
	}

	return engineCfg, engineCfg.validate()
}
