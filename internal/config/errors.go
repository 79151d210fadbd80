package config

import "errors"

// Validation errors returned by [EngineConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid engine adapter settings
	// (for example, missing server address or request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid engine storage settings
	// (for example, empty DSN or an in-memory DSN that would lose the
	// queue across restarts).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// required by the engine (for example, missing hash key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSchedulerConfigs indicates invalid background scheduler
	// settings (for example, enabled with a zero interval).
	ErrInvalidSchedulerConfigs = errors.New("invalid scheduler configuration")
)
