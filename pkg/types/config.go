package types

import (
	"errors"
	"time"
)

// Config holds backend selection, directories, and linking defaults for
// LinkStore.Attach and the engine packages.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	Linking LinkingConfig `json:"linking" yaml:"linking"`
}

// LinkingConfig carries the tunable defaults of the bulk-linking engine.
// Zero values mean "use the built-in default"; the getters apply them.
type LinkingConfig struct {
	LinkType        string        `json:"link_type" yaml:"link_type"`
	DefaultQuantity int           `json:"default_quantity" yaml:"default_quantity"`
	BatchSize       int           `json:"batch_size" yaml:"batch_size"`
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay      time.Duration `json:"retry_delay" yaml:"retry_delay"`
	UndoWindow      time.Duration `json:"undo_window" yaml:"undo_window"`
	MaxSelections   int           `json:"max_selections" yaml:"max_selections"`
}

// Built-in linking defaults.
const (
	DefaultLinkType      = LinkTypeFoundHere
	DefaultQuantity      = 1
	DefaultBatchSize     = 25
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second
	DefaultUndoWindow    = 10 * time.Minute
	DefaultMaxSelections = 1000
)

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrBatchSizeInvalid   = errors.New("batch size must be positive")
	ErrMaxRetriesInvalid  = errors.New("max retries must not be negative")
	ErrUndoWindowInvalid  = errors.New("undo window must be positive")
	ErrLinkTypeInvalid    = errors.New("default link type is not a valid link type")
	ErrMaxSelectionsSmall = errors.New("max selections must be positive")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return c.Linking.Validate()
}

// Validate checks explicitly-set linking values; zero values pass because the
// getters substitute defaults.
func (lc LinkingConfig) Validate() error {
	if lc.LinkType != "" && !ValidLinkType(lc.LinkType) {
		return ErrLinkTypeInvalid
	}
	if lc.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if lc.MaxRetries < 0 {
		return ErrMaxRetriesInvalid
	}
	if lc.UndoWindow < 0 {
		return ErrUndoWindowInvalid
	}
	if lc.MaxSelections < 0 {
		return ErrMaxSelectionsSmall
	}
	return nil
}

// GetLinkType returns the configured default link type or DefaultLinkType.
func (lc LinkingConfig) GetLinkType() string {
	if lc.LinkType == "" {
		return DefaultLinkType
	}
	return lc.LinkType
}

// GetDefaultQuantity returns the configured quantity or DefaultQuantity.
func (lc LinkingConfig) GetDefaultQuantity() int {
	if lc.DefaultQuantity <= 0 {
		return DefaultQuantity
	}
	return lc.DefaultQuantity
}

// GetBatchSize returns the configured batch size or DefaultBatchSize.
func (lc LinkingConfig) GetBatchSize() int {
	if lc.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return lc.BatchSize
}

// GetMaxRetries returns the configured retry ceiling or DefaultMaxRetries.
func (lc LinkingConfig) GetMaxRetries() int {
	if lc.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return lc.MaxRetries
}

// GetRetryDelay returns the configured backoff base or DefaultRetryDelay.
func (lc LinkingConfig) GetRetryDelay() time.Duration {
	if lc.RetryDelay <= 0 {
		return DefaultRetryDelay
	}
	return lc.RetryDelay
}

// GetUndoWindow returns the configured undo window or DefaultUndoWindow.
func (lc LinkingConfig) GetUndoWindow() time.Duration {
	if lc.UndoWindow <= 0 {
		return DefaultUndoWindow
	}
	return lc.UndoWindow
}

// GetMaxSelections returns the configured selection cap or DefaultMaxSelections.
func (lc LinkingConfig) GetMaxSelections() int {
	if lc.MaxSelections <= 0 {
		return DefaultMaxSelections
	}
	return lc.MaxSelections
}
