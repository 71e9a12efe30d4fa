package config

import (
	"fmt"
	"sync/atomic"

	"github.com/kbukum/streamkit/logger"
)

// Settings holds the library-wide tunables.
type Settings struct {
	// Logging configures the diagnostic logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	// Prefetch is the default request amount for queue-backed stages.
	Prefetch int `yaml:"prefetch" mapstructure:"prefetch"`
	// StrictResourceSupply turns a second value from a resource
	// supplier into an error signal instead of a logged drop.
	StrictResourceSupply bool `yaml:"strict_resource_supply" mapstructure:"strict_resource_supply"`
}

// ApplyDefaults applies default values to settings.
func (s *Settings) ApplyDefaults() {
	s.Logging.ApplyDefaults()
	if s.Prefetch == 0 {
		s.Prefetch = 256
	}
}

// Validate validates settings.
func (s *Settings) Validate() error {
	if err := s.Logging.Validate(); err != nil {
		return err
	}
	if s.Prefetch < 1 {
		return fmt.Errorf("prefetch must be positive (got: %d)", s.Prefetch)
	}
	return nil
}

// --- Process-wide defaults ---

var defaults atomic.Pointer[Settings]

// Defaults returns the active settings, loading defaults on first use.
func Defaults() *Settings {
	if s := defaults.Load(); s != nil {
		return s
	}
	s := &Settings{}
	s.ApplyDefaults()
	defaults.CompareAndSwap(nil, s)
	return defaults.Load()
}

// SetDefaults installs settings as the process-wide defaults.
func SetDefaults(s *Settings) {
	s.ApplyDefaults()
	defaults.Store(s)
}
