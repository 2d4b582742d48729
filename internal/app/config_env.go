package app

import (
	"github.com/kelseyhightower/envconfig"
)

// ApplyEnv overrides cfg fields whose environment variables are set. Unset
// variables leave the current value alone, so defaults and file values
// survive.
func ApplyEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	return envconfig.Process("", cfg)
}
