package config

import (
	"github.com/jpalmerr/senzai"
)

// Options converts the optional settings of a run file into
// [senzai.Option] values. URL and Intervals are positional arguments of
// [senzai.New] and are not included.
func Options(cfg *Config) []senzai.Option {
	if cfg == nil {
		return nil
	}

	var opts []senzai.Option

	if cfg.Timeout != 0 {
		opts = append(opts, senzai.WithTimeout(cfg.Timeout.Duration()))
	}

	return opts
}
