// Package config holds the environment-driven configuration helpers shared
// by the server and lakectl entry points.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// FromEnv fills cfg from process environment variables according to its
// `env` struct tags.
func FromEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("environment config: %w", err)
	}
	return nil
}
