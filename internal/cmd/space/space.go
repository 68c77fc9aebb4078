// Package space parses space command flags and launches the shared
// private-space service.
package space

import (
	"context"
	"flag"

	"github.com/kopcaptz/daybookai/internal/platform/config"
	server "github.com/kopcaptz/daybookai/internal/services/space/app"
)

// Config holds space command configuration.
type Config struct {
	Port int `env:"DAYBOOK_SPACE_PORT" envDefault:"8084"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The space HTTP server port")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the private-space service.
func Run(ctx context.Context, cfg Config) error {
	return server.Run(ctx, cfg.Port)
}
