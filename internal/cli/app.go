package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/okhose/annals/internal/cache"
	"github.com/okhose/annals/internal/config"
	"github.com/okhose/annals/internal/engine"
	"github.com/okhose/annals/internal/logging"
	"github.com/okhose/annals/internal/store"
)

// loadConfig layers the config file and environment over the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if jsonOut {
		cfg.Output.JSON = true
	}
	return cfg, nil
}

// openEngine builds the engine over the configured store. The caller must
// Close the returned store.
func openEngine(cfg *config.Config) (*engine.Engine, store.Store, error) {
	if cfg.Output.Verbose {
		logging.SetVerbose()
	}

	var s store.Store
	switch cfg.Store.Backend {
	case "memory":
		s = store.NewMemory()
	case "sqlite", "":
		sq, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		s = sq
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var opts []engine.Option
	if cfg.Cache.Enabled {
		var c cache.Cache
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.TTL)
		}
		opts = append(opts, engine.WithTimelineCache(c))
	}

	return engine.New(s, cfg, opts...), s, nil
}

// emit prints v as indented JSON to stdout.
func emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
