package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/urbanflow-transit/feedpipe/feed"
)

// Load reads, validates and defaults the application configuration. When
// path is empty the usual locations are tried. A .env file, if present, is
// folded into the environment first; FEEDPIPE_PORT and FEEDPIPE_CACHE_DIR
// override the file values.
func Load(path string) (*App, error) {
	_ = godotenv.Load()

	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml", "./etc/config.yml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	var cfg App
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("FEEDPIPE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid FEEDPIPE_PORT: %q", v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("FEEDPIPE_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}

	val := validator.New()
	if err := val.Struct(&cfg); err != nil {
		return nil, err
	}
	for i := range cfg.Cities {
		c := &cfg.Cities[i]
		if c.Live != nil {
			if err := val.Struct(c.Live); err != nil {
				return nil, fmt.Errorf("city %s: %w", c.Name, err)
			}
			if err := c.Live.Descriptor.Validate(); err != nil {
				return nil, fmt.Errorf("city %s: %w", c.Name, err)
			}
		}
		if c.Static != nil {
			if err := val.Struct(c.Static); err != nil {
				return nil, fmt.Errorf("city %s: %w", c.Name, err)
			}
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *App) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.HTTP.TimeoutMS == 0 {
		cfg.HTTP.TimeoutMS = 15000
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "./cache"
	}
	if cfg.Cache.SyncMinIntervalSec == 0 {
		cfg.Cache.SyncMinIntervalSec = 300
	}
	if cfg.Feeds.StaleAfterSec == 0 {
		cfg.Feeds.StaleAfterSec = 180
	}
	if cfg.Feeds.Bounds == (feed.BoundingBox{}) {
		// Lithuanian operating region.
		cfg.Feeds.Bounds = feed.BoundingBox{MinLat: 53.5, MaxLat: 56.5, MinLon: 20.5, MaxLon: 27.0}
	}
}

// Timeout returns the outbound HTTP timeout as a duration.
func (a *App) Timeout() time.Duration {
	return time.Duration(a.HTTP.TimeoutMS) * time.Millisecond
}

// StaleAfter returns the staleness threshold as a duration.
func (a *App) StaleAfter() time.Duration {
	return time.Duration(a.Feeds.StaleAfterSec) * time.Second
}

// SyncMinInterval returns the sync throttle as a duration.
func (a *App) SyncMinInterval() time.Duration {
	return time.Duration(a.Cache.SyncMinIntervalSec) * time.Second
}
