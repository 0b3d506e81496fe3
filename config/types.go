package config

import (
	"github.com/urbanflow-transit/feedpipe/feed"
)

// ServerConfig contains the HTTP API configuration.
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

// HTTPConfig bounds outbound requests.
type HTTPConfig struct {
	TimeoutMS int `yaml:"timeoutMS" validate:"gte=0"`
}

// CacheConfig locates the static-schedule disk cache and throttles syncs.
type CacheConfig struct {
	Dir                string `yaml:"dir"`
	SyncMinIntervalSec int    `yaml:"syncMinIntervalSec" validate:"gte=0"`
}

// FeedsConfig holds the decode-side tunables shared by all cities.
type FeedsConfig struct {
	StaleAfterSec int              `yaml:"staleAfterSec" validate:"gte=0"`
	BoundsFilter  bool             `yaml:"boundsFilter"`
	StaleFilter   bool             `yaml:"staleFilter"`
	Bounds        feed.BoundingBox `yaml:"bounds"`
}

// LiveFeed is one operator's raw position feed.
type LiveFeed struct {
	URL        string          `yaml:"url" validate:"required,url"`
	Descriptor feed.Descriptor `yaml:"descriptor"`
}

// StaticFeed is one operator's schedule bundle source.
type StaticFeed struct {
	URL string `yaml:"url" validate:"required,url"`
}

// City configures one operator. Live and Static are each optional; a city
// with neither is legal but can only be asked for cached data.
type City struct {
	Name       string      `yaml:"name" validate:"required"`
	Timezone   string      `yaml:"timezone"`
	Live       *LiveFeed   `yaml:"live"`
	Static     *StaticFeed `yaml:"static"`
	AutoEnrich bool        `yaml:"autoEnrich"`
}

// App is the root configuration, constructed once at startup and threaded
// through.
type App struct {
	Server ServerConfig `yaml:"server"`
	HTTP   HTTPConfig   `yaml:"http"`
	Cache  CacheConfig  `yaml:"cache"`
	Feeds  FeedsConfig  `yaml:"feeds"`
	Cities []City       `yaml:"cities" validate:"required,dive"`
}

// CityByName resolves a configured city.
func (a *App) CityByName(name string) (*City, bool) {
	for i := range a.Cities {
		if a.Cities[i].Name == name {
			return &a.Cities[i], true
		}
	}
	return nil, false
}

// StaticSources maps each city with a static bundle to its URL.
func (a *App) StaticSources() map[string]string {
	out := map[string]string{}
	for _, c := range a.Cities {
		if c.Static != nil {
			out[c.Name] = c.Static.URL
		}
	}
	return out
}
