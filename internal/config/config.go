package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Options are the per-invocation knobs. Install-time defaults live in
// the config file; each addon install may override them through the
// base64 options segment in its URL.
type Options struct {
	StrictMatching       bool                `yaml:"strict_matching" json:"strictMatching"`
	PreferredLanguage    string              `yaml:"preferred_language" json:"preferredLanguage"`
	Sorting              string              `yaml:"sorting" json:"sorting"`
	Qualities            string              `yaml:"qualities" json:"qualities"` // comma-separated allow-list, empty = all
	MaxResultsPerQuality int                 `yaml:"max_results_per_quality" json:"maxResultsPerQuality"`
	MaxSizeGB            float64             `yaml:"max_size_gb" json:"maxSizeGB"`
	CustomTitles         map[string][]string `yaml:"custom_titles" json:"customTitles"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port"`
		DataPath string `yaml:"data_path"`
		Debug    bool   `yaml:"debug"`
		Silly    bool   `yaml:"silly"`
	} `yaml:"app"`

	Easynews struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"easynews"`

	Search struct {
		TotalMaxResults   int    `yaml:"total_max_results"`
		MaxPages          int    `yaml:"max_pages"`
		MaxResultsPerPage int    `yaml:"max_results_per_page"`
		CacheTTLHours     int    `yaml:"cache_ttl_hours"`
		CacheMaxEntries   int    `yaml:"cache_max_entries"`
		CachePath         string `yaml:"cache_path"` // empty disables the persistent level
	} `yaml:"search"`

	Metadata struct {
		// Providers to try in order.
		Providers []string `yaml:"providers"`
		TMDB      struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"tmdb"`
		Language string `yaml:"language"`
	} `yaml:"metadata"`

	Notifications struct {
		Pushbullet struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"pushbullet"`
	} `yaml:"notifications"`

	Defaults Options `yaml:"defaults"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.App.Port = 7991
	cfg.App.DataPath = "./data"
	cfg.App.Debug = false

	cfg.Easynews.URL = "https://members.easynews.com"

	cfg.Search.TotalMaxResults = 500
	cfg.Search.MaxPages = 10
	cfg.Search.MaxResultsPerPage = 250
	cfg.Search.CacheTTLHours = 24
	cfg.Search.CacheMaxEntries = 1024
	cfg.Search.CachePath = "./data/searchcache.db"

	cfg.Metadata.Providers = []string{"cinemeta"}
	cfg.Metadata.Language = "en"

	cfg.Defaults.Sorting = "quality_first"
}

func loadFromEnv(cfg *Config) {
	setString := func(key string, target *string) {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
	setInt := func(key string, target *int) {
		if value := os.Getenv(key); value != "" {
			if parsed, err := strconv.Atoi(value); err == nil {
				*target = parsed
			}
		}
	}

	setString("EASYNEWS_URL", &cfg.Easynews.URL)
	setString("EASYNEWS_USERNAME", &cfg.Easynews.Username)
	setString("EASYNEWS_PASSWORD", &cfg.Easynews.Password)
	setString("TMDB_API_KEY", &cfg.Metadata.TMDB.APIKey)
	setString("PUSHBULLET_API_KEY", &cfg.Notifications.Pushbullet.APIKey)

	setInt("PORT", &cfg.App.Port)
	setInt("TOTAL_MAX_RESULTS", &cfg.Search.TotalMaxResults)
	setInt("MAX_PAGES", &cfg.Search.MaxPages)
	setInt("MAX_RESULTS_PER_PAGE", &cfg.Search.MaxResultsPerPage)
	setInt("CACHE_TTL", &cfg.Search.CacheTTLHours)
	setInt("CACHE_MAX_ENTRIES", &cfg.Search.CacheMaxEntries)

	if value := os.Getenv("DEBUG"); value != "" {
		cfg.App.Debug = value == "1" || value == "true"
	}
}

// OptionsFromSegment overlays a base64-encoded JSON options object from
// an addon install URL onto the configured defaults. A missing or
// malformed segment yields the defaults untouched.
func (c *Config) OptionsFromSegment(segment string) (Options, error) {
	opts := c.Defaults
	if segment == "" {
		return opts, nil
	}

	raw, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		// Stremio clients sometimes standard-encode; accept both.
		raw, err = base64.StdEncoding.DecodeString(segment)
		if err != nil {
			return opts, fmt.Errorf("invalid options segment: %w", err)
		}
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("invalid options payload: %w", err)
	}
	return opts, nil
}
