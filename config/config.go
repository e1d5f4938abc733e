// Package config loads the application configuration from a TOML file
// with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	HTTP  HTTPConfig  `toml:"http"`
	Data  DataConfig  `toml:"data"`
	LLM   LLMConfig   `toml:"llm"`
	Fetch FetchConfig `toml:"fetch"`
	Cache CacheConfig `toml:"cache"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// DataConfig configures where the SQLite database lives.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// LLMConfig configures the capsule generator endpoint. The API key can
// also come from CODECAPSULE_LLM_API_KEY, which wins over the file.
type LLMConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// FetchConfig configures the content fetcher.
type FetchConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	BlockPrivateHosts bool    `toml:"block_private_hosts"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CacheConfig configures the listing-view cache.
type CacheConfig struct {
	TTLSeconds int `toml:"ttl_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP:  HTTPConfig{Addr: "127.0.0.1:8080"},
		Data:  DataConfig{Dir: "./data"},
		LLM:   LLMConfig{BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat"},
		Fetch: FetchConfig{TimeoutSeconds: 15, RequestsPerSecond: 4},
		Cache: CacheConfig{TTLSeconds: 30},
	}
}

// Load reads path (optional) over the defaults, then applies env
// overrides. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if key := os.Getenv("CODECAPSULE_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if base := os.Getenv("CODECAPSULE_LLM_BASE_URL"); base != "" {
		cfg.LLM.BaseURL = base
	}
	if addr := os.Getenv("CODECAPSULE_HTTP_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	return cfg, nil
}
