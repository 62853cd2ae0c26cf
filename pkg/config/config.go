// Package config loads runtime settings from defaults, an optional YAML/JSON file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Built-in provider names for search.providers. Others can be added through a registry.
const (
	ProviderWikipedia = "wikipedia"
	ProviderSerpAPI   = "serpapi"
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
)

type Config struct {
	Knowledge KnowledgeConfig `yaml:"knowledge" json:"knowledge"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Planner   PlannerConfig   `yaml:"planner" json:"planner"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

type KnowledgeConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	MaxChars int    `yaml:"max_chars" json:"max_chars"`
	// RequireFresh consults search providers even when the knowledge base has the destination.
	RequireFresh bool `yaml:"require_fresh" json:"require_fresh"`
}

type SearchConfig struct {
	MaxChars int           `yaml:"max_chars" json:"max_chars"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	// Providers is the order in which configured providers are consulted.
	Providers []string        `yaml:"providers" json:"providers"`
	Wikipedia WikipediaConfig `yaml:"wikipedia" json:"wikipedia"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" json:"serpapi"`
	Google    GoogleConfig    `yaml:"google" json:"google"`
	Nominatim NominatimConfig `yaml:"nominatim" json:"nominatim"`
}

type WikipediaConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Lang    string `yaml:"lang" json:"lang"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type SerpAPIConfig struct {
	APIKey  string `yaml:"api_key" json:"-"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type GoogleConfig struct {
	APIKey  string `yaml:"api_key" json:"-"`
	CSEID   string `yaml:"cse_id" json:"cse_id"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type NominatimConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
}

type LLMConfig struct {
	APIKey      string        `yaml:"api_key" json:"-"`
	Model       string        `yaml:"model" json:"model"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

type PlannerConfig struct {
	Candidates     int    `yaml:"candidates" json:"candidates"`
	AdviceOptional bool   `yaml:"advice_optional" json:"advice_optional"`
	StrictContext  bool   `yaml:"strict_context" json:"strict_context"`
	Language       string `yaml:"language" json:"language"`
	// MaxPlanChars bounds how much of the generated plans is quoted back to the advisor.
	MaxPlanChars int `yaml:"max_plan_chars" json:"max_plan_chars"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" json:"backend"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// BaseURL is advertised by the MCP SSE transport.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Knowledge: KnowledgeConfig{Dir: "knowledge", MaxChars: 4000},
		Search: SearchConfig{
			MaxChars:  3000,
			Timeout:   10 * time.Second,
			Providers: []string{ProviderWikipedia, ProviderSerpAPI, ProviderGoogle, ProviderNominatim},
			Wikipedia: WikipediaConfig{Enabled: true, Lang: "en"},
			Nominatim: NominatimConfig{UserAgent: "tabi/dev (+https://github.com/aretw0/tabi)"},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Planner: PlannerConfig{
			Candidates:     3,
			AdviceOptional: true,
			Language:       "English",
			MaxPlanChars:   6000,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "tabi:bundle:", LockTTL: 30 * time.Second},
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// envOverrides maps environment variables onto dotted config keys.
var envOverrides = []struct {
	env, key string
}{
	{"OPENAI_API_KEY", "llm.api_key"},
	{"OPENAI_MODEL", "llm.model"},
	{"OPENAI_BASE_URL", "llm.base_url"},
	{"SERPAPI_API_KEY", "search.serpapi.api_key"},
	{"GOOGLE_API_KEY", "search.google.api_key"},
	{"GOOGLE_CSE_ID", "search.google.cse_id"},
	{"TABI_KNOWLEDGE_DIR", "knowledge.dir"},
	{"TABI_CACHE_BACKEND", "cache.backend"},
	{"TABI_REDIS_ADDR", "cache.redis.addr"},
	{"TABI_LOG_LEVEL", "log.level"},
}

// Load builds a Config from defaults, the file at path (if path is not empty) and the environment.
// A file ending in .json is parsed as JSON, anything else as YAML.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = json.Unmarshal(data, &raw)
		} else {
			err = yaml.Unmarshal(data, &raw)
		}
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if raw == nil { // empty YAML document
			raw = map[string]any{}
		}
	}

	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			setPath(raw, o.key, v)
		}
	}

	dropNulls(raw)
	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		// Lists from the file replace the defaults instead of overwriting them index by index.
		ZeroFields: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// dropNulls removes keys whose value is null, at any depth. A section left with
// only commented-out keys parses as null and must keep its defaults.
func dropNulls(m map[string]any) {
	for k, v := range m {
		switch v := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			dropNulls(v)
		}
	}
}

// setPath writes value at a dotted key, creating intermediate maps.
func setPath(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Missing lists the credentials that are not set, by environment variable name.
// The workflow still runs without them; the matching providers are skipped.
func (c Config) Missing() []string {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Search.SerpAPI.APIKey == "" {
		missing = append(missing, "SERPAPI_API_KEY")
	}
	if c.Search.Google.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if c.Search.Google.CSEID == "" {
		missing = append(missing, "GOOGLE_CSE_ID")
	}
	return missing
}

// Validate rejects settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if c.Planner.Candidates < 1 {
		errs = append(errs, fmt.Errorf("planner.candidates must be >= 1, got %d", c.Planner.Candidates))
	}
	if c.Knowledge.MaxChars < 0 || c.Search.MaxChars < 0 || c.Planner.MaxPlanChars < 0 {
		errs = append(errs, errors.New("max_chars settings must not be negative"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, errors.New("search.timeout must be positive"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl must not be negative"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0, 2], got %g", c.LLM.Temperature))
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required for the redis backend"))
		}
		if c.Cache.Redis.LockTTL <= 0 {
			errs = append(errs, errors.New("cache.redis.lock_ttl must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}
	for _, p := range c.Search.Providers {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("search.providers must not contain empty names"))
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
