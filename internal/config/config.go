// Package config loads forge's configuration from a YAML file overlaid
// with environment variables, following the teacher's section-struct +
// viper + godotenv layering.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds every section forge reads at startup.
type Config struct {
	Mode string `yaml:"mode"` // "development", "packaged", "ci"

	Graph  GraphConfig  `yaml:"graph"`
	GitHub GitHubConfig `yaml:"github"`
	Cache  CacheConfig  `yaml:"cache"`
	LLM    LLMConfig    `yaml:"llm"`
	Survey SurveyConfig `yaml:"survey"`
}

// GraphConfig locates the persisted graph snapshot on disk (§6's
// persisted-state layout).
type GraphConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
}

// GitHubConfig holds the token and client-side rate limit used by
// internal/ghdiscovery to list an organization's repositories.
type GitHubConfig struct {
	Token             string   `yaml:"token"`
	RateLimit         float64  `yaml:"rate_limit"` // requests per second
	RepoAllowlist     []string `yaml:"repo_allowlist"`
	RepoDenylist      []string `yaml:"repo_denylist"`
}

// CacheConfig locates the local clone cache internal/repocache manages.
type CacheConfig struct {
	Root    string        `yaml:"root"`
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int64         `yaml:"max_size"` // bytes
}

// LLMConfig selects the interview provider and holds its credentials.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // "claude", "codex", "gemini"
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	UseKeychain  bool   `yaml:"use_keychain"`
}

// SurveyConfig tunes the survey's concurrency and the defaults handed to
// the gap-analysis and render passes that follow it.
type SurveyConfig struct {
	MaxConcurrency    int     `yaml:"max_concurrency"`
	DefaultMaxDepth   int     `yaml:"default_max_depth"`
	DefaultTokenBudget int    `yaml:"default_token_budget"`
	InterviewTopN     int     `yaml:"interview_top_n"`
	MinRelevance      float64 `yaml:"min_relevance"`
}

// Default returns forge's built-in defaults, used both to seed viper and
// as the fallback when no config file exists.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Mode: "development",
		Graph: GraphConfig{
			SnapshotPath: filepath.Join(".forge", "graph.json"),
		},
		GitHub: GitHubConfig{
			RateLimit: 5, // requests per second
		},
		Cache: CacheConfig{
			Root:    filepath.Join(homeDir, ".forge", "repos"),
			TTL:     24 * time.Hour,
			MaxSize: 2 * 1024 * 1024 * 1024, // 2GB
		},
		LLM: LLMConfig{
			Provider: "claude",
			Model:    "claude-sonnet-4-5",
		},
		Survey: SurveyConfig{
			MaxConcurrency:     4,
			DefaultMaxDepth:    2,
			DefaultTokenBudget: 0, // 0 means unbounded
			InterviewTopN:      5,
			MinRelevance:       0.0,
		},
	}
}

// Load reads .forge/config.yaml (or path, if given), overlays environment
// variables, and returns the merged Config. A missing config file is not
// an error — the defaults plus environment apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("graph", cfg.Graph)
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("llm", cfg.LLM)
	v.SetDefault("survey", cfg.Survey)

	v.SetEnvPrefix("FORGE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".forge")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".forge"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence, same pattern as
// the teacher's config loader.
func loadEnvFiles() {
	envFiles := []string{".env.local", ".env", ".env.example"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err == nil {
				continue
			}
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".forge", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides lets specific, unprefixed environment variables win
// over both the config file and the FORGE_-prefixed viper bindings —
// GITHUB_TOKEN in particular is the variable every CI system already sets.
func applyEnvOverrides(cfg *Config) {
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			cfg.GitHub.Token = token
			break
		}
	}
	if rate := os.Getenv("GITHUB_RATE_LIMIT"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.GitHub.RateLimit = f
		}
	}

	if key := os.Getenv("FORGE_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if cfg.LLM.APIKey == "" && cfg.LLM.UseKeychain {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetAPIKey(); err == nil && keychainKey != "" {
				cfg.LLM.APIKey = keychainKey
			}
		}
	}
	if provider := os.Getenv("FORGE_LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}

	if root := os.Getenv("FORGE_CACHE_ROOT"); root != "" {
		cfg.Cache.Root = expandPath(root)
	}
	if size := os.Getenv("FORGE_CACHE_MAX_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			cfg.Cache.MaxSize = n
		}
	}

	if path := os.Getenv("FORGE_GRAPH_SNAPSHOT_PATH"); path != "" {
		cfg.Graph.SnapshotPath = expandPath(path)
	}

	if mode := os.Getenv("FORGE_MODE"); mode != "" {
		cfg.Mode = mode
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("mode", c.Mode)
	v.Set("graph", c.Graph)
	v.Set("github", c.GitHub)
	v.Set("cache", c.Cache)
	v.Set("llm", c.LLM)
	v.Set("survey", c.Survey)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
