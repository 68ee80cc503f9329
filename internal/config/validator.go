package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/forgekit-dev/forge/internal/apperrors"
)

// ValidationContext specifies what a subcommand needs configured before it
// runs.
type ValidationContext string

const (
	ValidationContextInit    ValidationContext = "init"
	ValidationContextSurvey  ValidationContext = "survey"
	ValidationContextMap     ValidationContext = "map"
	ValidationContextMCP     ValidationContext = "mcp"
	ValidationContextAll     ValidationContext = "all"
)

// ValidationResult accumulates errors (fatal) and warnings (informational)
// from validating a Config against a ValidationContext.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range vr.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err)
	}
	if len(vr.Warnings) > 0 {
		sb.WriteString("\nwarnings:\n")
		for _, warn := range vr.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", warn)
		}
	}
	return sb.String()
}

// Validate validates c for ctx using the auto-detected deployment mode.
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	return c.ValidateWithMode(ctx, DetectMode())
}

func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextInit:
		// No network access, nothing required.
	case ValidationContextSurvey:
		c.validateGitHub(result, mode, false) // optional: raises rate limit, doesn't gate public repos
		c.validateCache(result)
		c.validateSurvey(result)
	case ValidationContextMap:
		c.validateGraphSnapshot(result)
	case ValidationContextMCP:
		c.validateGraphSnapshot(result)
	case ValidationContextAll:
		c.validateGitHub(result, mode, false)
		c.validateCache(result)
		c.validateSurvey(result)
		c.validateLLM(result, false)
		c.validateGraphSnapshot(result)
	}

	return result
}

func (c *Config) ValidateOrFatal(ctx ValidationContext) {
	c.ValidateOrFatalWithMode(ctx, DetectMode())
}

func (c *Config) ValidateOrFatalWithMode(ctx ValidationContext, mode DeploymentMode) {
	result := c.ValidateWithMode(ctx, mode)
	if result.HasErrors() {
		fmt.Println(result.Error())
		fmt.Printf("\ndeployment mode: %s (%s)\n", mode, mode.Description())
		panic(apperrors.ConfigError(result.Error()))
	}
	if len(result.Warnings) > 0 {
		fmt.Println("configuration warnings:")
		for _, warn := range result.Warnings {
			fmt.Printf("  - %s\n", warn)
		}
	}
}

func (c *Config) validateGitHub(result *ValidationResult, mode DeploymentMode, required bool) {
	if c.GitHub.Token == "" {
		if required {
			result.AddError("GITHUB_TOKEN is required but not set")
		} else {
			result.AddWarning("GITHUB_TOKEN is not set; public repos still work, at a lower rate limit")
		}
	}
	if c.GitHub.RateLimit <= 0 {
		result.AddWarning("github.rate_limit is invalid, will use the default (5 req/s)")
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.Root == "" {
		result.AddWarning("cache.root is not set, will use the default")
	}
	if c.Cache.MaxSize <= 0 {
		result.AddWarning("cache.max_size is invalid or not set, will use the default (2GB)")
	}
}

func (c *Config) validateLLM(result *ValidationResult, required bool) {
	if c.LLM.APIKey == "" {
		if required {
			result.AddError("no LLM API key configured; interview questions will fail")
		} else {
			result.AddWarning("no LLM API key configured; context-gap interviews will be skipped")
		}
	}
	switch c.LLM.Provider {
	case "claude", "codex", "gemini", "":
	default:
		result.AddError("llm.provider %q is not one of claude, codex, gemini", c.LLM.Provider)
	}
}

func (c *Config) validateSurvey(result *ValidationResult) {
	if c.Survey.MaxConcurrency <= 0 {
		result.AddWarning("survey.max_concurrency is invalid, will use the default (4)")
	}
	if c.Survey.MinRelevance < 0 || c.Survey.MinRelevance > 1 {
		result.AddError("survey.min_relevance must be in [0,1], got %.2f", c.Survey.MinRelevance)
	}
}

func (c *Config) validateGraphSnapshot(result *ValidationResult) {
	if c.Graph.SnapshotPath == "" {
		result.AddError("graph.snapshot_path is required but not set")
		return
	}
	if _, err := url.Parse(c.Graph.SnapshotPath); err != nil {
		result.AddWarning("graph.snapshot_path looks malformed: %v", err)
	}
}

// RequireGitHubToken returns an error if no GitHub token is configured.
func (c *Config) RequireGitHubToken() error {
	if c.GitHub.Token == "" {
		return apperrors.ConfigError("GITHUB_TOKEN is required but not set")
	}
	return nil
}

// RequireLLM returns an error if no LLM API key is configured.
func (c *Config) RequireLLM() error {
	result := &ValidationResult{Valid: true}
	c.validateLLM(result, true)
	if result.HasErrors() {
		return apperrors.ConfigError(result.Error())
	}
	return nil
}
