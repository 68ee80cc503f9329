package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the deployment context forge is running in.
type DeploymentMode string

const (
	// ModeDevelopment is a git clone running from source.
	ModeDevelopment DeploymentMode = "development"

	// ModePackaged is an installed binary (brew, GoReleaser archive).
	ModePackaged DeploymentMode = "packaged"

	// ModeCI is a CI/CD pipeline run: no interactive prompts, strict
	// validation, credentials from the environment only.
	ModeCI DeploymentMode = "ci"
)

// DetectMode infers the deployment context from the environment.
func DetectMode() DeploymentMode {
	if mode := os.Getenv("FORGE_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "development", "dev":
			return ModeDevelopment
		case "packaged", "pkg", "production", "prod":
			return ModePackaged
		case "ci", "cicd":
			return ModeCI
		}
	}

	if isCI() {
		return ModeCI
	}

	if _, err := os.Stat(".env"); err == nil {
		return ModeDevelopment
	}
	if _, err := os.Stat("go.mod"); err == nil {
		return ModeDevelopment
	}

	return ModePackaged
}

func isCI() bool {
	ciEnvVars := []string{
		"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI",
		"CIRCLECI", "TRAVIS", "JENKINS_URL", "BUILDKITE", "DRONE", "TF_BUILD",
	}
	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}

func IsDevelopment() bool { return DetectMode() == ModeDevelopment }
func IsPackaged() bool    { return DetectMode() == ModePackaged }
func IsCI() bool          { return DetectMode() == ModeCI }
func GetMode() DeploymentMode { return DetectMode() }

func (m DeploymentMode) String() string { return string(m) }

func (m DeploymentMode) AllowsDevelopmentDefaults() bool { return m == ModeDevelopment }
func (m DeploymentMode) RequiresSecureCredentials() bool { return m == ModePackaged || m == ModeCI }
func (m DeploymentMode) AllowsInteractivePrompts() bool  { return m == ModePackaged }
func (m DeploymentMode) RequiresStrictValidation() bool  { return m == ModeCI }

func (m DeploymentMode) Description() string {
	switch m {
	case ModeDevelopment:
		return "local development (running from source)"
	case ModePackaged:
		return "packaged installation"
	case ModeCI:
		return "CI/CD pipeline"
	default:
		return "unknown"
	}
}

func (m DeploymentMode) ConfigSource() string {
	switch m {
	case ModeDevelopment:
		return ".env file"
	case ModePackaged:
		return "environment variables, keychain, or interactive config"
	case ModeCI:
		return "environment variables only"
	default:
		return "unknown"
	}
}
