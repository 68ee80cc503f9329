package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// CredentialManager retrieves credentials using a fixed priority chain:
// environment variable, OS keychain, config file, then (packaged mode
// only) an interactive prompt.
type CredentialManager struct {
	mode       DeploymentMode
	keyring    *KeyringManager
	configPath string
}

// Credentials is the on-disk fallback shape when the keychain is
// unavailable.
type Credentials struct {
	LLMAPIKey   string `yaml:"llm_api_key"`
	GitHubToken string `yaml:"github_token"`
}

func NewCredentialManager() *CredentialManager {
	mode := DetectMode()
	homeDir, _ := os.UserHomeDir()
	configPath := filepath.Join(homeDir, ".config", "forge", "credentials.yaml")

	return &CredentialManager{
		mode:       mode,
		keyring:    NewKeyringManager(),
		configPath: configPath,
	}
}

// GetLLMAPIKey retrieves the interview provider's API key.
func (cm *CredentialManager) GetLLMAPIKey() (string, error) {
	if key := os.Getenv("FORGE_LLM_API_KEY"); key != "" {
		return key, nil
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return key, nil
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil && creds.LLMAPIKey != "" {
		return creds.LLMAPIKey, nil
	}

	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nLLM API key not found.")
		return cm.promptForAPIKey()
	}

	return "", apperrors.ConfigErrorf(
		"LLM API key not found. Set it via:\n"+
			"  1. environment variable: export FORGE_LLM_API_KEY=...\n"+
			"  2. the OS keychain entry forge reads the key from\n"+
			"  3. config file: %s", cm.configPath)
}

// GetGitHubToken retrieves the GitHub token. It is optional — public
// repositories survey fine without one, just at a lower rate limit.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			return token, nil
		}
	}

	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return token, nil
		}
	}

	if creds, err := cm.loadConfigFile(); err == nil && creds.GitHubToken != "" {
		return creds.GitHubToken, nil
	}

	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Println("\nGitHub token not found (optional).")
		fmt.Println("Required for: private repos, higher rate limits")
		fmt.Print("Enter GitHub token (or press Enter to skip): ")

		token, _ := cm.readSecurely()
		if token != "" {
			if cm.keyring.IsAvailable() {
				cm.keyring.SetGitHubToken(token)
			}
			return token, nil
		}
		return "", nil
	}

	return "", nil
}

func (cm *CredentialManager) SaveCredentials(creds Credentials) error {
	if cm.keyring.IsAvailable() {
		if creds.LLMAPIKey != "" {
			if err := cm.keyring.SetAPIKey(creds.LLMAPIKey); err != nil {
				return apperrors.Wrap(err, apperrors.TypeConfig, "KeychainSave", apperrors.SeverityHigh, "failed to save LLM api key to keychain")
			}
		}
		if creds.GitHubToken != "" {
			if err := cm.keyring.SetGitHubToken(creds.GitHubToken); err != nil {
				return apperrors.Wrap(err, apperrors.TypeConfig, "KeychainSave", apperrors.SeverityHigh, "failed to save GitHub token to keychain")
			}
		}
		return nil
	}

	return cm.saveConfigFile(creds)
}

func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *CredentialManager) saveConfigFile(creds Credentials) error {
	dir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(cm.configPath, data, 0600)
}

func (cm *CredentialManager) promptForAPIKey() (string, error) {
	fmt.Print("Enter LLM API key: ")
	key, err := cm.readSecurely()
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", apperrors.ConfigError("LLM api key is required")
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SetAPIKey(key); err == nil {
			fmt.Println("saved to keychain")
		}
	} else {
		creds := Credentials{LLMAPIKey: key}
		if err := cm.saveConfigFile(creds); err == nil {
			fmt.Printf("saved to %s\n", cm.configPath)
		}
	}

	return key, nil
}

func (cm *CredentialManager) readSecurely() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func isInteractive() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

func (cm *CredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

func (cm *CredentialManager) GetConfigPath() string {
	return cm.configPath
}

// HasCredentials reports whether an LLM API key is configured anywhere in
// the priority chain.
func (cm *CredentialManager) HasCredentials() bool {
	if os.Getenv("FORGE_LLM_API_KEY") != "" {
		return true
	}
	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return true
		}
	}
	if creds, err := cm.loadConfigFile(); err == nil && creds.LLMAPIKey != "" {
		return true
	}
	return false
}
