package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name under which forge stores
	// credentials in the OS keychain.
	KeyringService = "forge"

	KeyringAPIKeyItem      = "llm-api-key"
	KeyringGitHubTokenItem = "github-token"
)

// KeyringManager stores credentials in the OS-native secret store
// (Keychain on macOS, Credential Manager on Windows, Secret Service on
// Linux), falling back to plaintext config only when unavailable.
type KeyringManager struct {
	logger *slog.Logger
}

func NewKeyringManager() *KeyringManager {
	return &KeyringManager{logger: slog.Default().With("component", "keyring")}
}

func (km *KeyringManager) SaveAPIKey(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringAPIKeyItem, apiKey); err != nil {
		km.logger.Error("failed to save llm api key to keychain", "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.Info("llm api key saved to keychain", "service", KeyringService)
	return nil
}

func (km *KeyringManager) GetAPIKey() (string, error) {
	apiKey, err := keyring.Get(KeyringService, KeyringAPIKeyItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to get llm api key from keychain", "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return apiKey, nil
}

func (km *KeyringManager) DeleteAPIKey() error {
	if err := keyring.Delete(KeyringService, KeyringAPIKeyItem); err != nil && err != keyring.ErrNotFound {
		km.logger.Error("failed to delete llm api key from keychain", "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

func (km *KeyringManager) SetAPIKey(apiKey string) error {
	return km.SaveAPIKey(apiKey)
}

func (km *KeyringManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringGitHubTokenItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to get github token from keychain", "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return token, nil
}

func (km *KeyringManager) SetGitHubToken(token string) error {
	if token == "" {
		return fmt.Errorf("github token cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringGitHubTokenItem, token); err != nil {
		km.logger.Error("failed to save github token to keychain", "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	return nil
}

func (km *KeyringManager) DeleteGitHubToken() error {
	if err := keyring.Delete(KeyringService, KeyringGitHubTokenItem); err != nil && err != keyring.ErrNotFound {
		km.logger.Error("failed to delete github token from keychain", "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// IsAvailable probes the OS keychain, returning false on headless systems
// (CI) where no secret service is reachable.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.Debug("keychain not available", "error", err)
		return false
	}
	return true
}

// KeySourceInfo describes where a credential is actually coming from, for
// `forge config show`-style diagnostics.
type KeySourceInfo struct {
	Source      string // "keychain", "config", "env", "env_file", "none"
	Secure      bool
	Recommended string
}

func (km *KeyringManager) GetAPIKeySource(cfg *Config) KeySourceInfo {
	if os.Getenv("FORGE_LLM_API_KEY") != "" {
		return KeySourceInfo{Source: "env", Secure: true, Recommended: "using environment variable (fine for CI)"}
	}

	if km.IsAvailable() {
		if key, err := km.GetAPIKey(); err == nil && key != "" {
			return KeySourceInfo{Source: "keychain", Secure: true, Recommended: "stored securely in the OS keychain"}
		}
	}

	if cfg.LLM.APIKey != "" {
		return KeySourceInfo{Source: "config", Secure: false, Recommended: "plaintext config value; consider storing it in the OS keychain"}
	}

	return KeySourceInfo{Source: "none", Secure: false, Recommended: "no LLM API key configured; set FORGE_LLM_API_KEY or store it in the OS keychain"}
}

// MaskAPIKey shows only the first 7 and last 4 characters of a secret.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}
