package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/config"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default .forge/config.yaml",
		Long: `init writes forge's default configuration file. It makes no network
calls; edit the result to point at a GitHub token, cache root, or LLM
provider before running "forge survey".`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := ".forge"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.PersistenceIO(err, dir)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, leaving it untouched\n", path)
		return nil
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return apperrors.Serialization(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.PersistenceIO(err, path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
