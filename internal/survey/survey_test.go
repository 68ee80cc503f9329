package survey

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRepo(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	content := []byte(`{"name": "` + name + `", "dependencies": {"express": "^4.0.0"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), content, 0o644))
	return dir
}

func TestRun_MergesMultipleTargetsIntoOneGraph(t *testing.T) {
	repoA := writeRepo(t, "checkout")
	repoB := writeRepo(t, "fraud")

	result, err := Run(context.Background(), Config{
		Targets: []Target{
			{Namespace: "acme/checkout", RepoPath: repoA},
			{Namespace: "acme/fraud", RepoPath: repoB},
		},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	services := result.Graph.NodesByKind(graphmodel.KindService)
	assert.Len(t, services, 2)
	assert.Empty(t, result.PerTarget["acme/checkout"])
	assert.Empty(t, result.PerTarget["acme/fraud"])
}

func TestRun_EmptyTargetsYieldsEmptyGraph(t *testing.T) {
	result, err := Run(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Graph.NodeCount())
}
