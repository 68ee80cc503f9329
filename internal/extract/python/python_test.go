package python

import (
	"testing"

	"github.com/forgekit-dev/forge/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePyproject_NameAndFramework(t *testing.T) {
	content := []byte(`
[project]
name = "fraud-service"
dependencies = ["fastapi>=0.100", "boto3"]
`)
	events, err := parsePyproject("fraud/pyproject.toml", content)
	require.NoError(t, err)
	require.Len(t, events, 1)
	svc := events[0].Service
	assert.Equal(t, "fraud-service", svc.Name)
	assert.Equal(t, "python", svc.Language)
	assert.Equal(t, "fastapi", svc.Framework)
}

func TestParsePyproject_NameFallsBackToDirectory(t *testing.T) {
	events, err := parsePyproject("services/ingest/pyproject.toml", []byte(`[project]`))
	require.NoError(t, err)
	assert.Equal(t, "ingest", events[0].Service.Name)
}

func TestParseRequirements_FrameworkDetection(t *testing.T) {
	content := []byte("flask==2.0\nrequests==2.31\n# comment\n\nboto3\n")
	events, err := parseRequirements("billing/requirements.txt", content)
	require.NoError(t, err)
	assert.Equal(t, "billing", events[0].Service.Name)
	assert.Equal(t, "flask", events[0].Service.Framework)
}

func TestDetectFramework_NoMatch(t *testing.T) {
	assert.Equal(t, "", detectFramework([]string{"boto3", "requests"}))
}

func TestExtractor_Supports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports("handler.py"))
	assert.True(t, e.Supports("pyproject.toml"))
	assert.True(t, e.Supports("requirements.txt"))
	assert.False(t, e.Supports("main.go"))
}

func TestExtractor_Source(t *testing.T) {
	assert.Equal(t, discovery.SourcePythonParser, New().Source())
}

func TestDynamoOpMap(t *testing.T) {
	op, ok := dynamoOpMap["put_item"]
	require.True(t, ok)
	assert.Equal(t, discovery.DBWrite, op)
}

func TestStripStringPrefix(t *testing.T) {
	assert.Equal(t, `"hello"`, stripStringPrefix(`f"hello"`))
}
