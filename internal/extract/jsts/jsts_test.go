package jsts

import (
	"testing"

	"github.com/forgekit-dev/forge/internal/discovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageJSON_LanguageInferredFromTypesDep(t *testing.T) {
	content := []byte(`{
		"name": "checkout-api",
		"dependencies": {"express": "^4.0.0"},
		"devDependencies": {"@types/node": "^20.0.0"}
	}`)
	events, err := parsePackageJSON("checkout/package.json", content)
	require.NoError(t, err)
	require.Len(t, events, 1)
	svc := events[0].Service
	require.NotNil(t, svc)
	assert.Equal(t, "checkout-api", svc.Name)
	assert.Equal(t, "typescript", svc.Language)
	assert.Equal(t, "express", svc.Framework)
}

func TestParsePackageJSON_PlainJavaScript(t *testing.T) {
	content := []byte(`{"name": "worker", "dependencies": {"lodash": "^4.0.0"}}`)
	events, err := parsePackageJSON("worker/package.json", content)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "javascript", events[0].Service.Language)
	assert.Empty(t, events[0].Service.Framework)
}

func TestParsePackageJSON_NameFallsBackToDirectory(t *testing.T) {
	events, err := parsePackageJSON("services/billing/package.json", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "billing", events[0].Service.Name)
}

func TestExtractor_Supports(t *testing.T) {
	e := New()
	assert.True(t, e.Supports("src/index.ts"))
	assert.True(t, e.Supports("pkg/package.json"))
	assert.True(t, e.Supports("app.jsx"))
	assert.False(t, e.Supports("main.go"))
}

func TestExtractor_Source(t *testing.T) {
	assert.Equal(t, discovery.SourceJavaScriptParser, New().Source())
}

func TestObjectLiteralField_MissingKeyReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", objectLiteralField(nil, nil, "TableName"))
}

func TestDynamoCommandOps_KnownMapping(t *testing.T) {
	op, ok := dynamoCommandOps["PutCommand"]
	require.True(t, ok)
	assert.Equal(t, discovery.DBWrite, op)
}
