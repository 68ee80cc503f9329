package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_SurveyWithNoTokenWarnsNotErrors(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = ""

	result := cfg.Validate(ValidationContextSurvey)
	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidate_MapRequiresSnapshotPath(t *testing.T) {
	cfg := Default()
	cfg.Graph.SnapshotPath = ""

	result := cfg.Validate(ValidationContextMap)
	assert.True(t, result.HasErrors())
}

func TestValidate_UnknownLLMProviderErrors(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "bogus"

	result := cfg.Validate(ValidationContextAll)
	assert.True(t, result.HasErrors())
}

func TestValidate_MinRelevanceOutOfRangeErrors(t *testing.T) {
	cfg := Default()
	cfg.Survey.MinRelevance = 1.5

	result := cfg.Validate(ValidationContextSurvey)
	assert.True(t, result.HasErrors())
}

func TestValidationResult_ErrorFormatsErrorsAndWarnings(t *testing.T) {
	result := &ValidationResult{Valid: true}
	result.AddWarning("heads up")
	result.AddError("broken: %s", "reason")

	assert.True(t, result.HasErrors())
	msg := result.Error()
	assert.Contains(t, msg, "broken: reason")
	assert.Contains(t, msg, "heads up")
}
