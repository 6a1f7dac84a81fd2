package openrouter_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"codecritic-backend/internal/openrouter"
)

func TestTruncateCode_UnderLimit(t *testing.T) {
	code := "package main"
	assert.Equal(t, code, openrouter.TruncateCode(code, 8000))
}

func TestTruncateCode_OverLimit(t *testing.T) {
	code := strings.Repeat("x", 50000)
	truncated := openrouter.TruncateCode(code, 8000)

	assert.True(t, strings.HasSuffix(truncated, openrouter.TruncationMarker))
	assert.Len(t, truncated, 8000+len(openrouter.TruncationMarker))
}

func TestTruncateCode_ExactLimit(t *testing.T) {
	code := strings.Repeat("x", 8000)
	assert.Equal(t, code, openrouter.TruncateCode(code, 8000))
}

func TestTruncateCode_RuneBoundary(t *testing.T) {
	// Each rune is 3 bytes; a cut at byte 5 lands mid-rune and must back
	// up so the result stays valid UTF-8.
	code := strings.Repeat("日", 4)
	truncated := openrouter.TruncateCode(code, 5)

	assert.True(t, utf8.ValidString(truncated))
	assert.Equal(t, "日"+openrouter.TruncationMarker, truncated)
}

func TestBuildEvaluationPrompt(t *testing.T) {
	prompt := openrouter.BuildEvaluationPrompt(
		"Reverse a list", "Write a function that reverses a linked list.",
		"def reverse(l): ...", "python", 8000)

	assert.Contains(t, prompt, "Reverse a list")
	assert.Contains(t, prompt, "reverses a linked list")
	assert.Contains(t, prompt, "python")
	assert.Contains(t, prompt, "def reverse(l)")
	assert.Contains(t, prompt, `"score"`)
	assert.Contains(t, prompt, `"strengths"`)
	assert.Contains(t, prompt, `"improvements"`)
	assert.Contains(t, prompt, `"feedback"`)
	assert.Contains(t, prompt, `"suggestions"`)
	assert.Contains(t, prompt, "ONLY a JSON object")
}

func TestBuildEvaluationPrompt_NoCodeNoLanguage(t *testing.T) {
	prompt := openrouter.BuildEvaluationPrompt("Title", "Description", "", "", 8000)

	assert.NotContains(t, prompt, "Language:")
	assert.NotContains(t, prompt, "Submitted code:")
}

func TestBuildEvaluationPrompt_TruncatesCode(t *testing.T) {
	code := strings.Repeat("y", 20000)
	prompt := openrouter.BuildEvaluationPrompt("Title", "Description", code, "go", 8000)

	assert.Contains(t, prompt, openrouter.TruncationMarker)
	assert.NotContains(t, prompt, strings.Repeat("y", 8001))
}

func TestBuildInsightsPrompt(t *testing.T) {
	prompt := openrouter.BuildInsightsPrompt("Title", "Description", "code", "go", 8000)

	assert.Contains(t, prompt, `"architecture"`)
	assert.Contains(t, prompt, `"performance"`)
	assert.Contains(t, prompt, `"security"`)
	assert.Contains(t, prompt, `"benchmarks"`)
	assert.Contains(t, prompt, `"recommendations"`)
	assert.Contains(t, prompt, `"correctedCode"`)
	assert.Contains(t, prompt, "ONLY a JSON object")
}
