package openrouter

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to code cut off at the character ceiling.
const TruncationMarker = "\n\n[... code truncated ...]"

// TruncateCode cuts code at limit bytes and appends the truncation marker
// when anything was removed. The cut backs up to a rune boundary so the
// prompt never carries a split multi-byte character.
func TruncateCode(code string, limit int) string {
	if limit <= 0 || len(code) <= limit {
		return code
	}
	for limit > 0 && !utf8.RuneStart(code[limit]) {
		limit--
	}
	return code[:limit] + TruncationMarker
}

// BuildEvaluationPrompt formats the grading prompt for a submission.
// Pure string formatting; codeLimit bounds the embedded code.
func BuildEvaluationPrompt(title, description, code, language string, codeLimit int) string {
	var b strings.Builder

	b.WriteString("You are a strict senior software engineer grading a coding task submission.\n\n")
	b.WriteString("Task title: " + title + "\n")
	b.WriteString("Task description: " + description + "\n")
	if language != "" {
		b.WriteString("Language: " + language + "\n")
	}
	if code != "" {
		b.WriteString("\nSubmitted code:\n")
		b.WriteString(TruncateCode(code, codeLimit))
		b.WriteString("\n")
	}

	b.WriteString(`
Grade the submission against these criteria:
1. Correctness: does the code solve the described task?
2. Readability: naming, structure, and clarity.
3. Robustness: error handling and edge cases.
4. Efficiency: algorithmic and resource usage.
5. Idiomatic style for the stated language.

Respond with ONLY a JSON object, no prose, no markdown, matching exactly:
{
  "score": <number between 1 and 10>,
  "strengths": ["..."],
  "improvements": ["..."],
  "feedback": "<overall assessment>",
  "suggestions": ["..."]
}`)

	return b.String()
}

// BuildInsightsPrompt formats the premium deep-analysis prompt for a
// submission. The response schema mirrors models.PremiumInsights.
func BuildInsightsPrompt(title, description, code, language string, codeLimit int) string {
	var b strings.Builder

	b.WriteString("You are a principal engineer producing a deep review of a coding task submission.\n\n")
	b.WriteString("Task title: " + title + "\n")
	b.WriteString("Task description: " + description + "\n")
	if language != "" {
		b.WriteString("Language: " + language + "\n")
	}
	if code != "" {
		b.WriteString("\nSubmitted code:\n")
		b.WriteString(TruncateCode(code, codeLimit))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf(`
Analyze architecture, performance, and security in depth.

Respond with ONLY a JSON object, no prose, no markdown, matching exactly:
{
  "architecture": "<analysis of structure and design>",
  "performance": "<analysis of runtime behavior>",
  "security": "<analysis of vulnerabilities and hardening>",
  "benchmarks": {"quality": <0-100>, "maintainability": <0-100>, "efficiency": <0-100>},
  "recommendations": ["..."],
  "correctedCode": "<full corrected %s source as a single JSON string>"
}`, languageOrDefault(language)))

	return b.String()
}

func languageOrDefault(language string) string {
	if language == "" {
		return "code"
	}
	return language
}
