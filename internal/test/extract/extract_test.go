package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecritic-backend/internal/extract"
)

type grading struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

func TestParse_CleanJSON(t *testing.T) {
	var g grading
	tag, err := extract.Parse(`{"score": 7, "feedback": "solid"}`, &g)

	require.NoError(t, err)
	assert.Equal(t, extract.TagDirect, tag)
	assert.Equal(t, 7.0, g.Score)
	assert.Equal(t, "solid", g.Feedback)
}

func TestParse_NoiseRecoversSameObject(t *testing.T) {
	clean := `{"score": 7, "feedback": "solid"}`

	noisy := []struct {
		name  string
		input string
	}{
		{"json fence", "```json\n" + clean + "\n```"},
		{"bare fence", "```\n" + clean + "\n```"},
		{"leading prose", "Here is the evaluation you asked for:\n" + clean},
		{"trailing prose", clean + "\nLet me know if you need more detail."},
		{"prose both sides", "Sure!\n" + clean + "\nHope that helps."},
		{"backtick wrapped", "`" + clean + "`"},
		{"fence inside prose", "The result is:\n```json\n" + clean + "\n```\nThanks!"},
	}

	var want grading
	_, err := extract.Parse(clean, &want)
	require.NoError(t, err)

	for _, tt := range noisy {
		t.Run(tt.name, func(t *testing.T) {
			var got grading
			tag, err := extract.Parse(tt.input, &got)

			require.NoError(t, err)
			assert.Equal(t, extract.TagExtracted, tag)
			assert.Equal(t, want, got)
		})
	}
}

func TestParse_NestedObject(t *testing.T) {
	var v struct {
		Outer struct {
			Inner string `json:"inner"`
		} `json:"outer"`
	}
	tag, err := extract.Parse(`Result: {"outer": {"inner": "value"}} done`, &v)

	require.NoError(t, err)
	assert.Equal(t, extract.TagExtracted, tag)
	assert.Equal(t, "value", v.Outer.Inner)
}

func TestParse_FenceFallbackWhenBracesUnbalanced(t *testing.T) {
	// The prose contains a stray "{" so brace counting never balances;
	// the fenced block still carries the full object.
	input := "score was { left open\n```json\n{\"score\": 8, \"feedback\": \"ok\"}\n```"

	var g grading
	tag, err := extract.Parse(input, &g)

	require.NoError(t, err)
	assert.Equal(t, extract.TagExtracted, tag)
	assert.Equal(t, 8.0, g.Score)
}

func TestParse_BacktickDelimitedValue(t *testing.T) {
	input := "{\"feedback\": \"fine\", \"correctedCode\": `func main() {\n\tprintln(\"hi\")\n}`}"

	var v struct {
		Feedback      string `json:"feedback"`
		CorrectedCode string `json:"correctedCode"`
	}
	tag, err := extract.Parse(input, &v)

	require.NoError(t, err)
	assert.Equal(t, extract.TagDirect, tag)
	assert.Contains(t, v.CorrectedCode, "println(\"hi\")")
	assert.Contains(t, v.CorrectedCode, "func main() {")
}

func TestParse_BacktickInsideStringValueSurvives(t *testing.T) {
	// A colon followed by a backticked span inside a quoted value must not
	// trigger the backtick-value rewrite; clean JSON parses untouched.
	input := "{\"score\": 7, \"feedback\": \"Consider this: `errors.Is` for comparisons\"}"

	var g grading
	tag, err := extract.Parse(input, &g)

	require.NoError(t, err)
	assert.Equal(t, extract.TagDirect, tag)
	assert.Equal(t, "Consider this: `errors.Is` for comparisons", g.Feedback)
}

func TestParse_NoObject(t *testing.T) {
	var g grading

	_, err := extract.Parse("I could not produce a grading for this task.", &g)
	assert.Error(t, err)

	_, err = extract.Parse("", &g)
	assert.ErrorIs(t, err, extract.ErrNoObject)
}

func TestParse_TruncatedObject(t *testing.T) {
	var g grading
	tag, err := extract.Parse(`{"score": 7, "feedback": "cut off`, &g)

	assert.Error(t, err)
	assert.Equal(t, extract.TagFailed, tag)
}

func TestBalancedObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", `{"a": 1}`, `{"a": 1}`},
		{"with preamble", `text {"a": 1}`, `{"a": 1}`},
		{"with postamble", `{"a": 1} text`, `{"a": 1}`},
		{"nested", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"deeply nested", `{"a":{"b":{"c":{"d":1}}}}`, `{"a":{"b":{"c":{"d":1}}}}`},
		{"unbalanced", `{"a": 1`, ""},
		{"no object", "plain text", ""},
		{"first of two", `{"a": 1} {"b": 2}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extract.BalancedObject(tt.input))
		})
	}
}

func TestFencedBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"unclosed fence", "```json\n{\"a\": 1}", ""},
		{"no fence", `{"a": 1}`, ""},
		{"fence with prose around", "before\n```json\n{\"a\": 1}\n```\nafter", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extract.FencedBlock(tt.input))
		})
	}
}

func TestSanitize_RemovesFencesAndBackticks(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extract.Sanitize("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": "b"}`, extract.Sanitize("{\"a\": \"`b`\"}"))
}

func TestSanitize_RewritesBacktickValues(t *testing.T) {
	input := "{\"code\": `line one\nline two`}"
	sanitized := extract.Sanitize(input)

	assert.NotContains(t, sanitized, "`")
	assert.Contains(t, sanitized, `"line one\nline two"`)
}

func TestSanitize_ColonInsideStringNotRewritten(t *testing.T) {
	// The backtick rewrite only applies in value position; a colon inside
	// a quoted string must not start one.
	input := "{\"feedback\": \"note: `x` and `y`\", \"code\": `a\nb`}"
	sanitized := extract.Sanitize(input)

	assert.Contains(t, sanitized, `"note: x and y"`)
	assert.Contains(t, sanitized, `"a\nb"`)
}
