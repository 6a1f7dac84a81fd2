package models

// Evaluation is the structured result persisted on a task once an
// evaluation run completes. Score is always within [1, 10].
type Evaluation struct {
	Score        float64          `json:"score"`
	Strengths    []string         `json:"strengths"`
	Improvements []string         `json:"improvements"`
	Feedback     string           `json:"feedback"`
	Suggestions  []string         `json:"suggestions"`
	Model        string           `json:"model,omitempty"`
	Insights     *PremiumInsights `json:"premiumInsights,omitempty"`
}

// PremiumInsights is the paid tier of the report. It is produced by a
// second model call and omitted entirely when that call fails.
type PremiumInsights struct {
	Architecture    string     `json:"architecture"`
	Performance     string     `json:"performance"`
	Security        string     `json:"security"`
	Benchmarks      Benchmarks `json:"benchmarks"`
	Recommendations []string   `json:"recommendations"`
	CorrectedCode   string     `json:"correctedCode"`
}

// Benchmarks holds percentage scores in [0, 100].
type Benchmarks struct {
	Quality         float64 `json:"quality"`
	Maintainability float64 `json:"maintainability"`
	Efficiency      float64 `json:"efficiency"`
}

// ClampScore forces a model-reported score into the valid [1, 10] range.
func ClampScore(score float64) float64 {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
