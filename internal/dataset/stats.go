package dataset

import "unicode/utf8"

// TokenStats summarizes the approximate token footprint of a dataset.
type TokenStats struct {
	TotalExamples       int     `json:"total_examples"`
	TotalTokens         int     `json:"total_tokens"`
	UserTokens          int     `json:"user_tokens"`
	AssistantTokens     int     `json:"assistant_tokens"`
	AvgTokensPerExample float64 `json:"avg_tokens_per_example"`
	AvgUserTokens       float64 `json:"avg_user_tokens"`
	AvgAssistantTokens  float64 `json:"avg_assistant_tokens"`
}

// EstimateTokens approximates the subword token count of text. Modern BPE
// vocabularies average roughly four characters per token on English prose;
// this is close enough for cost estimates and outlier detection.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := (utf8.RuneCountInString(text) + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// CalculateTokenStats estimates per-role and total token counts across
// examples.
func CalculateTokenStats(examples []Example) TokenStats {
	stats := TokenStats{TotalExamples: len(examples)}
	for _, ex := range examples {
		for _, msg := range ex.Messages {
			tokens := EstimateTokens(msg.Content)
			stats.TotalTokens += tokens
			switch msg.Role {
			case "user":
				stats.UserTokens += tokens
			case "assistant":
				stats.AssistantTokens += tokens
			}
		}
	}
	if len(examples) > 0 {
		n := float64(len(examples))
		stats.AvgTokensPerExample = float64(stats.TotalTokens) / n
		stats.AvgUserTokens = float64(stats.UserTokens) / n
		stats.AvgAssistantTokens = float64(stats.AssistantTokens) / n
	}
	return stats
}
