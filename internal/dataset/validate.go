package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
)

var requiredAnalysisFields = []string{"chunks", "pos_tags", "grammatical_roles"}

// ValidateExamples checks the structural contract every training example must
// satisfy: exactly one user and one assistant message, both non-empty, with
// the assistant content parseable as JSON carrying the three analysis fields.
// It returns one diagnostic per problem; an empty slice means the data is
// valid.
func ValidateExamples(examples []Example) []string {
	var diags []string
	for i, ex := range examples {
		if len(ex.Messages) != 2 {
			diags = append(diags, fmt.Sprintf("example %d: want 2 messages, have %d", i, len(ex.Messages)))
			continue
		}
		user, assistant := ex.Messages[0], ex.Messages[1]
		if user.Role != "user" {
			diags = append(diags, fmt.Sprintf("example %d: first message role is %q, want user", i, user.Role))
		}
		if assistant.Role != "assistant" {
			diags = append(diags, fmt.Sprintf("example %d: second message role is %q, want assistant", i, assistant.Role))
		}
		if strings.TrimSpace(user.Content) == "" {
			diags = append(diags, fmt.Sprintf("example %d: empty user content", i))
		}
		if strings.TrimSpace(assistant.Content) == "" {
			diags = append(diags, fmt.Sprintf("example %d: empty assistant content", i))
			continue
		}

		var analysis map[string]json.RawMessage
		if err := json.Unmarshal([]byte(assistant.Content), &analysis); err != nil {
			diags = append(diags, fmt.Sprintf("example %d: assistant content is not valid JSON: %v", i, err))
			continue
		}
		for _, field := range requiredAnalysisFields {
			if _, ok := analysis[field]; !ok {
				diags = append(diags, fmt.Sprintf("example %d: assistant content missing %q", i, field))
			}
		}
	}
	return diags
}
