package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"
)

var ErrInvalidClassification = errors.New("invalid classification")

type Classifier struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewClassifier(provider llm.LLMProvider, logger logger.ILogger) *Classifier {
	return &Classifier{llm: provider, logger: logger}
}

// Classify routes a turn. Errors are fatal to the turn: there is no safe default route.
func (c *Classifier) Classify(ctx context.Context, history []llm.Message, query string) (turn.ClassifierOutput, error) {
	var out turn.ClassifierOutput

	userContent := fmt.Sprintf(
		"<conversation_history>\n%s\n</conversation_history>\n<user_query>\n%s\n</user_query>",
		turn.FormatHistory(history), query,
	)
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userContent},
	}

	resp, err := c.llm.Chat(ctx, messages, llm.WithTemperature(0), llm.WithJSONResponse())
	if err != nil {
		return out, fmt.Errorf("classify: %w", err)
	}
	if err := llm.DecodeJSON(resp, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	applyClarificationPolicy(&out, query)

	if err := validate(out); err != nil {
		return out, err
	}

	c.logger.Debug("CLASSIFIER", "Query classified", map[string]interface{}{
		"skip_search":         out.Classification.SkipSearch,
		"personal_search":     out.Classification.PersonalSearch,
		"needs_clarification": out.WantsClarification(),
		"standalone":          out.StandaloneFollowUp,
	})
	return out, nil
}

// applyClarificationPolicy enforces the short-and-vague rule on top of the
// model's answer: qualifiers always clear the flag, and an omitted flag is
// derived from the query.
func applyClarificationPolicy(out *turn.ClassifierOutput, query string) {
	if out.Classification.SkipSearch {
		return
	}

	if HasQualifier(query) {
		f := false
		out.Classification.NeedsClarification = &f
		out.ClarifyingQuestion = ""
		return
	}

	// A vague query always asks, whatever the model answered.
	if NeedsClarification(query) {
		v := true
		out.Classification.NeedsClarification = &v
		if strings.TrimSpace(out.ClarifyingQuestion) == "" {
			out.ClarifyingQuestion = defaultClarifyingQuestion
		}
		return
	}
	if out.Classification.NeedsClarification == nil {
		v := false
		out.Classification.NeedsClarification = &v
	}
}

func validate(out turn.ClassifierOutput) error {
	if strings.TrimSpace(out.StandaloneFollowUp) == "" {
		return fmt.Errorf("%w: empty standaloneFollowUp", ErrInvalidClassification)
	}
	if out.WantsClarification() && strings.TrimSpace(out.ClarifyingQuestion) == "" {
		return fmt.Errorf("%w: needsClarification without clarifyingQuestion", ErrInvalidClassification)
	}
	return nil
}
