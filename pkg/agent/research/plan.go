package research

import (
	"context"
	"strings"

	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"

	"github.com/google/uuid"
)

const PlanName = "plan"

type PlanInput struct {
	Goal string `validate:"required"`
}

// NewPlan records a short reasoning step before the searches report back.
func NewPlan(provider llm.LLMProvider) Action {
	return Action{
		Name:        PlanName,
		Description: "Think through what to search for.",
		Enabled: func(cfg turn.Config, cls turn.ClassifierOutput) bool {
			return cfg.Mode != turn.ModeSpeed && !cls.Classification.SkipSearch
		},
		Input: func(_ context.Context, rc *Context) (interface{}, error) {
			goal := rc.Classification.StandaloneFollowUp
			if goal == "" {
				goal = rc.FollowUp
			}
			return &PlanInput{Goal: goal}, nil
		},
		Execute: func(ctx context.Context, input interface{}, rc *Context) (Result, error) {
			in := input.(*PlanInput)
			reasoning, err := provider.Chat(ctx, []llm.Message{
				{Role: "system", Content: planPrompt},
				{Role: "user", Content: in.Goal},
			}, llm.WithTemperature(0.3), llm.WithMaxTokens(300))
			if err != nil {
				return Result{}, err
			}

			err = rc.Session.UpsertSubStep(rc.ResearchBlockID, session.SubStep{
				ID:        uuid.NewString(),
				Type:      session.SubStepReasoning,
				Reasoning: strings.TrimSpace(reasoning),
			})
			return Result{Type: "reasoning"}, err
		},
	}
}

const DoneName = "done"

// NewDone marks the end of research. It does nothing else.
func NewDone() Action {
	return Action{
		Name:        DoneName,
		Description: "Finish research.",
		Enabled:     func(turn.Config, turn.ClassifierOutput) bool { return true },
		Input:       func(context.Context, *Context) (interface{}, error) { return nil, nil },
		Execute: func(context.Context, interface{}, *Context) (Result, error) {
			return Result{Type: "done"}, nil
		},
	}
}
