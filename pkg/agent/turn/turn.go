// Package turn holds the per-turn inputs shared by the classifier, the
// research actions and the orchestrator.
package turn

import (
	"slices"
	"strings"

	"desirefinder-be/pkg/llm"
)

type Mode string

const (
	ModeSpeed    Mode = "speed"
	ModeBalanced Mode = "balanced"
	ModeQuality  Mode = "quality"
)

// ParseMode falls back to balanced for unknown values.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSpeed:
		return ModeSpeed
	case ModeQuality:
		return ModeQuality
	default:
		return ModeBalanced
	}
}

// Iterations bounds how many rounds of query generation a search action may run.
func (m Mode) Iterations() int {
	switch m {
	case ModeSpeed:
		return 1
	case ModeQuality:
		return 3
	default:
		return 2
	}
}

const (
	SourceShopping          = "shopping"
	SourcePersonalDocuments = "personal-documents"
)

type Config struct {
	Sources            []string
	Mode               Mode
	SystemInstructions string
	// FileIDs are the user's uploaded documents available to personal search.
	FileIDs []string
}

func (c Config) HasSource(source string) bool {
	return slices.Contains(c.Sources, source)
}

type Classification struct {
	SkipSearch         bool  `json:"skipSearch"`
	PersonalSearch     bool  `json:"personalSearch"`
	NeedsClarification *bool `json:"needsClarification,omitempty"`
}

type ClassifierOutput struct {
	Classification     Classification `json:"classification"`
	StandaloneFollowUp string         `json:"standaloneFollowUp"`
	ClarifyingQuestion string         `json:"clarifyingQuestion,omitempty"`
}

func (o ClassifierOutput) WantsClarification() bool {
	return o.Classification.NeedsClarification != nil && *o.Classification.NeedsClarification
}

// Input is everything one turn needs from the caller.
type Input struct {
	ChatID   string
	MsgID    string
	UserID   string
	History  []llm.Message
	FollowUp string
	Config   Config
}

// FormatHistory renders the conversation the way the prompts expect it.
func FormatHistory(history []llm.Message) string {
	var sb strings.Builder
	for _, m := range history {
		role := "User"
		if m.Role == "assistant" || m.Role == "model" {
			role = "AI"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
