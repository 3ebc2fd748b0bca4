package orchestrator

import (
	"context"
	"time"

	"desirefinder-be/pkg/agent/research"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"
)

type Classifier interface {
	Classify(ctx context.Context, history []llm.Message, query string) (turn.ClassifierOutput, error)
}

type Researcher interface {
	Research(ctx context.Context, rc *research.Context) research.Output
}

// TurnRecord identifies the stored message a turn writes its answer to.
type TurnRecord struct {
	ChatID    string
	MsgID     string
	SessionID string
	UserID    string
	Query     string
}

// TurnStore persists the turn. BeginTurn creates the message or, when it
// already exists, resets it and drops every later message in the chat.
type TurnStore interface {
	BeginTurn(ctx context.Context, rec TurnRecord) error
	CompleteTurn(ctx context.Context, msgID string, blocks []session.Block) error
	FailTurn(ctx context.Context, msgID string, blocks []session.Block) error
}

type HistoryRecorder interface {
	RecordSearch(ctx context.Context, userID, query string, sources []string) error
}

type TurnCompleted struct {
	ChatID    string    `json:"chatId"`
	MsgID     string    `json:"messageId"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Findings  int       `json:"findings"`
	Blocks    int       `json:"blocks"`
	At        time.Time `json:"at"`
}

type EventPublisher interface {
	PublishTurnCompleted(ctx context.Context, ev TurnCompleted) error
}

type WidgetInput struct {
	Classification turn.ClassifierOutput
	History        []llm.Message
	FollowUp       string
}

// WidgetOutput is shown to the user as its own block. LLMContext is what the
// writer may use from it; it is never cited.
type WidgetOutput struct {
	Type       string
	Params     interface{}
	LLMContext string
}

type WidgetRunner interface {
	RunWidgets(ctx context.Context, in WidgetInput) ([]WidgetOutput, error)
}

// Observer receives turn outcomes, typically for metrics.
type Observer interface {
	TurnFinished(final State, failedIn State, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) TurnFinished(State, State, time.Duration) {}
