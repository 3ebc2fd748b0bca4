// Package orchestrator drives one chat turn: classify, research, assemble
// context, stream the answer and persist the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/agent/research"
	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("desirefinder-be/pkg/agent/orchestrator")

var ErrEmptyAnswer = errors.New("answer stream produced no text")

type Orchestrator struct {
	classifier Classifier
	researcher Researcher
	writer     llm.LLMProvider
	store      TurnStore
	history    HistoryRecorder
	events     EventPublisher
	widgets    WidgetRunner
	observer   Observer
	logger     logger.ILogger
}

type Option func(*Orchestrator)

func WithHistoryRecorder(h HistoryRecorder) Option {
	return func(o *Orchestrator) { o.history = h }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

func WithWidgets(w WidgetRunner) Option {
	return func(o *Orchestrator) { o.widgets = w }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func New(
	classifier Classifier,
	researcher Researcher,
	writer llm.LLMProvider,
	store TurnStore,
	logger logger.ILogger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		researcher: researcher,
		writer:     writer,
		store:      store,
		observer:   nopObserver{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// turnRun is the mutable state of a single Run call.
type turnRun struct {
	o        *Orchestrator
	sess     *session.Session
	in       turn.Input
	state    State
	failedIn State
	findings int
}

// Run executes the turn to a terminal state. The session always receives
// exactly one terminal event; the returned error is the failure cause, if any.
func (o *Orchestrator) Run(ctx context.Context, sess *session.Session, in turn.Input) error {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "orchestrator.Run", trace.WithAttributes(
		attribute.String("session.id", sess.ID()),
		attribute.String("chat.id", in.ChatID),
		attribute.String("turn.mode", string(in.Config.Mode)),
	))
	defer span.End()

	r := &turnRun{o: o, sess: sess, in: in, state: StateClassifying}
	err := r.execute(ctx)
	if err != nil {
		r.fail(ctx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	o.observer.TurnFinished(r.state, r.failedIn, time.Since(start))
	return err
}

func (r *turnRun) enter(s State) {
	if !canTransition(r.state, s) {
		r.o.logger.Error("ORCHESTRATOR", "Illegal state transition", map[string]interface{}{
			"session_id": r.sess.ID(),
			"from":       string(r.state),
			"to":         string(s),
		})
	}
	r.o.logger.Debug("ORCHESTRATOR", "State transition", map[string]interface{}{
		"session_id": r.sess.ID(),
		"from":       string(r.state),
		"to":         string(s),
	})
	r.state = s
}

func (r *turnRun) execute(ctx context.Context) error {
	o := r.o
	in := r.in

	err := o.store.BeginTurn(ctx, TurnRecord{
		ChatID:    in.ChatID,
		MsgID:     in.MsgID,
		SessionID: r.sess.ID(),
		UserID:    in.UserID,
		Query:     in.FollowUp,
	})
	if err != nil {
		return fmt.Errorf("begin turn: %w", err)
	}

	cls, err := o.classifier.Classify(ctx, in.History, in.FollowUp)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	r.enter(StateRunningActions)
	findings, widgets, err := r.runActions(ctx, cls)
	if err != nil {
		return err
	}
	r.findings = len(findings)

	r.enter(StateAssemblingContext)
	messages := make([]llm.Message, 0, len(in.History)+2)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: buildWriterPrompt(buildContext(findings, widgets), in.Config, cls),
	})
	messages = append(messages, in.History...)
	messages = append(messages, llm.Message{Role: "user", Content: in.FollowUp})

	r.enter(StateStreamingAnswer)
	if err := r.streamAnswer(ctx, messages); err != nil {
		return fmt.Errorf("synthesize answer: %w", err)
	}

	r.enter(StateFinalizing)
	if err := r.finalize(ctx); err != nil {
		return err
	}

	r.enter(StateCompleted)
	if err := r.sess.End(); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// runActions emits the shared research block, then runs the enabled
// research actions and the widgets side by side.
func (r *turnRun) runActions(ctx context.Context, cls turn.ClassifierOutput) ([]research.Chunk, []WidgetOutput, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.runActions")
	defer span.End()

	researchBlock := session.NewResearchBlock(uuid.NewString())
	if err := r.sess.EmitBlock(researchBlock); err != nil {
		return nil, nil, fmt.Errorf("emit research block: %w", err)
	}

	rc := &research.Context{
		Session:         r.sess,
		ResearchBlockID: researchBlock.ID,
		Config:          r.in.Config,
		Classification:  cls,
		History:         r.in.History,
		FollowUp:        r.in.FollowUp,
		UserID:          r.in.UserID,
	}

	var (
		out     research.Output
		widgets []WidgetOutput
		mu      sync.Mutex
	)
	var g errgroup.Group
	g.Go(func() error {
		out = r.o.researcher.Research(ctx, rc)
		return nil
	})
	if r.o.widgets != nil {
		g.Go(func() error {
			outputs, err := r.o.widgets.RunWidgets(ctx, WidgetInput{
				Classification: cls,
				History:        r.in.History,
				FollowUp:       r.in.FollowUp,
			})
			if err != nil {
				r.o.logger.Warn("ORCHESTRATOR", "Widgets failed", map[string]interface{}{
					"session_id": r.sess.ID(),
					"error":      err.Error(),
				})
				return nil
			}
			for _, w := range outputs {
				block, err := session.NewWidgetBlock(uuid.NewString(), w.Type, w.Params)
				if err != nil {
					r.o.logger.Warn("ORCHESTRATOR", "Skipping widget", map[string]interface{}{
						"widget": w.Type,
						"error":  err.Error(),
					})
					continue
				}
				if err := r.sess.EmitBlock(block); err != nil {
					return err
				}
				mu.Lock()
				widgets = append(widgets, w)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("run widgets: %w", err)
	}

	span.SetAttributes(
		attribute.Int("research.findings", len(out.Findings)),
		attribute.Int("research.failed", len(out.Failed)),
	)
	if err := r.sess.MarkResearchComplete(); err != nil {
		return nil, nil, fmt.Errorf("mark research complete: %w", err)
	}
	return out.Findings, widgets, nil
}

// streamAnswer turns the first chunk into a text block and every later chunk
// into a replace patch of that block's data.
func (r *turnRun) streamAnswer(ctx context.Context, messages []llm.Message) error {
	ctx, span := tracer.Start(ctx, "orchestrator.streamAnswer")
	defer span.End()

	var (
		answer  strings.Builder
		blockID string
		chunks  int
	)
	for chunk, err := range r.o.writer.Stream(ctx, messages, llm.WithTemperature(0.7)) {
		if err != nil {
			return err
		}
		if chunk == "" {
			continue
		}
		chunks++
		answer.WriteString(chunk)

		if blockID == "" {
			block := session.NewTextBlock(uuid.NewString(), answer.String())
			if err := r.sess.EmitBlock(block); err != nil {
				return err
			}
			blockID = block.ID
			continue
		}

		patch, err := session.Replace("/data", answer.String())
		if err != nil {
			return err
		}
		if err := r.sess.UpdateBlock(blockID, []session.Patch{patch}); err != nil {
			return err
		}
	}

	span.SetAttributes(attribute.Int("answer.chunks", chunks))
	if blockID == "" {
		return ErrEmptyAnswer
	}
	return nil
}

func (r *turnRun) finalize(ctx context.Context) error {
	o := r.o
	in := r.in
	blocks := r.sess.AllBlocks()

	if err := o.store.CompleteTurn(ctx, in.MsgID, blocks); err != nil {
		return fmt.Errorf("persist turn: %w", err)
	}

	if o.history != nil && in.UserID != "" {
		if err := o.history.RecordSearch(ctx, in.UserID, in.FollowUp, in.Config.Sources); err != nil {
			o.logger.Warn("ORCHESTRATOR", "Failed to record search history", map[string]interface{}{
				"user_id": in.UserID,
				"error":   err.Error(),
			})
		}
	}

	if o.events != nil {
		err := o.events.PublishTurnCompleted(ctx, TurnCompleted{
			ChatID:    in.ChatID,
			MsgID:     in.MsgID,
			SessionID: r.sess.ID(),
			UserID:    in.UserID,
			Findings:  r.findings,
			Blocks:    len(blocks),
			At:        time.Now(),
		})
		if err != nil {
			o.logger.Warn("ORCHESTRATOR", "Failed to publish turn event", map[string]interface{}{
				"message_id": in.MsgID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// fail marks the stored message as errored with whatever blocks were
// produced and publishes the terminal error event.
func (r *turnRun) fail(ctx context.Context, cause error) {
	r.failedIn = r.state
	r.enter(StateFailed)

	r.o.logger.Error("ORCHESTRATOR", "Turn failed", map[string]interface{}{
		"session_id": r.sess.ID(),
		"message_id": r.in.MsgID,
		"state":      string(r.failedIn),
		"error":      cause.Error(),
	})

	// the caller may already be gone; the record still has to leave "answering"
	persistCtx := context.WithoutCancel(ctx)
	if err := r.o.store.FailTurn(persistCtx, r.in.MsgID, r.sess.AllBlocks()); err != nil {
		r.o.logger.Error("ORCHESTRATOR", "Failed to mark turn as errored", map[string]interface{}{
			"message_id": r.in.MsgID,
			"error":      err.Error(),
		})
	}
	if err := r.sess.Fail(cause); err != nil && !errors.Is(err, session.ErrSessionClosed) {
		r.o.logger.Error("ORCHESTRATOR", "Failed to publish error event", map[string]interface{}{
			"session_id": r.sess.ID(),
			"error":      err.Error(),
		})
	}
}
