// Package research runs the per-turn research actions concurrently and
// collects what they found.
package research

import (
	"context"
	"errors"
	"fmt"

	"desirefinder-be/pkg/agent/session"
	"desirefinder-be/pkg/agent/turn"
	"desirefinder-be/pkg/llm"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDuplicateAction = errors.New("duplicate action name")
	ErrUnknownAction   = errors.New("unknown action")
	ErrInvalidInput    = errors.New("invalid action input")
)

var validate = validator.New()

// Chunk is one citable finding.
type Chunk struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (c Chunk) Title() string {
	title, _ := c.Metadata["title"].(string)
	return title
}

type Result struct {
	Type   string
	Chunks []Chunk
}

// Context is what every action sees of the turn.
type Context struct {
	Session         *session.Session
	ResearchBlockID string
	Config          turn.Config
	Classification  turn.ClassifierOutput
	History         []llm.Message
	FollowUp        string
	UserID          string
}

// Action is one registry entry. Input builds the invocation input for this
// turn; it must be a pointer to a struct whose validate tags are the
// action's schema. Execute never runs unless Enabled said yes and the input
// passed validation.
type Action struct {
	Name        string
	Description string
	Enabled     func(cfg turn.Config, cls turn.ClassifierOutput) bool
	Input       func(ctx context.Context, rc *Context) (interface{}, error)
	Execute     func(ctx context.Context, input interface{}, rc *Context) (Result, error)
}

// Registry is the fixed action table, built once at startup.
type Registry struct {
	order   []string
	actions map[string]Action
}

func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		if a.Name == "" || a.Enabled == nil || a.Input == nil || a.Execute == nil {
			return nil, fmt.Errorf("action %q is incomplete", a.Name)
		}
		if _, ok := r.actions[a.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, a.Name)
		}
		r.actions[a.Name] = a
		r.order = append(r.order, a.Name)
	}
	return r, nil
}

func (r *Registry) Get(name string) (Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return Action{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return a, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Enabled lists the actions that apply to this turn, in registration order.
func (r *Registry) Enabled(cfg turn.Config, cls turn.ClassifierOutput) []Action {
	var out []Action
	for _, name := range r.order {
		a := r.actions[name]
		if a.Enabled(cfg, cls) {
			out = append(out, a)
		}
	}
	return out
}

// run builds, validates and executes one action.
func run(ctx context.Context, a Action, rc *Context) (Result, error) {
	input, err := a.Input(ctx, rc)
	if err != nil {
		return Result{}, fmt.Errorf("%s input: %w", a.Name, err)
	}
	if input != nil {
		if err := validate.Struct(input); err != nil {
			return Result{}, fmt.Errorf("%w for %s: %v", ErrInvalidInput, a.Name, err)
		}
	}
	return a.Execute(ctx, input, rc)
}
