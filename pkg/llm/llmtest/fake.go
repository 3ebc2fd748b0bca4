// Package llmtest provides a scriptable LLMProvider for tests.
package llmtest

import (
	"context"
	"iter"
	"sync"

	"desirefinder-be/pkg/llm"
)

// Fake answers every call through the matching func field. Nil funcs return
// empty output. Calls are recorded for assertions.
type Fake struct {
	ChatFunc   func(ctx context.Context, history []llm.Message, opts *llm.Options) (string, error)
	StreamFunc func(ctx context.Context, history []llm.Message) ([]string, error)
	VisionFunc func(ctx context.Context, prompt string, images []llm.Image) (string, error)

	mu          sync.Mutex
	ChatCalls   [][]llm.Message
	StreamCalls [][]llm.Message
	VisionCalls int
}

var _ llm.LLMProvider = (*Fake)(nil)

func (f *Fake) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	f.ChatCalls = append(f.ChatCalls, history)
	f.mu.Unlock()
	if f.ChatFunc == nil {
		return "", nil
	}
	return f.ChatFunc(ctx, history, llm.NewOptions(0, opts...))
}

func (f *Fake) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// Stream yields the chunks from StreamFunc, then its error if any.
func (f *Fake) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) iter.Seq2[string, error] {
	f.mu.Lock()
	f.StreamCalls = append(f.StreamCalls, history)
	f.mu.Unlock()
	return func(yield func(string, error) bool) {
		if f.StreamFunc == nil {
			return
		}
		chunks, err := f.StreamFunc(ctx, history)
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func (f *Fake) Vision(ctx context.Context, prompt string, images []llm.Image, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	f.VisionCalls++
	f.mu.Unlock()
	if f.VisionFunc == nil {
		return "true", nil
	}
	return f.VisionFunc(ctx, prompt, images)
}

// Static returns a ChatFunc that always answers resp.
func Static(resp string) func(context.Context, []llm.Message, *llm.Options) (string, error) {
	return func(context.Context, []llm.Message, *llm.Options) (string, error) { return resp, nil }
}
