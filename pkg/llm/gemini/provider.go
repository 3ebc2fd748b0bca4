package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"desirefinder-be/pkg/llm"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client    *genai.Client
	ModelName string
}

// Ensure GeminiProvider implements LLMProvider
var _ llm.LLMProvider = &GeminiProvider{}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiProvider{client: client, ModelName: modelName}, nil
}

func (p *GeminiProvider) model(options *llm.Options) string {
	if options.Model != "" {
		return options.Model
	}
	return p.ModelName
}

func buildConfig(options *llm.Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(options.Temperature)),
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

// buildContents maps generic messages onto Gemini contents. System messages
// are folded into the request's system instruction.
func buildContents(history []llm.Message, config *genai.GenerateContentConfig) []*genai.Content {
	var system []string
	contents := make([]*genai.Content, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant", "model":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents
}

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(0.7, opts...)
	config := buildConfig(options)
	contents := buildContents(history, config)

	resp, err := p.client.Models.GenerateContent(ctx, p.model(options), contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (p *GeminiProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		options := llm.NewOptions(0.7, opts...)
		config := buildConfig(options)
		contents := buildContents(history, config)

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model(options), contents, config) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (p *GeminiProvider) Vision(ctx context.Context, prompt string, images []llm.Image, opts ...llm.Option) (string, error) {
	options := llm.NewOptions(0, opts...)
	config := buildConfig(options)

	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model(options), contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return resp.Text(), nil
}
