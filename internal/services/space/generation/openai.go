package generation

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator for the given API key and model.
// baseURL overrides the default endpoint when non-empty, which allows
// pointing at any compatible upstream.
func NewOpenAIGenerator(apiKey, model, baseURL string) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// GenerateSituations requests and validates round candidates.
func (g *OpenAIGenerator) GenerateSituations(ctx context.Context, req SituationRequest) ([]Situation, error) {
	raw, err := g.complete(ctx, situationSystemPrompt, buildSituationPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate situations: %w", err)
	}
	situations, err := parseSituations(raw)
	if err != nil {
		return nil, fmt.Errorf("generate situations: %w", err)
	}
	return situations, nil
}

// GenerateReflection requests and validates a reflection.
func (g *OpenAIGenerator) GenerateReflection(ctx context.Context, req ReflectionRequest) (string, error) {
	raw, err := g.complete(ctx, reflectionSystemPrompt, buildReflectionPrompt(req))
	if err != nil {
		return "", fmt.Errorf("generate reflection: %w", err)
	}
	reflection, err := parseReflection(raw)
	if err != nil {
		return "", fmt.Errorf("generate reflection: %w", err)
	}
	return reflection, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}
	return completion.Choices[0].Message.Content, nil
}
