package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/sentichat/internal/config"
)

// ErrProducerUnavailable is returned when no text generation backend can be constructed.
var ErrProducerUnavailable = errors.New("text generation producer unavailable")

// Generator turns a prompt into a completion. Calls block until the backend answers;
// no timeout or retry is applied here.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// NewGenerator builds the Generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: %s credentials or model not configured", ErrProducerUnavailable, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg.OpenAI), nil
	case config.ProviderGemini:
		gen, err := NewGeminiGenerator(ctx, cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProducerUnavailable, err)
		}
		return gen, nil
	default:
		chatModel, err := cfg.NewChatModel(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create chat model: %v", ErrProducerUnavailable, err)
		}
		gen, err := NewChainGenerator(ctx, chatModel)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProducerUnavailable, err)
		}
		return gen, nil
	}
}

// ChainGenerator runs prompts through an eino chain ending in a chat model.
type ChainGenerator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewChainGenerator compiles a single-message chain around chatModel.
func NewChainGenerator(ctx context.Context, chatModel model.BaseChatModel) (*ChainGenerator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is nil")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile generation chain: %w", err)
	}

	return &ChainGenerator{chain: runnable}, nil
}

// Generate implements Generator.
func (g *ChainGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("failed to run generation chain: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}
