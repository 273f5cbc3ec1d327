package llm

import (
	"context"
	"fmt"

	"github.com/hariteja007/NexusLearn-AI/internal/config"
	"github.com/hariteja007/NexusLearn-AI/internal/core"
)

// Providers is the embedder and generator pair selected by configuration.
type Providers struct {
	Embedder core.EmbeddingProvider
	LLM      core.LLMProvider
	closers  []func() error
}

func (p *Providers) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewProviders builds both providers for cfg.EmbedProvider.
func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	switch cfg.EmbedProvider {
	case "openai":
		emb, err := NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbedModel, cfg.EmbedDim)
		if err != nil {
			return nil, err
		}
		gen, err := NewOpenAILLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GenModel)
		if err != nil {
			return nil, err
		}
		return &Providers{Embedder: emb, LLM: gen}, nil
	case "gemini":
		emb, err := NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		gen, err := NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			_ = emb.Close()
			return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		return &Providers{Embedder: emb, LLM: gen, closers: []func() error{emb.Close, gen.Close}}, nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}
