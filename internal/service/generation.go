package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jjoyayroo/alphathreads/internal/domain"
	"github.com/jjoyayroo/alphathreads/internal/registry"
)

// GenerationService validates generation requests and invokes the provider.
type GenerationService struct {
	provider domain.GenerationProvider
	log      zerolog.Logger
}

// NewGenerationService creates a new generation service
func NewGenerationService(provider domain.GenerationProvider, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		provider: provider,
		log:      log,
	}
}

// Generate resolves the model, merges its fixed parameters with the prompt
// and runs one synchronous provider call. Invalid input is rejected before
// any network activity; a failed call is terminal, never retried.
func (s *GenerationService) Generate(ctx context.Context, prompt, modelID string) (domain.GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.GenerationResult{}, domain.ErrEmptyPrompt
	}

	model, err := registry.Resolve(modelID)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	input := make(map[string]any, len(model.Params)+1)
	for k, v := range model.Params {
		input[k] = v
	}
	input["prompt"] = prompt

	s.log.Debug().Str("model", model.ID).Msg("invoking generation provider")

	out, err := s.provider.Generate(ctx, model.Version, input)
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("failed to generate image: %w", err)
	}

	return domain.GenerationResult{OutputRef: out}, nil
}
