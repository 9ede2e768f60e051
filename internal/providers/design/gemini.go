package design

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GenerateFunc matches genai's Models.GenerateContent.
type GenerateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	// Generate overrides the SDK client; used in tests.
	Generate GenerateFunc
}

// GeminiCompleter talks to the Gemini API through the genai SDK.
type GeminiCompleter struct {
	generate    GenerateFunc
	model       string
	temperature float32
}

func NewGeminiCompleter(ctx context.Context, opts GeminiOptions) (*GeminiCompleter, error) {
	generate := opts.Generate
	if generate == nil {
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, errors.New("gemini api key is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  strings.TrimSpace(opts.APIKey),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: create client: %w", err)
		}
		generate = client.Models.GenerateContent
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	return &GeminiCompleter{
		generate:    generate,
		model:       coalesce(opts.Model, defaultGeminiModel),
		temperature: temperature,
	}, nil
}

func (g *GeminiCompleter) Name() string { return "gemini" }

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string, images []Image) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MIME, Data: img.Data},
		})
	}
	result, err := g.generate(ctx, g.model, []*genai.Content{{Role: "user", Parts: parts}}, &genai.GenerateContentConfig{
		Temperature:      floatPtr(g.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", classify(0, fmt.Errorf("gemini: generate content: %w", err))
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", classify(503, errors.New("gemini: no candidates in response"))
	}
	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func floatPtr(f float32) *float32 { return &f }
