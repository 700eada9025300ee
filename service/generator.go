package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

const defaultGenerativeModel = "gemini-2.5-flash"

// Generator abstracts the external generative service behind the two
// call shapes the assistive session needs. Tests substitute a stub.
type Generator interface {
	// GenerateText produces a completion for a text-only prompt.
	GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error)

	// GenerateFromDocument produces a completion for a prompt plus an
	// inline document (e.g. an uploaded PDF).
	GenerateFromDocument(ctx context.Context, systemInstruction, prompt, mimeType string, data []byte) (string, error)
}

// GeminiGenerator implements Generator on the Gemini client
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator on the given client. An empty
// model name selects the default model.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = defaultGenerativeModel
	}
	return &GeminiGenerator{client: client, model: model}
}

// GenerateText produces a completion for a text-only prompt
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemInstruction, prompt string) (string, error) {
	return g.generate(ctx, systemInstruction, genai.Text(prompt))
}

// GenerateFromDocument produces a completion for a prompt plus an inline
// document
func (g *GeminiGenerator) GenerateFromDocument(ctx context.Context, systemInstruction, prompt, mimeType string, data []byte) (string, error) {
	return g.generate(ctx, systemInstruction,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(prompt),
	)
}

func (g *GeminiGenerator) generate(ctx context.Context, systemInstruction string, parts ...genai.Part) (string, error) {
	if g.client == nil {
		return "", errors.New("gemini client not set")
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.3)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}

	result := builder.String()
	if result == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return result, nil
}
