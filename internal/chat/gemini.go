package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiGenerator calls the Gemini API through the google.golang.org/genai client.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClient creates a genai client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiGenerator builds a GeminiGenerator from cfg.
func NewGeminiGenerator(ctx context.Context, cfg GeneratorConfig) (*GeminiGenerator, error) {
	client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}

	var genConfig *genai.GenerateContentConfig
	if cfg.SystemInstruction != "" {
		genConfig = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: cfg.SystemInstruction}},
			},
		}
	}

	return &GeminiGenerator{client: client, model: model, config: genConfig}, nil
}

// Model returns the Gemini model ID used for requests.
func (g *GeminiGenerator) Model() string {
	return g.model
}

// Generate sends images first, then the prompt text, as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, images []Image) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: prompt})

	log.Debug().
		Str("model", g.model).
		Int("prompt_length", len(prompt)).
		Int("image_count", len(images)).
		Msg("Starting Gemini API call")

	callStart := time.Now()
	contents := []*genai.Content{{Role: "user", Parts: parts}}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	duration := time.Since(callStart)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("received empty text from Gemini API")
	}

	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Gemini API response received")

	return text, nil
}
