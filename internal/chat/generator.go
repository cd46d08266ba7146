package chat

import (
	"context"
	"fmt"
)

// Image is an inline image attached to a generation request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Generator is the vision/text model boundary: a prompt plus zero or more
// images in, free-form text out. Implementations must honor ctx cancellation
// so per-call timeouts take effect.
type Generator interface {
	Generate(ctx context.Context, prompt string, images []Image) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, images []Image) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, images []Image) (string, error) {
	return f(ctx, prompt, images)
}

// GeneratorConfig selects and configures a Generator implementation.
type GeneratorConfig struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint (proxies, local emulators).
	BaseURL string
	// SystemInstruction is sent with every request when the provider supports it.
	SystemInstruction string
}

// NewGenerator builds the Generator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg GeneratorConfig) (Generator, error) {
	switch cfg.Provider {
	case "", ProviderGemini:
		return NewGeminiGenerator(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg)
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
