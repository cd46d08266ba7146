package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fpang/trip-journal/internal/assets"
	"github.com/fpang/trip-journal/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// Analyzer defaults.
const (
	DefaultAnalysisWorkers = 4
	DefaultAnalysisTimeout = 60 * time.Second
)

// AnalysisRequest is one photo queued for description. Index is the
// photo's sequence index and is carried through unchanged.
type AnalysisRequest struct {
	Index    int
	Filename string
	Data     []byte
}

// PhotoAnalysis is a successful description of one photo.
type PhotoAnalysis struct {
	Index       int
	Description string
}

// AnalyzerConfig tunes the per-photo fan-out.
type AnalyzerConfig struct {
	MaxDimension int
	JPEGQuality  int
	Workers      int
	// Timeout bounds each Generator call independently.
	Timeout time.Duration
	// Prompt overrides the embedded analysis prompt.
	Prompt string
	// Encode overrides filehandler.EncodeForAnalysis.
	Encode func(data []byte, maxDimension, quality int) ([]byte, error)
}

// PhotoAnalyzer describes photos concurrently with a bounded worker count.
type PhotoAnalyzer struct {
	gen Generator
	cfg AnalyzerConfig
}

// NewPhotoAnalyzer applies defaults to zero-valued config fields.
func NewPhotoAnalyzer(gen Generator, cfg AnalyzerConfig) *PhotoAnalyzer {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = filehandler.DefaultAnalysisMaxDimension
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = filehandler.DefaultAnalysisJPEGQuality
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultAnalysisWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAnalysisTimeout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = assets.PhotoAnalysisPrompt
	}
	if cfg.Encode == nil {
		cfg.Encode = filehandler.EncodeForAnalysis
	}
	return &PhotoAnalyzer{gen: gen, cfg: cfg}
}

// Analyze describes every photo and returns the successes ordered by Index.
// A failure (encoding, transport, timeout, empty text) drops only that photo.
func (a *PhotoAnalyzer) Analyze(ctx context.Context, photos []AnalysisRequest) []PhotoAnalysis {
	log.Info().
		Int("photos", len(photos)).
		Int("workers", a.cfg.Workers).
		Dur("timeout", a.cfg.Timeout).
		Msg("Starting photo analysis")

	start := time.Now()
	results := make(chan PhotoAnalysis, len(photos))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.cfg.Workers)

	for _, photo := range photos {
		wg.Add(1)
		go func(p AnalysisRequest) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				log.Warn().Err(ctx.Err()).Int("index", p.Index).Str("filename", p.Filename).
					Msg("Photo analysis cancelled before start, dropping photo")
				return
			}
			defer func() { <-sem }()

			description, err := a.analyzeOne(ctx, p)
			if err != nil {
				log.Warn().Err(err).Int("index", p.Index).Str("filename", p.Filename).
					Str("failure", ClassifyFailure(err).String()).
					Msg("Photo analysis failed, dropping photo")
				return
			}
			results <- PhotoAnalysis{Index: p.Index, Description: description}
		}(photo)
	}

	wg.Wait()
	close(results)

	analyses := make([]PhotoAnalysis, 0, len(photos))
	for r := range results {
		analyses = append(analyses, r)
	}
	// Completion order is arbitrary; sequence index is the only ordering key.
	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].Index < analyses[j].Index
	})

	log.Info().
		Int("analyzed", len(analyses)).
		Int("dropped", len(photos)-len(analyses)).
		Dur("duration", time.Since(start)).
		Msg("Photo analysis complete")

	return analyses
}

func (a *PhotoAnalyzer) analyzeOne(ctx context.Context, p AnalysisRequest) (string, error) {
	encoded, err := a.cfg.Encode(p.Data, a.cfg.MaxDimension, a.cfg.JPEGQuality)
	if err != nil {
		return "", fmt.Errorf("encode for analysis: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	text, err := generateWithDeadline(callCtx, a.gen, a.cfg.Prompt, []Image{{
		MIMEType: filehandler.AnalysisMIMEType,
		Data:     encoded,
	}})
	if err != nil {
		return "", err
	}

	if unwrapped, ok := UnwrapEnvelope(text); ok {
		text = unwrapped
	}
	description := strings.TrimSpace(text)
	if description == "" {
		return "", fmt.Errorf("empty description")
	}

	log.Debug().
		Int("index", p.Index).
		Str("description", truncateForLog(description, 80)).
		Msg("Photo described")

	return description, nil
}

type generateResult struct {
	text string
	err  error
}

// generateWithDeadline returns as soon as ctx is done even if the Generator
// ignores cancellation. The abandoned call finishes into a buffered channel.
func generateWithDeadline(ctx context.Context, gen Generator, prompt string, images []Image) (string, error) {
	done := make(chan generateResult, 1)
	go func() {
		text, err := gen.Generate(ctx, prompt, images)
		done <- generateResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return r.text, nil
	case <-ctx.Done():
		return "", fmt.Errorf("generator call abandoned: %w", ctx.Err())
	}
}

func truncateForLog(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
