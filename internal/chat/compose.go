package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fpang/trip-journal/internal/assets"
	"github.com/rs/zerolog/log"
)

// DefaultCompositionTimeout bounds the single narrative call.
const DefaultCompositionTimeout = 120 * time.Second

// UnknownTime is shown in the prompt for photos without a capture timestamp.
const UnknownTime = "Unknown time"

// promptTimeLayout is the human-readable timestamp in prompt lines.
const promptTimeLayout = "2006-01-02 15:04"

// NarrativeEntry is one analyzed photo as presented to the composer.
type NarrativeEntry struct {
	Index       int
	CapturedAt  *time.Time
	Description string
}

// BuildNarrativePrompt renders the composition prompt with one line per entry
// in ascending Index order. travelStyles is the closed tag vocabulary.
func BuildNarrativePrompt(entries []NarrativeEntry, travelStyles []string) (string, error) {
	ordered := make([]NarrativeEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	lines := make([]assets.NarrativePhotoLine, 0, len(ordered))
	for _, e := range ordered {
		ts := UnknownTime
		if e.CapturedAt != nil {
			ts = e.CapturedAt.Format(promptTimeLayout)
		}
		lines = append(lines, assets.NarrativePhotoLine{
			Index: e.Index,
			Time:  ts,
			// Keep one photo per prompt line.
			Description: strings.Join(strings.Fields(e.Description), " "),
		})
	}

	prompt, err := assets.RenderNarrativePrompt(assets.NarrativePromptData{
		Photos:       lines,
		TravelStyles: travelStyles,
	})
	if err != nil {
		return "", fmt.Errorf("render narrative prompt: %w", err)
	}
	return prompt, nil
}

// Composer issues the single narrative composition call.
type Composer struct {
	gen     Generator
	timeout time.Duration
}

// NewComposer returns a Composer; timeout <= 0 selects DefaultCompositionTimeout.
func NewComposer(gen Generator, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = DefaultCompositionTimeout
	}
	return &Composer{gen: gen, timeout: timeout}
}

// Compose builds the prompt and calls the Generator with no images attached.
// Any error, including the timeout, is returned to the caller unchanged in kind.
func (c *Composer) Compose(ctx context.Context, entries []NarrativeEntry, travelStyles []string) (string, error) {
	prompt, err := BuildNarrativePrompt(entries, travelStyles)
	if err != nil {
		return "", err
	}

	log.Info().
		Int("entries", len(entries)).
		Int("prompt_length", len(prompt)).
		Dur("timeout", c.timeout).
		Msg("Composing trip narrative")

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := generateWithDeadline(callCtx, c.gen, prompt, nil)
	if err != nil {
		log.Error().Err(err).
			Str("failure", ClassifyFailure(err).String()).
			Dur("duration", time.Since(start)).
			Msg("Narrative composition failed")
		return "", fmt.Errorf("narrative composition: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("narrative composition: empty response")
	}

	log.Info().
		Int("response_length", len(raw)).
		Dur("duration", time.Since(start)).
		Msg("Trip narrative composed")

	return raw, nil
}
