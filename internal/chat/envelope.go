package chat

import (
	"encoding/json"
	"strings"

	"github.com/fpang/trip-journal/internal/jsonutil"
)

// GeminiEnvelopeV1 is the generateContent REST response shape
// (candidates[].content.parts[].text). Generators that return the raw
// transport body instead of extracted text are unwrapped through it.
type GeminiEnvelopeV1 struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
			Role string `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// UnwrapEnvelope extracts the generated text from a provider envelope. It
// returns false when raw is not an envelope with at least one text part, in
// which case callers treat raw itself as the generated text.
func UnwrapEnvelope(raw string) (string, bool) {
	trimmed := jsonutil.StripMarkdownFences(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}

	var env GeminiEnvelopeV1
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return "", false
	}
	if len(env.Candidates) == 0 {
		return "", false
	}

	var sb strings.Builder
	for _, part := range env.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", false
	}
	return sb.String(), true
}
