package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fpang/trip-journal/internal/jsonutil"
	"github.com/rs/zerolog/log"
)

// DegradedNotice prefixes the narrative when the composed response could not
// be parsed; the unparsed text follows it verbatim.
const DegradedNotice = "여행기 생성 중 형식이 맞지 않아 원본을 표시합니다.\n"

// Draft is the parsed composition result before tag validation and
// placeholder resolution.
type Draft struct {
	// Content is the narrative template with [[PHOTO_<index>]] markers.
	Content string
	// Hashtags are unvalidated tag candidates in response order.
	Hashtags []string
	// Degraded is true when the response was not the expected JSON object.
	Degraded bool
}

type draftPayload struct {
	Content  *string    `json:"content"`
	Hashtags stringList `json:"hashtags"`
}

// stringList accepts either a JSON array or a single comma/space separated
// string. Array elements that are not strings are kept as their literal text
// when numeric and skipped otherwise; tag validation drops them later.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err == nil {
		out := make([]string, 0, len(elems))
		for _, e := range elems {
			var s string
			if err := json.Unmarshal(e, &s); err == nil {
				out = append(out, s)
				continue
			}
			var n json.Number
			if err := json.Unmarshal(e, &n); err == nil && n != "" {
				out = append(out, n.String())
			}
		}
		*l = out
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hashtags must be an array or a string: %w", err)
	}
	*l = strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	return nil
}

// ParseDraft unwraps the provider envelope when present, then parses the
// {content, hashtags} object. It never fails: unparseable text yields a
// degraded draft with DegradedNotice plus the text and no hashtags.
func ParseDraft(raw string) Draft {
	text, ok := UnwrapEnvelope(raw)
	if !ok {
		text = raw
	}

	payload, err := jsonutil.ParseJSON[draftPayload](text)
	if err == nil && payload.Content != nil && strings.TrimSpace(*payload.Content) != "" {
		return Draft{
			Content:  *payload.Content,
			Hashtags: []string(payload.Hashtags),
		}
	}

	if err == nil {
		err = fmt.Errorf("missing content field")
	}
	log.Warn().
		Err(err).
		Bool("envelope_unwrapped", ok).
		Int("response_length", len(text)).
		Msg("Narrative response is not the expected JSON, using degraded draft")

	return Draft{
		Content:  DegradedNotice + jsonutil.StripMarkdownFences(text),
		Degraded: true,
	}
}
