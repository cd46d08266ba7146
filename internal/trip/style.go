package trip

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// TravelStyle is a member of the closed tag vocabulary.
type TravelStyle string

const (
	StyleNature   TravelStyle = "NATURE"
	StyleCity     TravelStyle = "CITY"
	StyleFood     TravelStyle = "FOOD"
	StyleActivity TravelStyle = "ACTIVITY"
	StyleCulture  TravelStyle = "CULTURE"
	StylePhoto    TravelStyle = "PHOTO"
	StyleHealing  TravelStyle = "HEALING"
	StyleHistory  TravelStyle = "HISTORY"
	StyleShopping TravelStyle = "SHOPPING"
	StyleLocal    TravelStyle = "LOCAL"
	StyleFestival TravelStyle = "FESTIVAL"
	StyleDrive    TravelStyle = "DRIVE"
	StyleDate     TravelStyle = "DATE"
	StyleFamily   TravelStyle = "FAMILY"
	StylePet      TravelStyle = "PET"
)

// AllTravelStyles lists the vocabulary in display order.
var AllTravelStyles = []TravelStyle{
	StyleNature, StyleCity, StyleFood, StyleActivity, StyleCulture,
	StylePhoto, StyleHealing, StyleHistory, StyleShopping, StyleLocal,
	StyleFestival, StyleDrive, StyleDate, StyleFamily, StylePet,
}

var styleLabels = map[TravelStyle]string{
	StyleNature:   "자연 힐링",
	StyleCity:     "도시 탐험",
	StyleFood:     "맛집 탐방",
	StyleActivity: "액티비티",
	StyleCulture:  "문화 예술",
	StylePhoto:    "인생샷",
	StyleHealing:  "휴양 휴식",
	StyleHistory:  "역사 탐방",
	StyleShopping: "쇼핑 투어",
	StyleLocal:    "현지 체험",
	StyleFestival: "축제/공연",
	StyleDrive:    "드라이브",
	StyleDate:     "커플 여행",
	StyleFamily:   "가족 여행",
	StylePet:      "반려동물 동반",
}

// Label returns the Korean display label, or the raw value for unknown styles.
func (s TravelStyle) Label() string {
	if label, ok := styleLabels[s]; ok {
		return label
	}
	return string(s)
}

// StyleNames returns the vocabulary as plain strings for prompt rendering.
func StyleNames() []string {
	names := make([]string, len(AllTravelStyles))
	for i, s := range AllTravelStyles {
		names[i] = string(s)
	}
	return names
}

// ParseTravelStyle matches s case-insensitively, ignoring surrounding
// whitespace and a leading '#'.
func ParseTravelStyle(s string) (TravelStyle, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "#")))
	candidate := TravelStyle(normalized)
	if _, ok := styleLabels[candidate]; ok {
		return candidate, true
	}
	return "", false
}

// ValidateStyles keeps the candidates that belong to the vocabulary, in
// first-seen order without duplicates. Everything else is dropped with a
// warning and returned for reporting.
func ValidateStyles(candidates []string) (valid []TravelStyle, dropped []string) {
	seen := make(map[TravelStyle]bool, len(candidates))
	for _, c := range candidates {
		style, ok := ParseTravelStyle(c)
		if !ok {
			log.Warn().Str("tag", c).Msg("Dropping travel style outside the vocabulary")
			dropped = append(dropped, c)
			continue
		}
		if seen[style] {
			continue
		}
		seen[style] = true
		valid = append(valid, style)
	}
	return valid, dropped
}
