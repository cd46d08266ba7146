package trip

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultCaptionLength is the display length of a photo caption in runes.
const DefaultCaptionLength = 20

const captionEllipsis = "..."

var markerPattern = regexp.MustCompile(`\[\[PHOTO_(\d+)\]\]`)

// Marker returns the placeholder token for a sequence index.
func Marker(index int) string {
	return fmt.Sprintf("[[PHOTO_%d]]", index)
}

// TruncateCaption caps s at limit runes, appending "..." when cut.
func TruncateCaption(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + captionEllipsis
}

// MediaRef is what a resolved marker embeds.
type MediaRef struct {
	Caption    string
	StorageRef string
}

var captionEscaper = strings.NewReplacer("[", "(", "]", ")", "\n", " ")

// MediaDirective renders the markdown image line that replaces a marker.
func MediaDirective(ref MediaRef) string {
	return fmt.Sprintf("\n![%s](%s)\n", captionEscaper.Replace(ref.Caption), ref.StorageRef)
}

// ResolvePlaceholders substitutes every [[PHOTO_<index>]] whose index is in
// media. Markers for other indices stay verbatim and are returned so the
// caller can report them.
func ResolvePlaceholders(template string, media map[int]MediaRef) (string, []string) {
	var unresolved []string
	resolved := markerPattern.ReplaceAllStringFunc(template, func(marker string) string {
		sub := markerPattern.FindStringSubmatch(marker)
		index, err := strconv.Atoi(sub[1])
		if err != nil {
			unresolved = append(unresolved, marker)
			return marker
		}
		ref, ok := media[index]
		if !ok || Marker(index) != marker {
			unresolved = append(unresolved, marker)
			return marker
		}
		return MediaDirective(ref)
	})
	return resolved, unresolved
}
