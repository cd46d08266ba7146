// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// --- Static prompts (no dynamic data) ---

// PhotoAnalysisPrompt asks for a one or two sentence description of a single photo.
//
//go:embed prompts/photo-analysis.txt
var PhotoAnalysisPrompt string

// NarrativeSystemPrompt is the system instruction for the narrative composition call.
//
//go:embed prompts/narrative-system.txt
var NarrativeSystemPrompt string

// --- Dynamic prompt templates ---

//go:embed prompts/narrative.txt
var narrativeTemplate string

// template.Must panics on malformed templates, catching errors at program
// startup rather than at call time.
var narrativePromptTmpl = template.Must(
	template.New("narrative").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(narrativeTemplate),
)

// NarrativePhotoLine is one photo entry in the composition prompt.
type NarrativePhotoLine struct {
	Index       int
	Time        string
	Description string
}

// NarrativePromptData holds the dynamic data injected into the narrative template.
type NarrativePromptData struct {
	// Photos are listed in sequence-index order.
	Photos []NarrativePhotoLine
	// TravelStyles is the closed vocabulary the model must pick hashtags from.
	TravelStyles []string
}

// RenderNarrativePrompt renders the composition prompt.
func RenderNarrativePrompt(data NarrativePromptData) (string, error) {
	var buf bytes.Buffer
	if err := narrativePromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
