package assets

import (
	"strings"
	"testing"
)

func TestStaticPromptsEmbedded(t *testing.T) {
	if !strings.Contains(PhotoAnalysisPrompt, "travel blog") {
		t.Errorf("PhotoAnalysisPrompt not embedded: %q", PhotoAnalysisPrompt)
	}
	if strings.TrimSpace(NarrativeSystemPrompt) == "" {
		t.Error("NarrativeSystemPrompt is empty")
	}
}

func TestRenderNarrativePrompt(t *testing.T) {
	prompt, err := RenderNarrativePrompt(NarrativePromptData{
		Photos: []NarrativePhotoLine{
			{Index: 0, Time: "2024-05-01 09:30", Description: "Sunrise over Seongsan Ilchulbong."},
			{Index: 2, Time: "Unknown time", Description: "A bowl of black pork noodles."},
		},
		TravelStyles: []string{"NATURE", "FOOD"},
	})
	if err != nil {
		t.Fatalf("RenderNarrativePrompt: %v", err)
	}

	wantLines := []string{
		"[Photo 0] Time: 2024-05-01 09:30, Description: Sunrise over Seongsan Ilchulbong.",
		"[Photo 2] Time: Unknown time, Description: A bowl of black pork noodles.",
		"strictly from this list: [NATURE, FOOD]",
		"[[PHOTO_N]]",
		`"hashtags"`,
	}
	for _, want := range wantLines {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}

	if strings.Index(prompt, "[Photo 0]") > strings.Index(prompt, "[Photo 2]") {
		t.Error("photo lines are out of order")
	}
}
