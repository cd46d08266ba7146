package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStartupLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	InitWithWriter("info", false, &buf)

	NewStartupLogger("trip-journal").
		CommitHash("abc123").
		Database("sqlite").
		BlobStore("local", "/var/trips").
		Generator("gemini", "gemini-2.5-flash").
		SSMParam("geminiKey", "/trip-journal/gemini-api-key").
		Feature("pretty", false).
		Config("workers", "4").
		InitDuration(150 * time.Millisecond).
		Log()

	var evt map[string]any
	if err := json.Unmarshal(buf.Bytes(), &evt); err != nil {
		t.Fatalf("startup event is not JSON: %v\n%s", err, buf.String())
	}
	if evt["message"] != "Startup complete" {
		t.Errorf("message = %v", evt["message"])
	}
	process, _ := evt["process"].(map[string]any)
	if process["name"] != "trip-journal" || process["commitHash"] != "abc123" {
		t.Errorf("process = %v", process)
	}
	resources, _ := evt["resources"].(map[string]any)
	gen, _ := resources["generator"].(map[string]any)
	if gen["model"] != "gemini-2.5-flash" {
		t.Errorf("resources = %v", resources)
	}
	cfg, _ := evt["config"].(map[string]any)
	if cfg["workers"] != "4" {
		t.Errorf("config = %v", cfg)
	}
}
