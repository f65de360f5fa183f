package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/scenevisor/internal/ports"
)

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf))

	z.Info("scene started",
		ports.SceneID("bafy1"),
		ports.Int("workers", 2),
		ports.Bool("persistent", false),
		ports.Duration("timeout", 90*time.Second),
		ports.Err(errors.New("boom")),
	)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["message"] != "scene started" {
		t.Errorf("message = %v, want scene started", got["message"])
	}
	if got["level"] != "info" {
		t.Errorf("level = %v, want info", got["level"])
	}
	if got["sceneId"] != "bafy1" {
		t.Errorf("sceneId = %v, want bafy1", got["sceneId"])
	}
	if got["workers"] != float64(2) {
		t.Errorf("workers = %v, want 2", got["workers"])
	}
	if got["error"] != "boom" {
		t.Errorf("error = %v, want boom", got["error"])
	}
}

func TestZerologAdapter_DisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	z.Debug("hidden", ports.String("k", "v"))
	z.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	z.Warn("shown")
	if buf.Len() == 0 {
		t.Error("expected warn output")
	}
}
