package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewJSONLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.With(String("component", "interference")).Debug(context.Background(), "evaluated",
		Float64("snr", 12.5),
		Power("rx_power", 3.2e-9),
		Err(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "evaluated" {
		t.Fatalf("msg = %v, want evaluated", entry["msg"])
	}
	if entry["component"] != "interference" {
		t.Fatalf("component = %v, want interference", entry["component"])
	}
	if entry["snr"] != 12.5 {
		t.Fatalf("snr = %v, want 12.5", entry["snr"])
	}
	if got, _ := entry["rx_power"].(string); !strings.HasSuffix(got, "nW") {
		t.Fatalf("rx_power = %q, want nW suffix", got)
	}
	if entry["error"] != "boom" {
		t.Fatalf("error = %v, want boom", entry["error"])
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf})

	log.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	log.Info(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("info line missing: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	fallback := Noop()
	if got := LoggerFromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("LoggerFromContext without logger should return fallback")
	}

	var buf bytes.Buffer
	l := New(Config{Output: &buf})
	ctx := ContextWithLogger(context.Background(), l)
	LoggerFromContext(ctx, fallback).Info(ctx, "from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("context logger did not write: %q", buf.String())
	}
}
