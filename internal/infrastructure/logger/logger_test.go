package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFormatsOutput(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		level      string
		assertions func(t *testing.T, output string)
	}{
		{
			name:   "json format includes service and message",
			format: "json",
			level:  "info",
			assertions: func(t *testing.T, output string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &entry); err != nil {
					t.Fatalf("expected json output, got %q: %v", output, err)
				}
				if entry["message"] != "split computed" || entry["service"] != "gosplit" {
					t.Fatalf("unexpected entry: %v", entry)
				}
			},
		},
		{
			name:   "console format is human readable",
			format: "console",
			level:  "info",
			assertions: func(t *testing.T, output string) {
				if !strings.Contains(output, "split computed") {
					t.Fatalf("expected message in console output, got %q", output)
				}
				if strings.HasPrefix(output, "{") {
					t.Fatalf("expected non-json console output, got %q", output)
				}
			},
		},
		{
			name:   "level filters lower entries",
			format: "json",
			level:  "error",
			assertions: func(t *testing.T, output string) {
				if output != "" {
					t.Fatalf("expected info entry to be filtered, got %q", output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: tt.level, Format: tt.format, Service: "gosplit", Output: &buf})

			l.Info().Msg("split computed")

			tt.assertions(t, buf.String())
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf})

	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info().Msg("from context")

	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("expected context logger to write, got %q", buf.String())
	}
}
