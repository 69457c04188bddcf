package observability_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"polychat/internal/observability"
)

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger("docstore", "v1.2.3", &buf, "debug", observability.FormatJSON)
	log.Debug().Str("conversation_id", "u1_u2").Msg("appended")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for k, want := range map[string]string{
		"service":         "docstore",
		"version":         "v1.2.3",
		"level":           "debug",
		"message":         "appended",
		"conversation_id": "u1_u2",
	} {
		if got, _ := line[k].(string); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if _, ok := line["host"]; !ok {
		t.Error("missing host field")
	}
	if _, ok := line["time"]; !ok {
		t.Error("missing time field")
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := observability.NewLogger("polychat", "dev", &buf, "warn", observability.FormatJSON)
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info line written at warn level: %q", buf.String())
	}
	log.Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("warn line not written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" ERROR ": zerolog.ErrorLevel,
		"trace":   zerolog.TraceLevel,
	}
	for in, want := range tests {
		if got := observability.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
