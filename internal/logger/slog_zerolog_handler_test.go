package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewSlog_BridgesRecordsAndContextFields(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info", Component: "test"}, &buf)
	log := NewSlog(&zl)

	ctx := WithRequestID(t.Context(), "req-123")
	ctx = WithCacheResult(ctx, "hit")
	log.InfoContext(ctx, "generation served",
		"mode", "focus",
		"elapsed", 250*time.Millisecond,
		"hit", true,
		"count", int64(3),
	)

	line := strings.TrimSpace(buf.String())
	var out map[string]any
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("log line is not json: %v\n%s", err, line)
	}
	if out["msg"] != "generation served" {
		t.Fatalf("msg = %v", out["msg"])
	}
	if out["request_id"] != "req-123" || out["cache_result"] != "hit" {
		t.Fatalf("context fields missing: %s", line)
	}
	if out["mode"] != "focus" || out["hit"] != true {
		t.Fatalf("record attrs missing: %s", line)
	}
	if out["component"] != "test" {
		t.Fatalf("component = %v", out["component"])
	}
}

func TestNewSlog_LevelMapping(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug"}, &buf)
	log := NewSlog(&zl)

	log.Warn("w")
	log.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"level":"warn"`) {
		t.Fatalf("warn line = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"error"`) {
		t.Fatalf("error line = %s", lines[1])
	}
}
