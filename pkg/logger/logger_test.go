package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}
	namedLogger.Info(context.Background(), "test message")
}

func TestJSONFormatCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatJSON)

	ctx := WithRequestID(context.Background(), "req-1")
	l.Info(ctx, "served", String("slug", "top-games"), Int("rows", 3), Bool("hit", true),
		Duration("took", 5*time.Millisecond), Strings("regions", []string{"US", "EU"}), Error(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if rec["request_id"] != "req-1" {
		t.Errorf("request_id = %v", rec["request_id"])
	}
	if rec["slug"] != "top-games" || rec["msg"] != "served" {
		t.Errorf("unexpected record %v", rec)
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %q, want caller file", src)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, FormatText)

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	defer SetLevel(0)

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level filter not applied: %q", buf.String())
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	if err := SetFormat("JSON"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = SetFormat(FormatText)
	}()

	Get().Info(context.Background(), "hello")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("expected json output, got %q", buf.String())
	}
	if err := SetFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRequestIDMissing(t *testing.T) {
	if RequestID(context.Background()) != "" {
		t.Error("expected empty request id")
	}
	//nolint:staticcheck // nil context is tolerated
	if RequestID(nil) != "" {
		t.Error("expected empty request id for nil context")
	}
}

func TestFatalExits(t *testing.T) {
	var code int
	l := &slogLogger{Logger: New(&bytes.Buffer{}, FormatText).(*slogLogger).Logger, exit: func(c int) { code = c }}
	l.Fatal(context.Background(), "bye")
	if code != 1 {
		t.Errorf("exit code = %d", code)
	}
}
