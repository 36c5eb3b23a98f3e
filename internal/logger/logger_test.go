package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDefaultAndDiscard(t *testing.T) {
	t.Parallel()
	for _, log := range []Logger{Default(), Discard()} {
		if log == nil {
			t.Fatal("nil logger")
		}
		// Should not panic
		log.Debug("debug message")
		log.Info("info message")
		log.With("k", 1).WithGroup("g").Error("error message")
	}
}

func TestFromSlog(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	FromSlog(slog.New(slog.NewTextHandler(&buf, nil))).With("file", "a.qwi").Info("opened")
	if !strings.Contains(buf.String(), "msg=opened file=a.qwi") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
	// Should not panic
	FromSlog(nil).Error("dropped")
}

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("hello", "key", "value")

	output := buf.String()
	if !strings.Contains(output, `"msg":"hello"`) {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Fatalf("expected key in JSON output, got: %s", output)
	}
	if strings.Contains(output, `"source"`) {
		t.Fatalf("unexpected source attribute: %s", output)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")
	if buf.Len() > 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}
	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestPretty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelDebug)
	log.With("file", "a b.qwi").WithGroup("element").Info("decoded", "index", 2, "took", 1500*time.Millisecond)

	output := buf.String()
	for _, want := range []string{"INFO", "decoded", `file="a b.qwi"`, "element.index=2", "element.took=1.5s"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "element.file") {
		t.Fatalf("attribute added before the group was prefixed: %s", output)
	}
	if strings.Count(output, "\n") != 1 {
		t.Fatalf("expected one line, got: %q", output)
	}
}

func TestPrettyLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelWarn)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %s", buf.String())
	}
	log.Error("shown")
	if !strings.Contains(buf.String(), ansiRed) {
		t.Fatalf("expected red error level, got: %q", buf.String())
	}
}

func TestPrettyGroupAttr(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo)
	log.Info("size", slog.Group("canvas", "w", 640, "h", 480))
	if !strings.Contains(buf.String(), "canvas.w=640 canvas.h=480") {
		t.Fatalf("group not flattened: %s", buf.String())
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"plain":     false,
		"two words": true,
		"a=b":       true,
		`say "hi"`:  true,
		"tab\there": true,
		"":          false,
	}
	for in, want := range cases {
		if got := needsQuoting(in); got != want {
			t.Errorf("needsQuoting(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithGroupEmptyName(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatal("empty group should return the same handler")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) || h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("nil options should default to info")
	}
}

func TestContext(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("from context")
	if !strings.Contains(buf.String(), "from context") {
		t.Fatalf("context logger not used: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		" DEBUG ":  slog.LevelDebug,
		"info":     slog.LevelInfo,
		"Warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"ERROR":    slog.LevelError,
		"verbose":  slog.LevelInfo,
		"":         slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
