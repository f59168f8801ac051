package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentReminder, Output: &buf})

	l.InfoContext(context.Background(), "Sweep finished", FieldNotified, 2)
	out := buf.String()
	if !strings.Contains(out, "component=reminder") || !strings.Contains(out, "notified=2") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentAMQP).With(FieldDebtID, 7).Warn("publish failed")
	out = buf.String()
	if !strings.Contains(out, "component=amqp") || !strings.Contains(out, "debt_id=7") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation(OpSweep).WithDebt(3, "Budi", 100).WithError(nil)
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error must not add a field")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length mismatch")
	}
}
