package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestErrorCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "logger-test", Output: &buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithCustomerID(ctx, "cust-9")
	ctx = log.WithOrderID(ctx, "ord-42")

	log.Error(ctx, "boom", errors.New("boom"))

	entry := buf.String()
	for _, field := range []string{`"request_id":"req-123"`, `"customer_id":"cust-9"`, `"order_id":"ord-42"`, `"stack"`} {
		if !strings.Contains(entry, field) {
			t.Fatalf("expected %s in entry: %s", field, entry)
		}
	}
}

func TestWarnStackToggle(t *testing.T) {
	var quiet, noisy bytes.Buffer

	New(Options{ServiceName: "logger-test", Output: &quiet}).Warn(context.Background(), "warned")
	if strings.Contains(quiet.String(), `"stack"`) {
		t.Fatalf("stack must be off by default: %s", quiet.String())
	}

	New(Options{ServiceName: "logger-test", Output: &noisy, WarnStack: true}).Warn(context.Background(), "warned")
	if !strings.Contains(noisy.String(), `"stack"`) {
		t.Fatalf("expected stack when WarnStack is set: %s", noisy.String())
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"garbage": zerolog.InfoLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
