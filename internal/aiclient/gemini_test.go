package aiclient

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSkipModeNeverCallsOut(t *testing.T) {
	g, err := NewGemini(context.Background(), "", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Close()

	_, err = g.Identify(context.Background(), []byte{0xff}, []Candidate{{ID: "m1"}})
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("identify err = %v, want ErrUnknown", err)
	}

	text, err := g.ComposeTemplate(context.Background(), "Bienvenida", "Juan", "amigable")
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(text, "Juan") {
		t.Fatalf("fallback %q should mention the member", text)
	}

	summary, err := g.AnalyticsSummary(context.Background(), `{"total":3}`)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary == "" {
		t.Fatal("skip mode should still answer something")
	}
}

func TestIdentifyRejectsEmptyInputs(t *testing.T) {
	g := &Gemini{model: "gemini-1.5-flash"}

	if _, err := g.Identify(context.Background(), nil, []Candidate{{ID: "m1"}}); !errors.Is(err, ErrUnknown) {
		t.Fatalf("empty frame err = %v, want ErrUnknown", err)
	}
	if _, err := g.Identify(context.Background(), []byte{0xff}, nil); !errors.Is(err, ErrUnknown) {
		t.Fatalf("empty roster err = %v, want ErrUnknown", err)
	}
}
