package gemini_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadworks/lead-intel-pipeline/internal/classify"
	"github.com/leadworks/lead-intel-pipeline/internal/classify/gemini"
	"github.com/leadworks/lead-intel-pipeline/internal/mockoracle"
)

func newTestClassifier(t *testing.T, oracle *mockoracle.Server) *gemini.Classifier {
	t.Helper()

	ts := httptest.NewServer(oracle.Handler())
	t.Cleanup(ts.Close)

	c, err := gemini.New(context.Background(), gemini.Config{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: ts.URL,
	})
	if err != nil {
		t.Fatalf("create classifier: %v", err)
	}
	return c
}

func TestClassify_AgainstMockOracle(t *testing.T) {
	oracle := mockoracle.New()
	oracle.RespondWith("```json\n{\"urgency\":\"Medium\",\"persona_type\":\"Practitioner\",\"summary\":\"Engineer evaluating the product via a demo.\"}\n```")
	c := newTestClassifier(t, oracle)

	got, err := c.Classify(context.Background(), "Software Engineer", "Just exploring, might try the demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := classify.Result{
		Urgency:     "Medium",
		PersonaType: "Practitioner",
		Summary:     "Engineer evaluating the product via a demo.",
	}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}

	calls := oracle.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 oracle call, got %d", len(calls))
	}
	if calls[0].Model != "gemini-test" {
		t.Fatalf("unexpected model: %q", calls[0].Model)
	}
	if !strings.Contains(calls[0].Prompt, "Software Engineer") || !strings.Contains(calls[0].Prompt, "might try the demo") {
		t.Fatalf("prompt missing lead fields: %q", calls[0].Prompt)
	}
	if !strings.Contains(calls[0].System, "persona_type") || !strings.Contains(calls[0].System, "Decision Maker") {
		t.Fatalf("system instruction missing classification policy: %q", calls[0].System)
	}
}

func TestClassify_EmptyInputsAreValid(t *testing.T) {
	oracle := mockoracle.New()
	oracle.RespondWith(`{"urgency":"Low","persona_type":"Other","summary":"No detail provided."}`)
	c := newTestClassifier(t, oracle)

	got, err := c.Classify(context.Background(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Urgency != "Low" {
		t.Fatalf("unexpected result: %#v", got)
	}
}

func TestClassify_MalformedPayloadIsParseError(t *testing.T) {
	oracle := mockoracle.New()
	oracle.RespondWith("Sorry, I cannot help with that.")
	c := newTestClassifier(t, oracle)

	_, err := c.Classify(context.Background(), "VP of Sales", "Call me")
	var pe *classify.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestClassify_RateLimitIsRetryableUnavailable(t *testing.T) {
	oracle := mockoracle.New()
	oracle.EnqueueError(429, "rate limited")
	c := newTestClassifier(t, oracle)

	_, err := c.Classify(context.Background(), "VP of Sales", "Call me")
	var ue *classify.UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnavailableError, got %T: %v", err, err)
	}
	if !ue.Transient() {
		t.Fatalf("429 should be retryable: %v", err)
	}
}
