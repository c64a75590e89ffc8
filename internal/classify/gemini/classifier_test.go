package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/leadworks/lead-intel-pipeline/internal/classify"
	"google.golang.org/genai"
)

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"urgency":"High"}`, want: `{"urgency":"High"}`},
		{name: "bare_fences", in: "```\n{\"urgency\":\"High\"}\n```", want: `{"urgency":"High"}`},
		{name: "json_tagged_fences", in: "```json\n{\"urgency\":\"High\"}\n```", want: `{"urgency":"High"}`},
		{name: "uppercase_tag", in: "```JSON\n{}\n```", want: `{}`},
		{name: "surrounding_whitespace", in: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripFences(tt.in)
			if got != tt.want {
				t.Fatalf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := StripFences(got); again != got {
				t.Fatalf("StripFences not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Parallel()

	valid := `{"urgency":"High","persona_type":"Decision Maker","summary":"Wants a pricing call this week."}`
	want := classify.Result{
		Urgency:     "High",
		PersonaType: "Decision Maker",
		Summary:     "Wants a pricing call this week.",
	}

	t.Run("plain_payload", func(t *testing.T) {
		got, err := ParseResponse(valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	})

	t.Run("fenced_payload_parses_identically", func(t *testing.T) {
		fenced, err := ParseResponse("```json\n" + valid + "\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		plain, err := ParseResponse(valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fenced != plain {
			t.Fatalf("fenced %#v != plain %#v", fenced, plain)
		}
	})

	t.Run("field_whitespace_trimmed", func(t *testing.T) {
		got, err := ParseResponse(`{"urgency":" High ","persona_type":" Practitioner","summary":"x "}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Urgency != "High" || got.PersonaType != "Practitioner" || got.Summary != "x" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("invalid_json_is_parse_error", func(t *testing.T) {
		_, err := ParseResponse("I could not classify this lead.")
		var pe *classify.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %T: %v", err, err)
		}
	})

	t.Run("missing_key_is_parse_error", func(t *testing.T) {
		_, err := ParseResponse(`{"urgency":"High","summary":"no persona"}`)
		var pe *classify.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %T: %v", err, err)
		}
	})
}

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temp net err" }
func (tempNetErr) Timeout() bool   { return false }
func (tempNetErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		in            error
		wantRetryable bool
	}{
		{name: "api_429", in: genai.APIError{Code: 429}, wantRetryable: true},
		{name: "api_500", in: genai.APIError{Code: 500}, wantRetryable: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantRetryable: true},
		{name: "api_401", in: genai.APIError{Code: 401}, wantRetryable: false},
		{name: "api_400", in: genai.APIError{Code: 400}, wantRetryable: false},
		{name: "net_temporary", in: tempNetErr{}, wantRetryable: true},
		{name: "deadline", in: context.DeadlineExceeded, wantRetryable: true},
		{name: "opaque", in: errors.New("broken pipe"), wantRetryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var ue *classify.UnavailableError
			if !errors.As(got, &ue) {
				t.Fatalf("expected UnavailableError, got %T: %v", got, got)
			}
			if ue.Transient() != tt.wantRetryable {
				t.Fatalf("retryable=%v want=%v (err=%v)", ue.Transient(), tt.wantRetryable, got)
			}
		})
	}
}
