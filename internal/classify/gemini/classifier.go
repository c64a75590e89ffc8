// Package gemini implements the lead classifier against the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/leadworks/lead-intel-pipeline/internal/classify"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Classifier struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Classifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("gemini model is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

// systemInstruction is the fixed classification policy. The label
// definitions here are the source of truth for what each urgency and
// persona value means downstream.
const systemInstruction = `You are an AI marketing assistant that classifies inbound business leads for a B2B software company.
Your task is to analyze the lead's job title and comment and return a structured JSON object with the following fields:
{
  "urgency": "High | Medium | Low",
  "persona_type": "Decision Maker | Practitioner | Other",
  "summary": "<one-sentence summary of the lead's intent>"
}

Definitions:
- urgency:
  - High: clear buying intent, immediate request for contact or meeting.
  - Medium: exploring options or requesting demo without urgency.
  - Low: students, researchers, or general curiosity.
- persona_type:
  - Decision Maker: senior execs, heads, directors, C-levels, VPs.
  - Practitioner: technical implementers (analysts, engineers, specialists).
  - Other: students, interns, journalists, or non-business contexts.

Always return valid JSON and nothing else.`

func (c *Classifier) Classify(ctx context.Context, jobTitle, comment string) (classify.Result, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(buildPrompt(jobTitle, comment)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			CandidateCount:    1,
		},
	)
	if err != nil {
		return classify.Result{}, classifyErr(err)
	}
	return ParseResponse(resp.Text())
}

func buildPrompt(jobTitle, comment string) string {
	// No PII beyond the two fields required for classification; the email is
	// deliberately not sent to the oracle.
	return strings.TrimSpace(`
Lead details:
Job Title: ` + jobTitle + `
Comment: ` + comment + `
Return the analysis strictly in JSON format.
`)
}

// fenceRe matches Markdown code-fence markers, with or without a language
// tag, that models sometimes wrap around a JSON payload.
var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

// StripFences removes code-fence markers from a raw oracle response.
// Applying it to already-clean text is a no-op, so it is idempotent.
func StripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
}

type responsePayload struct {
	Urgency     *string `json:"urgency"`
	PersonaType *string `json:"persona_type"`
	Summary     *string `json:"summary"`
}

// ParseResponse decodes a raw textual oracle response into a Result.
//
// Invalid JSON or a missing required key yields a classify.ParseError.
func ParseResponse(raw string) (classify.Result, error) {
	cleaned := StripFences(raw)
	var p responsePayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return classify.Result{}, &classify.ParseError{Reason: "invalid JSON", Err: err}
	}
	if p.Urgency == nil || p.PersonaType == nil || p.Summary == nil {
		return classify.Result{}, &classify.ParseError{Reason: "missing required field"}
	}
	return classify.Result{
		Urgency:     strings.TrimSpace(*p.Urgency),
		PersonaType: strings.TrimSpace(*p.PersonaType),
		Summary:     strings.TrimSpace(*p.Summary),
	}, nil
}

// classifyErr maps transport failures onto classify.UnavailableError and
// decides which of them the worker pool may retry.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == 429 || apiErr.Code/100 == 5
		return &classify.UnavailableError{Err: err, Retryable: retryable}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &classify.UnavailableError{Err: err, Retryable: true}
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return &classify.UnavailableError{Err: err, Retryable: ne.Timeout() || ne.Temporary()}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &classify.UnavailableError{Err: err, Retryable: false}
}
