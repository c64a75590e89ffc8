// Package mockoracle implements a minimal Gemini-API-shaped HTTP server so
// the real classifier can be exercised through its BaseURL override without
// touching the network.
package mockoracle

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// Call records one generateContent request made to the mock service.
type Call struct {
	Model  string
	System string
	Prompt string
}

type scripted struct {
	status int
	body   string
}

// Server serves the single generateContent endpoint the classifier uses.
type Server struct {
	mu sync.Mutex

	calls []Call

	// text is the default candidate text returned for every call.
	text string

	// queue holds one-shot scripted responses consumed before the default.
	queue []scripted
}

func New() *Server {
	return &Server{text: "{}"}
}

// RespondWith sets the candidate text returned for subsequent calls.
func (s *Server) RespondWith(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// EnqueueError scripts a one-shot error response in the Gemini API error
// envelope with the given HTTP status.
func (s *Server) EnqueueError(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"status":  http.StatusText(status),
		},
	})
	s.queue = append(s.queue, scripted{status: status, body: string(b)})
}

// Calls returns a copy of the recorded requests.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

type content struct {
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
	Role string `json:"role"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction"`
}

func firstText(c *content) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, p := range c.Parts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Handler returns an http.Handler serving the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}

		model := r.URL.Path
		if i := strings.LastIndex(model, "/models/"); i >= 0 {
			model = model[i+len("/models/"):]
		}
		model = strings.TrimSuffix(model, ":generateContent")

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		var prompt string
		if len(req.Contents) > 0 {
			prompt = firstText(&req.Contents[len(req.Contents)-1])
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Model:  model,
			System: firstText(req.SystemInstruction),
			Prompt: prompt,
		})
		var next *scripted
		if len(s.queue) > 0 {
			next = &s.queue[0]
			s.queue = s.queue[1:]
		}
		text := s.text
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if next != nil {
			w.WriteHeader(next.status)
			_, _ = w.Write([]byte(next.body))
			return
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{{"text": text}},
						"role":  "model",
					},
					"finishReason": "STOP",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}
