package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// ErrUpstream marks failures of the AI collaborator: a non-2xx response or
// an envelope the client cannot read. Callers match it with errors.Is.
var ErrUpstream = errors.New("upstream AI error")

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-pro:generateContent"

const promptTemplate = "You are an expert project manager. A user has provided the following project description: '%s'.\n" +
	"Based on this description, generate a list of high-level tasks required to complete the project.\n" +
	"Return the tasks as a JSON array of strings. For example: [\"Task 1\", \"Task 2\", \"Task 3\"].\n" +
	"IMPORTANT: Only output the raw JSON array. Do not include any other text, explanations, or Markdown code blocks like ```json."

// Request/response shapes of the Gemini generateContent API.
type geminiRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// Scoper asks the AI collaborator to propose a task list for a free-text
// project description. It holds no state between calls.
type Scoper struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type Option func(*Scoper)

// WithBaseURL overrides the Gemini endpoint; used by tests.
func WithBaseURL(url string) Option {
	return func(s *Scoper) { s.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scoper) { s.client = client }
}

func NewScoper(apiKey string, opts ...Option) *Scoper {
	s := &Scoper{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SuggestTasks returns the collaborator's reply verbatim. The reply is
// expected to be a JSON array of task-title strings, but it is untrusted
// text: this client does not parse, validate, or persist it. Turning
// suggestions into tasks is a separate, explicit caller action.
func (s *Scoper) SuggestTasks(ctx context.Context, description string) (string, error) {
	prompt := fmt.Sprintf(promptTemplate, description)
	body, err := json.Marshal(geminiRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encode AI request")
	}

	url := fmt.Sprintf("%s?key=%s", s.baseURL, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build AI request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrUpstream, "send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrUpstream, "API error: %s", resp.Status)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrapf(ErrUpstream, "decode response: %v", err)
	}

	if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
		return decoded.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", errors.Wrap(ErrUpstream, "no text found in AI response")
}
