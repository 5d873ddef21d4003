package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_careerlift/internal/engine"
)

// DefaultGenerateTimeout bounds one generation call.
const DefaultGenerateTimeout = 180 * time.Second

const statusTimeout = 5 * time.Second

// ErrAuthRequired matches every *AuthRequiredError.
var ErrAuthRequired = errors.New("ollama authentication required")

// AuthRequiredError reports a 401 from the generation backend.
// SigninURL is empty when the backend did not send one.
type AuthRequiredError struct {
	SigninURL string
}

func (e *AuthRequiredError) Error() string {
	if e.SigninURL == "" {
		return ErrAuthRequired.Error()
	}
	return ErrAuthRequired.Error() + ": sign in at " + e.SigninURL
}

func (e *AuthRequiredError) Is(target error) bool { return target == ErrAuthRequired }

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Ollama talks to the Ollama HTTP API.
type Ollama struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

// NewOllama creates a client. timeout <= 0 uses DefaultGenerateTimeout.
func NewOllama(baseURL, model, apiKey string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model name.
func (c *Ollama) Model() string { return c.model }

// Generate runs a non-streaming /api/generate call and returns the response text.
func (c *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	engine.IncrOllamaCalls()
	body, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		engine.IncrOllamaErrors()
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		engine.IncrOllamaErrors()
		return "", &AuthRequiredError{SigninURL: signinURL(resp.Body)}
	case resp.StatusCode != http.StatusOK:
		engine.IncrOllamaErrors()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ollama generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		engine.IncrOllamaErrors()
		return "", fmt.Errorf("ollama generate decode: %w", err)
	}
	return out.Response, nil
}

// Status is the availability report of the generation backend.
type Status struct {
	CurrentModel    string   `json:"current_model"`
	ModelAvailable  bool     `json:"model_available"`
	SigninRequired  bool     `json:"signin_required"`
	SigninURL       string   `json:"signin_url,omitempty"`
	AvailableModels []string `json:"available_models"`
	Error           string   `json:"error,omitempty"`
}

// Status lists models via /api/tags. Transport failures are reported in
// Status.Error rather than returned.
func (c *Ollama) Status(ctx context.Context) Status {
	st := Status{CurrentModel: c.model, AvailableModels: []string{}}

	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			st.Error = "Ollama service timeout"
		} else {
			st.Error = err.Error()
		}
		return st
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var tags struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			st.Error = fmt.Sprintf("decode tags: %v", err)
			return st
		}
		for _, m := range tags.Models {
			st.AvailableModels = append(st.AvailableModels, m.Name)
			if m.Name == c.model {
				st.ModelAvailable = true
			}
		}
	case http.StatusUnauthorized:
		st.SigninRequired = true
		st.SigninURL = signinURL(resp.Body)
	default:
		st.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return st
}

func (c *Ollama) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// signinURL reads {"signin_url": ...} from a 401 body, if present.
func signinURL(r io.Reader) string {
	var body struct {
		SigninURL string `json:"signin_url"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.SigninURL
}
