package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	dashboard "github.com/mozdados/mozdados/components/dashboard"
)

const (
	// DefaultBaseURL is the generative-language REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel answers chat prompts when no model is configured.
	DefaultModel = "gemini-2.5-flash"

	roleModel = "model"
)

// ErrEmptyReply is returned when the response carries no text part.
var ErrEmptyReply = errors.New("gemini: empty reply")

// Config configures the client.
type Config struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client implements dashboard.Assistant over the generateContent endpoint.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ dashboard.Assistant = (*Client)(nil)

// NewClient builds a client with defaults for empty fields.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: baseURL, model: model, client: httpClient}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Reply sends the transcript with the system instruction and returns the
// concatenated text of the first candidate.
func (c *Client) Reply(ctx context.Context, req dashboard.AssistantRequest) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", dashboard.ErrMissingAPIKey
	}
	body := generateRequest{Contents: contents(req.History)}
	if system := strings.TrimSpace(req.System); system != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("gemini: encode payload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", req.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return "", fmt.Errorf("gemini: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	return decoded.text()
}

func contents(history []dashboard.ChatMessage) []content {
	out := make([]content, 0, len(history))
	for _, msg := range history {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		role := msg.Role
		if role == dashboard.RoleAssistant {
			role = roleModel
		}
		out = append(out, content{Role: role, Parts: []part{{Text: text}}})
	}
	return out
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (r generateResponse) text() (string, error) {
	if r.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", r.PromptFeedback.BlockReason)
	}
	if len(r.Candidates) == 0 {
		return "", ErrEmptyReply
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
