package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/question"
)

// Config holds connection details for the text-generation endpoint.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client implements question.TextGenerator against a hosted
// text-generation service. The bearer key travels in the request URL,
// which is what the hosted endpoint expects.
type Client struct {
	httpClient *http.Client
	endpoint   string
	logger     zerolog.Logger
}

var _ question.TextGenerator = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	endpoint := strings.TrimSuffix(cfg.URL, "/")
	if cfg.APIKey != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + "key=" + url.QueryEscape(cfg.APIKey)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		logger:     logger.With().Str("component", "ai_generator").Logger(),
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateText posts the instruction prompt and returns the raw
// delimited-text response.
func (c *Client) GenerateText(ctx context.Context, req question.GenerateRequest) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("generator endpoint not configured")
	}

	body, err := json.Marshal(generateRequest{Prompt: BuildPrompt(req)})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generator payload: %w", err)
	}
	return string(raw), nil
}

// BuildPrompt renders the strict-format instruction sent to the model.
// The format contract must stay in sync with question.ParseRecords.
func BuildPrompt(req question.GenerateRequest) string {
	return fmt.Sprintf(
		"Generate exactly %d %s multiple-choice trivia questions about %s. "+
			"Write one question per line with six fields separated by the | character: "+
			"question|option1|option2|option3|option4|correct answer. "+
			"The correct answer field must exactly match one of the four options. "+
			"Do not number the lines and do not output anything else.",
		req.Count, req.Difficulty, req.CategoryName)
}
