package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stylelens/backend/internal/domain"
)

// Client invokes an OpenRouter-compatible chat-completions API with an image
// and a textual prompt. One Invoke is one bounded call: the context deadline
// set by the caller is the only timeout race, and there are no retries -
// resubmission policy belongs to the extraction caller.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
}

// NewClient creates a new vision model client. requestsPerMinute guards the
// provider quota; 0 disables pacing.
func NewClient(apiKey, baseURL, model string, requestsPerMinute int, logger zerolog.Logger) *Client {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}

	return &Client{
		// Backstop timeout; per-call deadlines come from the caller's context
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: rate.NewLimiter(limit, 2),
		logger:      logger.With().Str("component", "vision").Logger(),
	}
}

// chat-completions wire types
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Invoke sends one image+prompt request and returns the raw response text
// with its token usage counts
func (c *Client) Invoke(ctx context.Context, image domain.EncodedImage, prompt string) (*domain.VisionResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrVisionUnavailable, err)
	}

	body, err := json.Marshal(c.buildRequest(image, prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVisionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Warn().Int("status", resp.StatusCode).Msg("vision API returned non-200")
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrVisionUnavailable, resp.StatusCode, truncate(string(respBody), 200))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", domain.ErrMalformedResponse)
	}

	c.logger.Debug().
		Int("prompt_tokens", chat.Usage.PromptTokens).
		Int("completion_tokens", chat.Usage.CompletionTokens).
		Msg("vision call completed")

	return &domain.VisionResult{
		Text: chat.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			PromptUnits:     chat.Usage.PromptTokens,
			CompletionUnits: chat.Usage.CompletionTokens,
		},
	}, nil
}

// buildRequest constructs the chat request with the image as a data URL
func (c *Client) buildRequest(image domain.EncodedImage, prompt string) *chatRequest {
	mime := image.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image.Data))

	return &chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		Stream: false,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
