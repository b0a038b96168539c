package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	glmDefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"
	glmDefaultModel   = "glm-4"
)

// glmChatRequest is the request body for POST /chat/completions.
type glmChatRequest struct {
	Model       string       `json:"model"`
	Messages    []glmMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
	MaxTokens   *int         `json:"max_tokens,omitempty"`
}

// glmMessage is a single message in the conversation.
type glmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// glmChatResponse is the response from POST /chat/completions.
type glmChatResponse struct {
	ID      string      `json:"id"`
	Choices []glmChoice `json:"choices"`
}

// glmChoice is a single completion choice.
type glmChoice struct {
	Index   int        `json:"index"`
	Message glmMessage `json:"message"`
}

// GLMOption configures the GLM client.
type GLMOption func(*glmClient)

// WithGLMBaseURL overrides the default API base URL.
func WithGLMBaseURL(url string) GLMOption {
	return func(c *glmClient) {
		c.baseURL = url
	}
}

// WithGLMModel overrides the default model.
func WithGLMModel(model string) GLMOption {
	return func(c *glmClient) {
		c.model = model
	}
}

// WithGLMHTTPClient overrides the default http.Client.
func WithGLMHTTPClient(hc *http.Client) GLMOption {
	return func(c *glmClient) {
		c.http = hc
	}
}

type glmClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// NewGLM creates a Zhipu GLM chat-completion client.
func NewGLM(apiKey string, opts ...GLMOption) Client {
	c := &glmClient{
		apiKey:  apiKey,
		baseURL: glmDefaultBaseURL,
		model:   glmDefaultModel,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// retryableStatus returns true if the HTTP status should trigger a retry.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

func (c *glmClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := glmChatRequest{
		Model:    c.model,
		Messages: []glmMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.Temperature > 0 {
		chatReq.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = &req.MaxTokens
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", eris.Wrap(err, "glm: marshal request")
	}

	respBody, err := c.postWithRetry(ctx, c.baseURL+"/chat/completions", body)
	if err != nil {
		return "", err
	}

	var result glmChatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", eris.Wrap(err, "glm: unmarshal response")
	}
	if len(result.Choices) == 0 {
		return "", eris.New("glm: response has no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// postWithRetry executes a POST with exponential backoff on transient
// failures (429, 500, 502, 503).
func (c *glmClient) postWithRetry(ctx context.Context, url string, body []byte) ([]byte, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "glm: create request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(httpReq)
		if err != nil {
			lastErr = eris.Wrap(err, "glm: send request")
		} else {
			respBody, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				return nil, eris.Wrap(readErr, "glm: read response")
			}
			if resp.StatusCode == http.StatusOK {
				return respBody, nil
			}
			lastErr = eris.Errorf("glm: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if !retryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}
