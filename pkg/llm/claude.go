package llm

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const claudeDefaultModel = "claude-haiku-4-5-20251001"

// ClaudeOption configures the Claude client.
type ClaudeOption func(*claudeClient)

// WithClaudeModel overrides the default model.
func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) {
		c.model = model
	}
}

type claudeClient struct {
	client sdk.Client
	model  string
}

// NewClaude creates a completion client backed by the official Anthropic SDK.
func NewClaude(apiKey string, opts ...ClaudeOption) Client {
	c := &claudeClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  claudeDefaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *claudeClient) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "claude: create message")
	}

	text, ok := firstText(msg)
	if !ok {
		return "", eris.New("claude: response has no text content")
	}
	return text, nil
}

// firstText returns the first text block of a message.
func firstText(msg *sdk.Message) (string, bool) {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}
