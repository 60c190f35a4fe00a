package openai

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned when no API key is present. Handlers map it
// to 503 so clients can tell a deployment problem from an empty answer.
var ErrNotConfigured = errors.New("openai not configured")

const defaultModel = "gpt-4o-mini"

type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

func NewClient() *Client {
	key := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}
	timeout := 60 * time.Second
	if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	c := &Client{model: model, timeout: timeout}
	if key != "" {
		c.api = openai.NewClient(key)
	}
	return c
}

// Generate sends a single-turn completion request and returns the text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
