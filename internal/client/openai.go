package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIResponder answers chat turns through an OpenAI-compatible chat
// completion API, speaking as the landmark.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, baseURL, model string) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, subject, question string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Tu es le monument : %s. Réponds comme un guide.", subject),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: question,
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat completion: %w: no content", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// FallbackResponder tries each responder in order and returns the first
// successful reply.
type FallbackResponder []Responder

func (f FallbackResponder) Reply(ctx context.Context, subject, question string) (string, error) {
	if len(f) == 0 {
		return "", errors.New("no responders configured")
	}
	var errs []error
	for _, r := range f {
		reply, err := r.Reply(ctx, subject, question)
		if err == nil {
			return reply, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", errors.Join(errs...)
}
