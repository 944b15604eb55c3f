package openai

import (
	"context"

	"github.com/sashabaranov/go-openai"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/core/providers/llm"
	"github.com/Blindtools/Api/internal/platform/errors"
)

// Provider talks to the OpenAI chat completion API, or any compatible
// endpoint reachable through a custom base URL.
type Provider struct {
	*llm.BaseProvider
	client    *openai.Client
	maxTokens int
}

func init() {
	llm.Register("openai", NewProvider)
}

func NewProvider(config *llm.Config) (llm.Provider, error) {
	provider := &Provider{
		BaseProvider: llm.NewBaseProvider(config),
		maxTokens:    config.MaxTokens,
	}
	if provider.maxTokens <= 0 {
		provider.maxTokens = 500
	}
	return provider, nil
}

func (p *Provider) Initialize() error {
	config := p.Config()
	if config.APIKey == "" {
		return errors.New(errors.KindUnavailable, "llm.openai",
			"OpenAI API key not configured")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	p.client = openai.NewClientWithConfig(clientConfig)
	return nil
}

func (p *Provider) Cleanup() error {
	return nil
}

func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (string, error) {
	if p.client == nil {
		return "", errors.New(errors.KindUnavailable, "llm.openai",
			"OpenAI API key not configured")
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.Config().ModelName,
		Messages:  convertMessages(messages),
		MaxTokens: p.maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(errors.KindProvider, "llm.openai", "OpenAI request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindProvider, "llm.openai",
			"OpenAI returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) ChatStream(ctx context.Context, messages []providers.Message) (<-chan string, error) {
	if p.client == nil {
		return nil, errors.New(errors.KindUnavailable, "llm.openai",
			"OpenAI API key not configured")
	}

	responseChan := make(chan string, 10)

	go func() {
		defer close(responseChan)

		stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:     p.Config().ModelName,
			Messages:  convertMessages(messages),
			Stream:    true,
			MaxTokens: p.maxTokens,
		})
		if err != nil {
			responseChan <- "[stream error: " + err.Error() + "]"
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				break
			}
			if len(response.Choices) > 0 {
				if content := response.Choices[0].Delta.Content; content != "" {
					responseChan <- content
				}
			}
		}
	}()

	return responseChan, nil
}

func convertMessages(messages []providers.Message) []openai.ChatCompletionMessage {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return chatMessages
}
