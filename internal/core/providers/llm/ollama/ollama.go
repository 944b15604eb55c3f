package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/core/providers/llm"
	"github.com/Blindtools/Api/internal/platform/errors"
)

const defaultBaseURL = "http://localhost:11434"

// Provider talks to a local Ollama daemon over its /api/chat endpoint.
type Provider struct {
	*llm.BaseProvider
	httpClient *http.Client
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []providers.Message    `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func init() {
	llm.Register("ollama", NewProvider)
}

func NewProvider(config *llm.Config) (llm.Provider, error) {
	return &Provider{
		BaseProvider: llm.NewBaseProvider(config),
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (p *Provider) Initialize() error {
	// Ollama needs no credentials, only a reachable daemon.
	if p.Config().BaseURL == "" {
		p.Config().BaseURL = defaultBaseURL
	}
	return nil
}

func (p *Provider) Cleanup() error {
	return nil
}

func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (string, error) {
	resp, err := p.send(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.KindProvider, "llm.ollama", "malformed Ollama response", err)
	}
	return out.Message.Content, nil
}

func (p *Provider) ChatStream(ctx context.Context, messages []providers.Message) (<-chan string, error) {
	responseChan := make(chan string, 10)

	go func() {
		defer close(responseChan)

		resp, err := p.send(ctx, messages, true)
		if err != nil {
			responseChan <- "[stream error: " + err.Error() + "]"
			return
		}
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for {
			var chunk chatResponse
			if err := decoder.Decode(&chunk); err != nil {
				break
			}
			if chunk.Message.Content != "" {
				responseChan <- chunk.Message.Content
			}
			if chunk.Done {
				break
			}
		}
	}()

	return responseChan, nil
}

func (p *Provider) send(ctx context.Context, messages []providers.Message, stream bool) (*http.Response, error) {
	config := p.Config()

	request := chatRequest{
		Model:    config.ModelName,
		Messages: messages,
		Stream:   stream,
	}
	if config.Temperature > 0 || config.TopP > 0 {
		request.Options = map[string]interface{}{}
		if config.Temperature > 0 {
			request.Options["temperature"] = config.Temperature
		}
		if config.TopP > 0 {
			request.Options["top_p"] = config.TopP
		}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, "llm.ollama", "encode Ollama request", err)
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimSuffix(config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, "llm.ollama", "build Ollama request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindProvider, "llm.ollama", "Ollama request failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New(errors.KindProvider, "llm.ollama",
			fmt.Sprintf("Ollama returned status %d", resp.StatusCode))
	}
	return resp, nil
}
