package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Blindtools/Api/internal/domain/capability"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"
)

const defaultOllamaURL = "http://localhost:11434"

// Config for a multimodal backend.
type Config struct {
	Type        string
	ModelName   string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Provider sends images plus a capability instruction to a multimodal
// model and returns the textual result. It backs describe, analyze,
// classify, compare and OCR.
type Provider struct {
	config *Config
	logger *utils.Logger

	openaiClient *openai.Client
	httpClient   *http.Client
}

type ollamaRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"` // raw base64, no data URL marker
}

type ollamaResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

func NewProvider(config *Config, logger *utils.Logger) (*Provider, error) {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return &Provider{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (p *Provider) Initialize() error {
	switch strings.ToLower(p.config.Type) {
	case "openai":
		if p.config.APIKey == "" {
			return errors.New(errors.KindUnavailable, "vision.init",
				"Vision API key not configured")
		}
		clientConfig := openai.DefaultConfig(p.config.APIKey)
		if p.config.BaseURL != "" {
			clientConfig.BaseURL = p.config.BaseURL
		}
		p.openaiClient = openai.NewClientWithConfig(clientConfig)

	case "ollama":
		if p.config.BaseURL == "" {
			p.config.BaseURL = defaultOllamaURL
		}

	default:
		return errors.New(errors.KindUnavailable, "vision.init",
			fmt.Sprintf("unsupported vision provider type: %s", p.config.Type))
	}

	p.logger.DebugTag("VISION", "provider initialized: type=%s model=%s",
		p.config.Type, p.config.ModelName)
	return nil
}

func (p *Provider) Cleanup() error {
	return nil
}

// Name reports the backing provider type for result echoing.
func (p *Provider) Name() string {
	return strings.ToLower(p.config.Type)
}

func (p *Provider) Model() string {
	return p.config.ModelName
}

// Analyze runs one multimodal completion over the attached images with the
// fixed instruction selected for the capability.
func (p *Provider) Analyze(ctx context.Context, images []capability.Image, instruction string, opts capability.Options) (string, error) {
	if len(images) == 0 {
		return "", errors.New(errors.KindValidation, "vision.analyze", "Image is required")
	}

	p.logger.DebugTag("VISION", "invoke: type=%s model=%s images=%d",
		p.config.Type, p.config.ModelName, len(images))

	switch strings.ToLower(p.config.Type) {
	case "openai":
		return p.analyzeOpenAI(ctx, images, instruction, opts)
	case "ollama":
		return p.analyzeOllama(ctx, images, instruction, opts)
	default:
		return "", errors.New(errors.KindUnavailable, "vision.analyze",
			fmt.Sprintf("unsupported vision provider type: %s", p.config.Type))
	}
}

func (p *Provider) analyzeOpenAI(ctx context.Context, images []capability.Image, instruction string, opts capability.Options) (string, error) {
	if p.openaiClient == nil {
		return "", errors.New(errors.KindUnavailable, "vision.openai",
			"Vision API key not configured")
	}

	parts := make([]openai.ChatMessagePart, 0, len(images)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: instruction,
	})
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: fmt.Sprintf("data:image/%s;base64,%s",
					img.Format, base64.StdEncoding.EncodeToString(img.Bytes)),
			},
		})
	}

	request := openai.ChatCompletionRequest{
		Model: p.config.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   p.maxTokens(opts),
		Temperature: float32(p.temperature(opts)),
	}
	if p.config.TopP > 0 {
		request.TopP = float32(p.config.TopP)
	}

	resp, err := p.openaiClient.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", errors.Wrap(errors.KindProvider, "vision.openai", "Vision request failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindProvider, "vision.openai",
			"Vision provider returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) analyzeOllama(ctx context.Context, images []capability.Image, instruction string, opts capability.Options) (string, error) {
	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img.Bytes)
	}

	request := ollamaRequest{
		Model: p.config.ModelName,
		Messages: []ollamaMessage{
			{Role: "user", Content: instruction, Images: encoded},
		},
		Stream: false,
		Options: map[string]interface{}{
			"temperature": p.temperature(opts),
		},
	}
	if p.config.TopP > 0 {
		request.Options["top_p"] = p.config.TopP
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", errors.Wrap(errors.KindProvider, "vision.ollama", "encode Ollama request", err)
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimSuffix(p.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", errors.Wrap(errors.KindProvider, "vision.ollama", "build Ollama request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.KindProvider, "vision.ollama", "Ollama request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.KindProvider, "vision.ollama",
			fmt.Sprintf("Ollama returned status %d", resp.StatusCode))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.KindProvider, "vision.ollama", "malformed Ollama response", err)
	}

	return out.Message.Content, nil
}

func (p *Provider) maxTokens(opts capability.Options) int {
	if opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if p.config.MaxTokens > 0 {
		return p.config.MaxTokens
	}
	return 1000
}

func (p *Provider) temperature(opts capability.Options) float64 {
	if opts.Temperature > 0 {
		return opts.Temperature
	}
	return p.config.Temperature
}
