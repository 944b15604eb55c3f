// Package assist exposes the AI capability endpoints: chat, OCR, image
// description, analysis, classification, comparison and speech.
package assist

import (
	"context"
	"strings"

	"github.com/Blindtools/Api/internal/core/providers/llm"
	"github.com/Blindtools/Api/internal/core/providers/tts"
	"github.com/Blindtools/Api/internal/core/providers/vision"
	"github.com/Blindtools/Api/internal/domain/batch"
	"github.com/Blindtools/Api/internal/domain/upload"
	"github.com/Blindtools/Api/internal/platform/config"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"

	"github.com/gin-gonic/gin"
)

// Service owns the provider adapters and the upload intake.
type Service struct {
	cfg    *config.Config
	logger *utils.Logger
	intake *upload.Intake
	runner *batch.Runner

	llms       map[string]llm.Provider
	llmErrs    map[string]error
	visions    map[string]*vision.Provider
	visionErrs map[string]error
	speech     tts.Provider
	speechErr  error
}

// NewService builds every configured provider. A provider that fails to
// initialize (typically missing credentials) stays registered and
// reports provider-unavailable when first used, so the service still
// boots for the capabilities that are configured.
func NewService(cfg *config.Config, logger *utils.Logger) (*Service, error) {
	const op = "assist.NewService"

	if cfg == nil {
		return nil, errors.New(errors.KindConfig, op, "config is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, op, "logger is required")
	}

	s := &Service{
		cfg:        cfg,
		logger:     logger,
		intake:     upload.NewIntake(cfg.Upload, logger),
		runner:     batch.NewRunner(cfg.Batch.Delay.Std(), logger),
		llms:       make(map[string]llm.Provider),
		llmErrs:    make(map[string]error),
		visions:    make(map[string]*vision.Provider),
		visionErrs: make(map[string]error),
	}

	for name, entry := range cfg.LLM {
		provider, err := llm.Create(&llm.Config{
			Type:        entry.Type,
			ModelName:   entry.ModelName,
			BaseURL:     entry.BaseURL,
			APIKey:      entry.APIKey,
			Temperature: entry.Temperature,
			MaxTokens:   entry.MaxTokens,
			TopP:        entry.TopP,
		})
		if err != nil {
			return nil, err
		}
		s.llms[name] = provider
		if err := provider.Initialize(); err != nil {
			logger.WarnTag("CHAT", "provider %s unavailable: %v", name, err)
			s.llmErrs[name] = err
		}
	}

	for name, entry := range cfg.Vision {
		provider, err := vision.NewProvider(&vision.Config{
			Type:        entry.Type,
			ModelName:   entry.ModelName,
			BaseURL:     entry.BaseURL,
			APIKey:      entry.APIKey,
			Temperature: entry.Temperature,
			MaxTokens:   entry.MaxTokens,
			TopP:        entry.TopP,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.visions[name] = provider
		if err := provider.Initialize(); err != nil {
			logger.WarnTag("VISION", "provider %s unavailable: %v", name, err)
			s.visionErrs[name] = err
		}
	}

	if entry, ok := cfg.TTS[cfg.Selected.TTS]; ok {
		provider, err := tts.Create(&tts.Config{
			Type:      entry.Type,
			Voice:     entry.Voice,
			Format:    entry.Format,
			OutputDir: entry.OutputDir,
		}, logger)
		if err != nil {
			return nil, err
		}
		s.speech = provider
		if err := provider.Initialize(); err != nil {
			logger.WarnTag("TTS", "provider %s unavailable: %v", cfg.Selected.TTS, err)
			s.speechErr = err
		}
	}

	return s, nil
}

// Register attaches the capability routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/chat", s.handleChat)
	router.POST("/ocr", s.handleOCR)
	router.POST("/ocr/batch", s.handleOCRBatch)
	router.POST("/describe-image", s.handleDescribe)
	router.POST("/analyze-image", s.handleAnalyze)
	router.POST("/analyze-image/batch", s.handleAnalyzeBatch)
	router.POST("/classify-image", s.handleClassify)
	router.POST("/compare-images", s.handleCompare)
	router.POST("/tts", s.handleTTS)

	s.logger.InfoTag("HTTP", "assist routes registered (%d llm, %d vision providers)",
		len(s.llms), len(s.visions))
	return nil
}

// Cleanup releases every provider.
func (s *Service) Cleanup() {
	for _, p := range s.llms {
		_ = p.Cleanup()
	}
	for _, p := range s.visions {
		_ = p.Cleanup()
	}
	if s.speech != nil {
		_ = s.speech.Cleanup()
	}
}

// LLMNames lists the configured chat provider entries.
func (s *Service) LLMNames() []string {
	names := make([]string, 0, len(s.llms))
	for name := range s.llms {
		names = append(names, name)
	}
	return names
}

// VisionNames lists the configured vision provider entries.
func (s *Service) VisionNames() []string {
	names := make([]string, 0, len(s.visions))
	for name := range s.visions {
		names = append(names, name)
	}
	return names
}

// DefaultLLM resolves the selected chat provider, for the websocket
// relay.
func (s *Service) DefaultLLM() (llm.Provider, error) {
	return s.llmFor("")
}

// llmFor resolves the chat provider serving a request. The request may
// name a configuration entry or a provider type; otherwise the selected
// default applies.
func (s *Service) llmFor(requested string) (llm.Provider, error) {
	const op = "assist.llmFor"

	name := s.resolveName(requested, s.cfg.Selected.LLM, func(entry string) string {
		return s.cfg.LLM[entry].Type
	}, keys(s.llms))
	provider, ok := s.llms[name]
	if !ok {
		return nil, errors.New(errors.KindUnavailable, op, "No chat provider configured")
	}
	if err := s.llmErrs[name]; err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *Service) visionFor(requested string) (*vision.Provider, error) {
	const op = "assist.visionFor"

	name := s.resolveName(requested, s.cfg.Selected.Vision, func(entry string) string {
		return s.cfg.Vision[entry].Type
	}, keys(s.visions))
	provider, ok := s.visions[name]
	if !ok {
		return nil, errors.New(errors.KindUnavailable, op, "No vision provider configured")
	}
	if err := s.visionErrs[name]; err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *Service) resolveName(requested, selected string, typeOf func(string) string, entries []string) string {
	if requested == "" {
		return selected
	}
	for _, entry := range entries {
		if strings.EqualFold(entry, requested) || strings.EqualFold(typeOf(entry), requested) {
			return entry
		}
	}
	return selected
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
