// Package edge implements speech synthesis through the Microsoft Edge
// online TTS service.
package edge

import (
	"context"
	"strings"

	"github.com/Blindtools/Api/internal/core/providers/tts"
	"github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/utils"

	"github.com/wujunwei928/edge-tts-go/edge_tts"
)

const defaultVoice = "en-US-AriaNeural"

func init() {
	tts.Register("edge", func(config *tts.Config, logger *utils.Logger) (tts.Provider, error) {
		return NewProvider(config, logger), nil
	})
}

// Provider synthesizes speech with Edge TTS. The service needs no API
// key, only outbound network access.
type Provider struct {
	*tts.BaseProvider
	logger *utils.Logger
}

func NewProvider(config *tts.Config, logger *utils.Logger) *Provider {
	return &Provider{
		BaseProvider: tts.NewBaseProvider(config),
		logger:       logger,
	}
}

func (p *Provider) Initialize() error {
	if p.Config().Voice == "" {
		p.Config().Voice = defaultVoice
	}
	return nil
}

func (p *Provider) Cleanup() error {
	return nil
}

func (p *Provider) Synthesize(ctx context.Context, text string, voice string) ([]byte, string, error) {
	const op = "edge.Synthesize"

	if strings.TrimSpace(text) == "" {
		return nil, "", errors.New(errors.KindValidation, op, "Text is required")
	}
	if voice == "" {
		voice = p.Config().Voice
	}

	communicate, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(voice))
	if err != nil {
		return nil, "", errors.Wrap(errors.KindUnavailable, op,
			"failed to connect to Edge TTS service", err)
	}

	type result struct {
		audio []byte
		err   error
	}
	done := make(chan result, 1)
	go func() {
		audio, err := communicate.Stream()
		done <- result{audio: audio, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, "", errors.Wrap(errors.KindProvider, op, "speech synthesis canceled", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, "", errors.Wrap(errors.KindProvider, op, "speech synthesis failed", r.err)
		}
		if len(r.audio) == 0 {
			return nil, "", errors.New(errors.KindProvider, op, "speech synthesis produced no audio")
		}
		p.logger.DebugTag("TTS", "synthesized %d bytes with voice %s", len(r.audio), voice)
		return r.audio, "audio/mpeg", nil
	}
}
