package assist

import (
	"context"
	"encoding/base64"

	"github.com/Blindtools/Api/internal/core/providers"
	"github.com/Blindtools/Api/internal/core/providers/vision"
	"github.com/Blindtools/Api/internal/domain/capability"
	"github.com/Blindtools/Api/internal/domain/envelope"
	"github.com/Blindtools/Api/internal/domain/upload"
	"github.com/Blindtools/Api/internal/platform/errors"
	httptransport "github.com/Blindtools/Api/internal/transport/http"

	"github.com/gin-gonic/gin"
)

func (s *Service) handleChat(c *gin.Context) {
	const op = "assist.handleChat"
	c.Set("capability", string(capability.Chat))

	in, err := s.decode(c)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	defer in.release()

	message := in.values["message"]
	if message == "" {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op, "Message is required"))
		return
	}
	opts, err := capability.ParseOptions(capability.Chat, in.values)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}

	provider, err := s.llmFor(opts.Provider)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	c.Set("provider", provider.Model())

	messages := make([]providers.Message, 0, 2)
	if s.cfg.System.ChatPrompt != "" {
		messages = append(messages, providers.Message{
			Role:    providers.RoleSystem,
			Content: s.cfg.System.ChatPrompt,
		})
	}
	messages = append(messages, providers.Message{
		Role:    providers.RoleUser,
		Content: message,
	})

	reply, err := provider.Chat(c.Request.Context(), messages)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"response": reply,
		"model":    provider.Model(),
	})
}

// visionCall runs the shared single-image pipeline: decode, check the
// attachment count, parse options, pick the provider and issue the
// multimodal request.
func (s *Service) visionCall(c *gin.Context, kind capability.Capability, wantImages int) (string, capability.Options, *vision.Provider, bool) {
	c.Set("capability", string(kind))

	in, err := s.decode(c)
	if err != nil {
		httptransport.RespondError(c, err)
		return "", capability.Options{}, nil, false
	}
	defer in.release()

	if err := requireImages(in, kind, wantImages); err != nil {
		httptransport.RespondError(c, err)
		return "", capability.Options{}, nil, false
	}
	opts, err := capability.ParseOptions(kind, in.values)
	if err != nil {
		httptransport.RespondError(c, err)
		return "", capability.Options{}, nil, false
	}

	provider, err := s.visionFor(opts.Provider)
	if err != nil {
		httptransport.RespondError(c, err)
		return "", capability.Options{}, nil, false
	}
	c.Set("provider", provider.Name())

	images := toImages(in.artifacts)
	out, err := provider.Analyze(c.Request.Context(), images, vision.Instruction(kind, opts), opts)
	if err != nil {
		httptransport.RespondError(c, err)
		return "", capability.Options{}, nil, false
	}
	return out, opts, provider, true
}

func requireImages(in *input, kind capability.Capability, want int) error {
	const op = "assist.requireImages"

	n := len(in.artifacts)
	if kind == capability.CompareImages {
		if n != 2 {
			return errors.New(errors.KindValidation, op, "Exactly two image files are required")
		}
		return nil
	}
	if want > 0 && n < want {
		return errors.New(errors.KindValidation, op, "Image file is required")
	}
	return nil
}

func toImages(artifacts []*upload.Artifact) []capability.Image {
	images := make([]capability.Image, 0, len(artifacts))
	for _, a := range artifacts {
		images = append(images, a.Image())
	}
	return images
}

func (s *Service) handleOCR(c *gin.Context) {
	out, opts, provider, ok := s.visionCall(c, capability.OCR, 1)
	if !ok {
		return
	}
	httptransport.RespondSuccess(c, envelope.Fields{
		"text":     out,
		"language": opts.Language,
		"model":    provider.Model(),
	})
}

func (s *Service) handleDescribe(c *gin.Context) {
	out, opts, provider, ok := s.visionCall(c, capability.DescribeImage, 1)
	if !ok {
		return
	}
	httptransport.RespondSuccess(c, envelope.Fields{
		"description":  out,
		"detail_level": opts.DetailLevel,
		"model":        provider.Model(),
	})
}

func (s *Service) handleAnalyze(c *gin.Context) {
	out, opts, provider, ok := s.visionCall(c, capability.AnalyzeImage, 1)
	if !ok {
		return
	}
	httptransport.RespondSuccess(c, envelope.Fields{
		"analysis":      out,
		"analysis_type": opts.AnalysisType,
		"model":         provider.Model(),
	})
}

func (s *Service) handleClassify(c *gin.Context) {
	out, opts, provider, ok := s.visionCall(c, capability.ClassifyImage, 1)
	if !ok {
		return
	}
	fields := envelope.Fields{
		"classification": out,
		"model":          provider.Model(),
	}
	if len(opts.Categories) > 0 {
		fields["categories"] = opts.Categories
	}
	httptransport.RespondSuccess(c, fields)
}

func (s *Service) handleCompare(c *gin.Context) {
	out, opts, provider, ok := s.visionCall(c, capability.CompareImages, 2)
	if !ok {
		return
	}
	httptransport.RespondSuccess(c, envelope.Fields{
		"comparison":      out,
		"comparison_type": opts.ComparisonType,
		"model":           provider.Model(),
	})
}

func (s *Service) handleOCRBatch(c *gin.Context) {
	const op = "assist.handleOCRBatch"
	c.Set("capability", string(capability.BatchOCR))

	in, err := s.decode(c)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	defer in.release()

	n := len(in.artifacts)
	if n == 0 {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"At least one image file is required"))
		return
	}
	maxItems := s.cfg.Batch.MaxItems
	if maxItems > 0 && n > maxItems {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"Too many images in one batch"))
		return
	}

	opts, err := capability.ParseOptions(capability.BatchOCR, in.values)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	provider, err := s.visionFor(opts.Provider)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	c.Set("provider", provider.Name())

	instruction := vision.Instruction(capability.OCR, opts)
	images := toImages(in.artifacts)
	results := s.runner.Run(c.Request.Context(), n, func(ctx context.Context, index int) (string, error) {
		return provider.Analyze(ctx, images[index:index+1], instruction, opts)
	})

	items := make([]envelope.Fields, 0, len(results))
	for _, r := range results {
		item := envelope.Fields{
			"index":   r.Index,
			"success": r.Success,
		}
		if r.Success {
			item["text"] = r.Output
		} else {
			item["error"] = r.Error
		}
		items = append(items, item)
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"results":  items,
		"count":    n,
		"language": opts.Language,
		"model":    provider.Model(),
	})
}

func (s *Service) handleAnalyzeBatch(c *gin.Context) {
	const op = "assist.handleAnalyzeBatch"
	c.Set("capability", string(capability.BatchAnalyze))

	in, err := s.decode(c)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	defer in.release()

	n := len(in.artifacts)
	if n == 0 {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"At least one image file is required"))
		return
	}
	maxItems := s.cfg.Batch.MaxItems
	if maxItems > 0 && n > maxItems {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op,
			"Too many images in one batch"))
		return
	}

	opts, err := capability.ParseOptions(capability.BatchAnalyze, in.values)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	provider, err := s.visionFor(opts.Provider)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	c.Set("provider", provider.Name())

	instruction := vision.Instruction(capability.BatchAnalyze, opts)
	images := toImages(in.artifacts)
	results := s.runner.Run(c.Request.Context(), n, func(ctx context.Context, index int) (string, error) {
		return provider.Analyze(ctx, images[index:index+1], instruction, opts)
	})

	items := make([]envelope.Fields, 0, len(results))
	for _, r := range results {
		item := envelope.Fields{
			"index":   r.Index,
			"success": r.Success,
		}
		if r.Success {
			item["analysis"] = r.Output
		} else {
			item["error"] = r.Error
		}
		items = append(items, item)
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"results":       items,
		"count":         n,
		"analysis_type": opts.AnalysisType,
		"model":         provider.Model(),
	})
}

func (s *Service) handleTTS(c *gin.Context) {
	const op = "assist.handleTTS"
	c.Set("capability", string(capability.Speech))

	in, err := s.decode(c)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	defer in.release()

	text := in.values["text"]
	if text == "" {
		httptransport.RespondError(c, errors.New(errors.KindValidation, op, "Text is required"))
		return
	}
	if s.speech == nil {
		httptransport.RespondError(c, errors.New(errors.KindUnavailable, op,
			"No speech provider configured"))
		return
	}
	if s.speechErr != nil {
		httptransport.RespondError(c, s.speechErr)
		return
	}

	voice := in.values["voice"]
	audio, mime, err := s.speech.Synthesize(c.Request.Context(), text, voice)
	if err != nil {
		httptransport.RespondError(c, err)
		return
	}
	if voice == "" {
		voice = s.speech.Voice()
	}

	httptransport.RespondSuccess(c, envelope.Fields{
		"audio":  base64.StdEncoding.EncodeToString(audio),
		"format": mime,
		"voice":  voice,
	})
}
