// Package system exposes the operational endpoints: health, model
// discovery, runtime stats and the API reference page.
package system

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Blindtools/Api/internal/domain/capability"
	"github.com/Blindtools/Api/internal/domain/envelope"
	"github.com/Blindtools/Api/internal/platform/config"
	"github.com/Blindtools/Api/internal/platform/storage"
	httptransport "github.com/Blindtools/Api/internal/transport/http"
	"github.com/Blindtools/Api/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// ProviderCatalog lists the configured provider entries for /models.
type ProviderCatalog interface {
	LLMNames() []string
	VisionNames() []string
}

// Service answers the operational endpoints.
type Service struct {
	cfg     *config.Config
	logger  *utils.Logger
	catalog ProviderCatalog
	usage   *storage.UsageStore
	started time.Time
}

func NewService(cfg *config.Config, catalog ProviderCatalog, usage *storage.UsageStore, logger *utils.Logger) *Service {
	return &Service{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		usage:   usage,
		started: time.Now(),
	}
}

// Register attaches the operational routes. These are always open, no
// auth middleware applies.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/health", s.handleHealth)
	router.GET("/models", s.handleModels)
	router.GET("/stats", s.handleStats)
	router.GET("/docs", s.handleDocs)
	return nil
}

func (s *Service) handleHealth(c *gin.Context) {
	httptransport.RespondSuccess(c, envelope.Fields{
		"status":         "ok",
		"version":        Version,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Service) handleModels(c *gin.Context) {
	fields := envelope.Fields{
		"languages":        capability.Languages(),
		"detail_levels":    capability.DetailLevels(),
		"analysis_types":   capability.AnalysisTypes(),
		"comparison_types": capability.ComparisonTypes(),
		"selected": envelope.Fields{
			"llm":    s.cfg.Selected.LLM,
			"vision": s.cfg.Selected.Vision,
			"tts":    s.cfg.Selected.TTS,
		},
	}
	if s.catalog != nil {
		fields["llm"] = s.catalog.LLMNames()
		fields["vision"] = s.catalog.VisionNames()
	}
	httptransport.RespondSuccess(c, fields)
}

func (s *Service) handleStats(c *gin.Context) {
	fields := envelope.Fields{
		"goroutines":     runtime.NumGoroutine(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		fields["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields["memory"] = envelope.Fields{
			"total":        vm.Total,
			"used":         vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}

	if s.usage != nil {
		summary, err := s.usage.Summary(c.Request.Context(), time.Time{})
		if err != nil {
			s.logger.WarnTag("STORE", "usage summary failed: %v", err)
		} else {
			fields["requests"] = summary
		}
	}

	httptransport.RespondSuccess(c, fields)
}

func (s *Service) handleDocs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}
