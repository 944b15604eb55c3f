// Package bootstrap wires configuration, storage, messaging and the
// HTTP transport into a running service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Blindtools/Api/internal/domain/auth"
	"github.com/Blindtools/Api/internal/domain/eventbus"
	"github.com/Blindtools/Api/internal/domain/messaging"
	messagingstore "github.com/Blindtools/Api/internal/domain/messaging/store"
	"github.com/Blindtools/Api/internal/domain/session"
	"github.com/Blindtools/Api/internal/platform/config"
	platformerrors "github.com/Blindtools/Api/internal/platform/errors"
	"github.com/Blindtools/Api/internal/platform/storage"
	httptransport "github.com/Blindtools/Api/internal/transport/http"
	"github.com/Blindtools/Api/internal/transport/http/assist"
	"github.com/Blindtools/Api/internal/transport/http/system"
	"github.com/Blindtools/Api/internal/transport/http/whatsapp"
	"github.com/Blindtools/Api/internal/transport/ws"
	"github.com/Blindtools/Api/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	// Provider registration.
	_ "github.com/Blindtools/Api/internal/core/providers/llm/ollama"
	_ "github.com/Blindtools/Api/internal/core/providers/llm/openai"
	_ "github.com/Blindtools/Api/internal/core/providers/tts/edge"
)

const shutdownTimeout = 15 * time.Second

// initStep is one named unit of startup work.
type initStep struct {
	ID      string
	Title   string
	Kind    platformerrors.Kind
	Execute func(ctx context.Context, state *appState) error
}

// appState accumulates everything the init steps produce.
type appState struct {
	cfg    *config.Config
	logger *utils.Logger

	db    *gorm.DB
	usage *storage.UsageStore

	tracker      *session.Tracker
	msgClient    *messaging.Client
	sessionStore messagingstore.Store

	assistSvc *assist.Service
}

// Run executes the full startup sequence and blocks until shutdown.
func Run(ctx context.Context) error {
	state := &appState{}
	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	defer func() {
		if state.msgClient != nil {
			state.msgClient.Stop()
		}
		if state.sessionStore != nil {
			_ = state.sessionStore.Close(context.Background())
		}
		if state.assistSvc != nil {
			state.assistSvc.Cleanup()
		}
		if state.logger != nil {
			_ = state.logger.Close()
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)
	if err := startHTTPServer(groupCtx, state, group); err != nil {
		return err
	}
	if state.msgClient != nil {
		if err := state.msgClient.Start(groupCtx); err != nil {
			return err
		}
	}

	return waitForShutdown(signalCtx, cancel, state.logger, group)
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			return platformerrors.Wrap(step.Kind, "bootstrap."+step.ID, step.Title+" failed", err)
		}
		if state.logger != nil {
			state.logger.DebugTag("BOOT", "%s done", step.Title)
		}
	}
	return nil
}

// InitGraph lists the startup steps in execution order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:      "logging:init",
			Title:   "Initialise logging",
			Kind:    platformerrors.KindBootstrap,
			Execute: initLoggingStep,
		},
		{
			ID:      "storage:open",
			Title:   "Open sqlite storage",
			Kind:    platformerrors.KindStorage,
			Execute: openStorageStep,
		},
		{
			ID:      "messaging:init",
			Title:   "Initialise messaging",
			Kind:    platformerrors.KindBootstrap,
			Execute: initMessagingStep,
		},
		{
			ID:      "services:init",
			Title:   "Initialise capability services",
			Kind:    platformerrors.KindBootstrap,
			Execute: initServicesStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := config.NewLoader().WithPath(os.Getenv("CONFIG_PATH")).Load()
	if err != nil {
		return err
	}
	state.cfg = result.Config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := utils.NewLogger(&utils.LogCfg{
		LogLevel: state.cfg.Log.Level,
		LogDir:   state.cfg.Log.Dir,
		LogFile:  state.cfg.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	logger.InfoTag("BOOT", "starting blindtools-api")
	return nil
}

func openStorageStep(_ context.Context, state *appState) error {
	db, err := storage.Open(state.cfg.Storage.DSN)
	if err != nil {
		return err
	}
	usage, err := storage.NewUsageStore(db)
	if err != nil {
		return err
	}
	state.db = db
	state.usage = usage
	return nil
}

func initMessagingStep(_ context.Context, state *appState) error {
	bus := eventbus.Get()
	tracker := session.NewTracker(state.logger)
	if err := tracker.Attach(bus); err != nil {
		return err
	}
	state.tracker = tracker

	if !state.cfg.Messaging.Enabled {
		state.logger.InfoTag("WA", "messaging disabled by configuration")
		return nil
	}

	storeCfg := state.cfg.Messaging.Store
	sessionStore, err := messagingstore.New(messagingstore.Config{
		Driver: storeCfg.Driver,
		TTL:    storeCfg.TTL.Std(),
		Redis: &messagingstore.RedisConfig{
			Addr:     storeCfg.Redis.Addr,
			Username: storeCfg.Redis.Username,
			Password: storeCfg.Redis.Password,
			DB:       storeCfg.Redis.DB,
			Prefix:   storeCfg.Redis.Prefix,
		},
		SQLite: &messagingstore.SQLiteConfig{DSN: storeCfg.SQLite.DSN},
	}, messagingstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return err
	}
	state.sessionStore = sessionStore
	state.msgClient = messaging.NewClient(&state.cfg.Messaging, bus, sessionStore, state.logger)
	return nil
}

func initServicesStep(_ context.Context, state *appState) error {
	svc, err := assist.NewService(state.cfg, state.logger)
	if err != nil {
		return err
	}
	state.assistSvc = svc
	return nil
}

func startHTTPServer(ctx context.Context, state *appState, g *errgroup.Group) error {
	router, err := httptransport.Build(httptransport.Options{
		Config:         state.cfg,
		Logger:         state.logger,
		AuthMiddleware: auth.Middleware(state.cfg.Server.Token),
		Usage:          state.usage,
	})
	if err != nil {
		return err
	}

	group := router.API
	if router.Secured != nil {
		group = router.Secured
	}
	if err := state.assistSvc.Register(ctx, group); err != nil {
		return err
	}

	waSvc, err := whatsapp.NewService(state.tracker, state.msgClient, state.logger)
	if err != nil {
		return err
	}
	if err := waSvc.Register(ctx, group); err != nil {
		return err
	}

	sysSvc := system.NewService(state.cfg, state.assistSvc, state.usage, state.logger)
	if err := sysSvc.Register(ctx, router.API); err != nil {
		return err
	}

	relay := ws.NewRelay(state.assistSvc.DefaultLLM, state.cfg.System.ChatPrompt, state.logger)
	if err := relay.Register(ctx, router.API); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", state.cfg.Server.IP, state.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router.Engine,
	}

	g.Go(func() error {
		state.logger.InfoTag("HTTP", "listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			state.logger.WarnTag("HTTP", "shutdown error: %v", err)
		}
		return nil
	})
	return nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *utils.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown requested, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(shutdownTimeout):
		logger.ErrorTag("BOOT", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}
