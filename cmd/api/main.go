package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/config"
	"github.com/zhouzirui/sentichat/internal/handler"
	"github.com/zhouzirui/sentichat/internal/logger"
	"github.com/zhouzirui/sentichat/internal/metrics"
	"github.com/zhouzirui/sentichat/internal/service/ai"
	"github.com/zhouzirui/sentichat/internal/service/chat"
	"github.com/zhouzirui/sentichat/internal/service/conversation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded, using system environment only")
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.AI.Provider).Msg("text generation unavailable, check provider credentials")
	}
	log.Info().Str("provider", cfg.AI.Provider).Msg("text generator initialized")

	repo, err := chat.OpenRepository(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session storage")
	}
	log.Info().Str("backend", cfg.Storage.Backend).Str("dir", cfg.Storage.Dir).Msg("session storage ready")

	manager, err := conversation.NewManager(conversation.ManagerConfig{
		Generator:      generator,
		Repository:     repo,
		DefaultPersona: cfg.Chat.DefaultPersona,
		HistoryLimit:   cfg.Chat.HistoryLimit,
		Log:            log,
		Metrics:        m,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create conversation manager")
	}

	router := handler.NewRouter(manager, gatherer, log)

	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("sentichat listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
