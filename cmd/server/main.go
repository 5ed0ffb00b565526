package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rap-order-service/internal/config"
	"rap-order-service/internal/handler"
	"rap-order-service/internal/logging"
	"rap-order-service/internal/service"
	"rap-order-service/internal/worker"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Personalized rap song ordering service",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the delivery worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, renderCmd, templatesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := loadCatalog(cfg.TemplatesFile)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Warn("order_store_close_failed", zap.Error(err))
		}
	}()

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	queue := worker.NewOrderQueue(100)
	audio := service.NewAudioGenerator(completer, cfg.AudioModel, cfg.AudioTimeout, cfg.FallbackMediaBaseURL, logger.Named("audio"))
	svc := service.NewOrderService(store.repo, queue, catalog, audio, notifier, logger.Named("orders"))
	videoSvc := service.NewVideoService(completer, cfg.VideoModel, cfg.VideoPlaceholderURL, logger.Named("video"))

	ordWorker := worker.NewOrderWorker(queue.C(), svc, logger.Named("worker"))
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		ordWorker.Run(workerCtx)
	}()

	orders := handler.NewOrderHandler(svc, logger)
	video := handler.NewVideoHandler(videoSvc, logger)
	health := handler.NewHealthHandler(handler.HealthInfo{
		Version:     version,
		OrderStore:  cfg.OrderStore,
		APIEndpoint: completer.Endpoint(),
		VideoModel:  cfg.VideoModel,
		AudioModel:  cfg.AudioModel,
		Started:     time.Now(),
	}, store.pinger, logger)
	templates := handler.NewTemplateHandler(catalog)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/instant-order", orders.InstantOrder)
	mux.HandleFunc("/api/orders", orders.Orders)
	mux.HandleFunc("/api/orders/", orders.OrderByID)
	mux.HandleFunc("/api/generate-video", video.GenerateVideo)
	mux.HandleFunc("/api/health", health.Health)
	mux.HandleFunc("/api/templates", templates.Templates)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("http_server_start", zap.String("addr", srv.Addr), zap.String("order_store", cfg.OrderStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown_signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	serveErr := g.Wait()
	if serveErr != nil {
		logger.Error("http_server_failed", zap.Error(serveErr))
	}

	// Requests still running after a failed Shutdown get ErrQueueClosed.
	queue.Close()
	select {
	case <-workerDone:
		logger.Info("worker_drained")
	case <-time.After(cfg.ShutdownDrainTimeout):
		logger.Warn("worker_drain_timeout", zap.String("action", "cancel"))
		cancelWorker()
		<-workerDone
	}

	logger.Info("shutdown_complete")
	return serveErr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
