package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/gemini-tryon-kit/internal/config"
	"github.com/shouni/gemini-tryon-kit/internal/server"
	"github.com/shouni/gemini-tryon-kit/pkg/analysis"
	"github.com/shouni/gemini-tryon-kit/pkg/generator"
	"github.com/shouni/gemini-tryon-kit/pkg/imgutil"
	"github.com/shouni/gemini-tryon-kit/pkg/ingest"
	"github.com/shouni/gemini-tryon-kit/pkg/pipeline"
	"github.com/shouni/gemini-tryon-kit/pkg/product"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("サーバーを終了します", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: cfg.GeminiAPIVersion},
	})
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	var guard ingest.Guard
	if !cfg.AllowPrivateFetch {
		guard = ingest.PublicOnly
		httpClient.CheckRedirect = ingest.CheckRedirect(guard)
	}

	ingester, err := ingest.NewIngester(httpClient, ingest.WithGuard(guard), ingest.WithMaxBytes(cfg.MaxUploadBytes))
	if err != nil {
		return err
	}
	gen, err := generator.NewTryOnGenerator(client.Models, cfg.GeminiModel,
		generator.WithMode(cfg.ExtractionMode),
		generator.WithCompressionQuality(cfg.CompressionQuality),
	)
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewAnalyzer(client.Models, cfg.GeminiJSONModel, cfg.CompressionQuality)
	if err != nil {
		return err
	}
	p, err := pipeline.New(ingester, gen, imgutil.NewCompositor(), analyzer,
		pipeline.WithTimeout(cfg.RequestTimeout),
		pipeline.WithFallbackProductURL(cfg.FallbackProductURL),
	)
	if err != nil {
		return err
	}
	resolver, err := product.NewResolver(httpClient, guard)
	if err != nil {
		return err
	}
	srv, err := server.New(p, resolver, server.WithMaxUploadBytes(cfg.MaxUploadBytes))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("サーバーを起動します",
			"port", cfg.Port,
			"model", cfg.GeminiModel,
			"json_model", cfg.GeminiJSONModel,
			"extraction_mode", cfg.ExtractionMode,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("シャットダウンします")
	return httpServer.Shutdown(shutdownCtx)
}
