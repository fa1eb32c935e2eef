/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/josephgoksu/TodoChat/internal/config"
	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/josephgoksu/TodoChat/internal/logger"
	"github.com/josephgoksu/TodoChat/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

// openSession loads configuration, sets up logging and builds a session.
// The returned cleanup closes the session, the metrics server and the log file.
func openSession(ctx context.Context) (*session.Session, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	log, logFile := logger.New(cfg.Log)
	slog.SetDefault(log)
	logger.SetCrashDir(config.GetCrashLogDir())

	var llmCfg llm.Config
	if cfg.Intent.Mode == "llm" {
		if cfg.LLM.Mode == "eino" {
			if llmCfg, err = config.LoadLLMConfig(); err != nil {
				_ = logFile.Close()
				return nil, nil, err
			}
		} else {
			llmCfg.Timeout = time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
		}
	}

	opts := []session.Option{session.WithLogger(log)}
	stopMetrics := func() {}
	if cfg.Metrics.Addr != "" {
		opts = append(opts, session.WithRegistry(prometheus.DefaultRegisterer))
		stopMetrics = startMetricsServer(cfg.Metrics.Addr, log)
	}

	sess, err := session.New(ctx, session.Config{App: cfg, LLM: llmCfg}, opts...)
	if err != nil {
		stopMetrics()
		_ = logFile.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := sess.Close(); err != nil {
			log.Warn("failed to close session", "error", err)
		}
		stopMetrics()
		_ = logFile.Close()
	}
	return sess, cleanup, nil
}

// startMetricsServer serves /metrics on addr until the returned func is called.
func startMetricsServer(addr string, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown failed", "error", err)
		}
	}
}
