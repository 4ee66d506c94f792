package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"recommendd/internal/catalog"
	"recommendd/internal/config"
	"recommendd/internal/httpapi"
)

func main() {
	if lvl, ok := parseLogLevelEnv(); ok {
		zerolog.SetGlobalLevel(lvl)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	httpapi.SetLogger(logger)

	defaultConfigPath := os.Getenv("RECOMMENDD_CONFIG")
	configPath := flag.String("config", defaultConfigPath, "path to a config file (yaml/json/toml); flags below override file values")
	addr := flag.String("addr", "", "HTTP listen address, e.g. :8080")
	catalogPath := flag.String("catalog", "", "path to the model catalog document")
	metricsEnabled := flag.Bool("metrics", true, "expose /metrics")
	corsEnabled := flag.Bool("cors", false, "enable CORS")
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}
	if v := os.Getenv("RECOMMENDD_ADDR"); v != "" && cfg.Addr == "" {
		cfg.Addr = v
	}
	cfg.MetricsEnabled = *metricsEnabled
	cfg.CORSEnabled = *corsEnabled || cfg.CORSEnabled
	cfg.ApplyDefaults()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("failed to load catalog")
	}
	for _, w := range cat.Warnings {
		logger.Warn().Str("catalog", cfg.CatalogPath).Msg(w)
	}

	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type", "X-Log-Level"})
	}
	if sec := cfg.ProbeTimeoutSeconds; sec > 0 {
		httpapi.SetInferTimeoutSeconds(int64(sec))
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	svc := httpapi.NewLiveService(cat)
	mux := httpapi.NewMux(svc)
	handler := mux
	if !cfg.MetricsEnabled {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				http.NotFound(w, r)
				return
			}
			mux.ServeHTTP(w, r)
		})
	}
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("catalog", cfg.CatalogPath).Int("entries", len(cat.All())).Msg("recommendd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	baseCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// parseLogLevelEnv reports whether RECOMMENDD_LOG_LEVEL names a recognized
// zerolog level, by name or by number. An empty or unrecognized value
// reports false, and main then leaves the global level unchanged.
func parseLogLevelEnv() (zerolog.Level, bool) {
	v := strings.ToLower(os.Getenv("RECOMMENDD_LOG_LEVEL"))
	if v == "" {
		return zerolog.InfoLevel, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return zerolog.Level(n), true
	}
	lvl, err := zerolog.ParseLevel(v)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}
