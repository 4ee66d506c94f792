package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recommendd/internal/catalog"
	"recommendd/internal/recommend"
	"recommendd/pkg/types"
)

// Service defines the methods required by the HTTP API layer. The
// production implementation (LiveService, in this package) wires
// hwprobe.Detect, a *catalog.Catalog, and recommend.Recommend together;
// tests substitute a mock.
type Service interface {
	Hardware(ctx context.Context) (types.HardwareProfile, error)
	CatalogEntries(modality string) []types.ModelEntry
	Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendationResult, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		entries := svc.CatalogEntries("")
		resp := types.HealthResponse{
			Status:        "ok",
			CatalogLoaded: true,
			Entries:       len(entries),
		}
		if !svc.Ready() {
			resp.Status = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Get("/hardware", func(w http.ResponseWriter, r *http.Request) {
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		hw, err := svc.Hardware(joinedCtx)
		if err != nil {
			mapAndWriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.HardwareResponse{Hardware: hw}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
		modality := r.URL.Query().Get("modality")
		entries := svc.CatalogEntries(modality)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.CatalogListResponse{Entries: entries}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	r.Post("/recommend", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.RecommendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		lvl := requestLogLevel(r)
		start := time.Now()
		if lvl >= LevelInfo {
			logInfo(r, "recommend start", nil)
		}

		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if inferTimeout > 0 {
			var timeoutCancel context.CancelFunc
			joinedCtx, timeoutCancel = context.WithTimeout(joinedCtx, time.Duration(inferTimeout)*time.Second)
			defer timeoutCancel()
		}

		result, err := svc.Recommend(joinedCtx, req)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			mapAndWriteError(w, err)
			if lvl >= LevelInfo {
				logInfo(r, "recommend end", err)
			}
			return
		}

		if r.URL.Query().Get("stream") == "1" {
			w.Header().Set("Content-Type", "application/x-ndjson")
			var flush func()
			if f, ok := w.(http.Flusher); ok {
				flush = f.Flush
			}
			writer := io.Writer(w)
			if lvl >= LevelDebug {
				writer = io.MultiWriter(w, &loggingLineWriter{})
			}
			enc := json.NewEncoder(writer)
			for _, line := range result.ReasoningTrace {
				_ = enc.Encode(map[string]any{"trace": line})
				if flush != nil {
					flush()
				}
			}
			_ = enc.Encode(map[string]any{"result": result})
			if flush != nil {
				flush()
			}
		} else {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(result); err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
				return
			}
		}

		if lvl >= LevelInfo {
			if zlog != nil {
				z := zlog.Info().Dur("dur", time.Since(start))
				if rid := middleware.GetReqID(r.Context()); rid != "" {
					z = z.Str("request_id", rid)
				}
				z.Msg("recommend end")
			}
		}
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

func logInfo(r *http.Request, msg string, err error) {
	if zlog == nil {
		return
	}
	z := zlog.Info().Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg(msg)
}

// mapAndWriteError maps recommend/catalog/hwprobe sentinel errors to HTTP
// status codes. NoViableCandidates is deliberately not mapped here: it
// surfaces inside a 200 RecommendationResult as a warning, never as an
// HTTPError.
func mapAndWriteError(w http.ResponseWriter, err error) {
	if recommend.IsCancelled(err) {
		writeJSONError(w, 499, err.Error())
		return
	}
	if catalog.IsCatalogError(err) || catalog.IsModelNotFound(err) {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if he, ok := err.(HTTPError); ok {
		writeJSONError(w, he.StatusCode(), he.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}
