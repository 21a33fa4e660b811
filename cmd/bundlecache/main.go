// Entry point for the bundlecache HTTP service: chi router over the bundle
// cache, optional background queue drainer.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/bundlecache/bundles"
	"github.com/hazyhaar/bundlecache/dbopen"

	_ "modernc.org/sqlite"
)

func main() {
	port := env("PORT", "8090")
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Configuration: YAML file if given, env overrides on top.
	cfg := &bundles.Config{}
	if configPath != "" {
		loaded, err := bundles.LoadConfigFile(configPath)
		if err != nil {
			slog.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "bundles.db"
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll(), dbopen.WithSchema(bundles.Schema))
	if err != nil {
		slog.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := bundles.New(db, cfg, bundles.WithLogger(logger))

	// Background drainer, opt-in: the queue can also be drained by an
	// external worker.
	if env("DRAIN", "0") == "1" {
		d := bundles.NewDrainer(svc, cfg.Drain, logger)
		go d.Run(ctx)
		slog.Info("drainer started", "interval", cfg.Drain.Interval)
	}

	r := chi.NewRouter()
	r.Use(securityHeaders())
	r.Use(maxBody(1 << 20))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Route("/api/bundles", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			ids, err := parseIDs(r.URL.Query().Get("ids"))
			if err != nil {
				writeError(w, 400, err)
				return
			}
			projections, err := svc.Get(r.Context(), ids, r.URL.Query().Get("filters"))
			if err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			if projections == nil {
				projections = []bundles.Projection{}
			}
			writeJSON(w, 200, projections)
		})

		r.Post("/{id}/fetch", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, 400, errors.New("invalid bundle id"))
				return
			}
			if err := svc.Fetch(r.Context(), id); err != nil {
				writeError(w, statusFor(err), err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/{id}/log", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeError(w, 400, errors.New("invalid bundle id"))
				return
			}
			entries, err := svc.FetchLog(r.Context(), id, queryInt(r, "limit", 20))
			if err != nil {
				writeError(w, 500, err)
				return
			}
			if entries == nil {
				entries = []*bundles.FetchLogEntry{}
			}
			writeJSON(w, 200, entries)
		})
	})

	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, st)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

// parseIDs parses the comma-separated ids query parameter.
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("ids is required")
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New("ids must be integers")
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.New("ids is required")
	}
	return ids, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bundles.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, bundles.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
