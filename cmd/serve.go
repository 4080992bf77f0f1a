package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradeforge/stratgen/internal/catalog"
	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the strategy generation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the API routes. Split out so handler tests can hit the
// router without binding a port.
func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/strategies/generate", handleGenerate(env))
		r.Get("/providers", handleProviders(env))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", handleTemplateList(env))
			r.Post("/", handleTemplateCreate(env))
			r.Get("/{id}", handleTemplateGet(env))
			r.Delete("/{id}", handleTemplateDelete(env))
		})

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", handleGenerationList(env))
			r.Get("/{id}", handleGenerationGet(env))
		})
	})

	return r
}

func handleGenerate(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.StrategyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := env.Orchestrator.Generate(r.Context(), req)
		if err != nil {
			// Generate only errors on a malformed request.
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleProviders(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := env.Orchestrator.VerifyAll(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"providers": status})
	}
}

func handleTemplateList(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var templates []model.StrategyTemplate
		if keyword := q.Get("q"); keyword != "" {
			templates = env.Catalog.Search(keyword)
		} else {
			templates = env.Catalog.List(catalog.Filter{
				Category:   q.Get("category"),
				MarketType: q.Get("market_type"),
				Timeframe:  q.Get("timeframe"),
				Difficulty: q.Get("difficulty"),
				Tag:        q.Get("tag"),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
	}
}

func handleTemplateCreate(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		tmpl, err := model.TemplateFromMap(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := env.Catalog.Create(tmpl)
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleTemplateGet(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := env.Catalog.Get(chi.URLParam(r, "id"))
		if t == nil {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleTemplateDelete(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !env.Catalog.Delete(id) {
			writeError(w, http.StatusConflict, "template not found or is built-in")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func handleGenerationList(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if env.History == nil {
			writeError(w, http.StatusNotImplemented, "history is disabled")
			return
		}

		q := r.URL.Query()
		gens, err := env.History.ListGenerations(r.Context(), store.Filter{
			UserID: q.Get("user_id"),
			Status: model.GenerationStatus(q.Get("status")),
		})
		if err != nil {
			zap.L().Error("list generations failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list generations failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"generations": gens})
	}
}

func handleGenerationGet(env *appEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if env.History == nil {
			writeError(w, http.StatusNotImplemented, "history is disabled")
			return
		}

		g, err := env.History.GetGeneration(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			zap.L().Error("get generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get generation failed")
			return
		}
		if g == nil {
			writeError(w, http.StatusNotFound, "generation not found")
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
