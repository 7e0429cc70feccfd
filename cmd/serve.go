package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for triggering collection runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/run", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Category         string `json:"category"`
				Location         string `json:"location"`
				FallbackLocation string `json:"fallback_location"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}

			query := model.Query{
				Category:         body.Category,
				Location:         body.Location,
				FallbackLocation: body.FallbackLocation,
			}
			if query.Category == "" {
				query.Category = cfg.Query.Category
			}
			if query.Location == "" {
				query.Location = cfg.Query.Location
			}
			if query.FallbackLocation == "" {
				query.FallbackLocation = cfg.Query.FallbackLocation
			}

			if env.Pipeline.Active() {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already active"})
				return
			}

			// Run asynchronously; progress lands in the run store.
			go func() {
				result, err := env.Pipeline.Execute(ctx, query)
				if err != nil {
					if eris.Is(err, pipeline.ErrRunActive) {
						zap.L().Warn("triggered run lost the race to an active run")
						return
					}
					zap.L().Error("triggered run failed",
						zap.String("category", query.Category),
						zap.Error(err))
					return
				}
				zap.L().Info("triggered run complete",
					zap.String("category", query.Category),
					zap.Int("records", len(result.Records)))
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":   "accepted",
				"category": query.Category,
				"location": query.Location,
			})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			filter := store.RunFilter{
				Status: model.RunStatus(req.URL.Query().Get("status")),
				Limit:  50,
			}
			runs, err := env.Store.ListRuns(req.Context(), filter)
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			if runs == nil {
				runs = []model.Run{}
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
