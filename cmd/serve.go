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

	"github.com/sells-group/dealpilot/internal/metrics"
	"github.com/sells-group/dealpilot/internal/signature"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HubSpot workflow action server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initTools("serve", true)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, cfg.HubSpot.SignatureSecret, cfg.Server.AppURL, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("crm", cfg.CRM.Provider),
			zap.String("llm", cfg.LLM.Provider),
			zap.Bool("signatures", cfg.HubSpot.SignatureSecret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter mounts health, metrics, OAuth and tool routes. Tool routes
// require a valid HubSpot signature when signingSecret is set.
func buildRouter(env *toolEnv, signingSecret, appURL string, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", signature.HeaderV2, signature.HeaderV3, signature.HeaderTimestamp},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if states := env.Breakers.States(); len(states) > 0 {
			circuits := make(map[string]string, len(states))
			for name, s := range states {
				circuits[name] = s.String()
			}
			body["circuits"] = circuits
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	})
	r.Handle("/metrics", metrics.Handler())

	if env.OAuth != nil {
		r.Get("/api/auth/install", env.OAuth.Install)
		r.Get("/api/auth/callback", env.OAuth.Callback)
	}

	r.Route("/api/tools", func(r chi.Router) {
		if signingSecret != "" {
			r.Use(signature.NewValidator(signingSecret).Middleware(appURL))
		}
		env.Service.Routes(r)
	})

	return r
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
