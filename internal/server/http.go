package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/config"
	"github.com/xveoe/quiz-arena-fiesta-sub000/internal/game"
)

// NewHTTPServer wires base routes (health, metrics) plus the session API.
func NewHTTPServer(cfg *config.App, handlers *game.HTTPHandlers, wsHandler http.HandlerFunc) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/categories", handlers.ListCategories)
	mux.HandleFunc("/v1/sessions", handlers.CreateSession)
	mux.HandleFunc("/v1/sessions/{id}", handlers.GetSession)
	mux.HandleFunc("/v1/sessions/{id}/start", handlers.StartGame)
	mux.HandleFunc("/v1/sessions/{id}/questions", handlers.SetQuestions)
	mux.HandleFunc("/v1/sessions/{id}/timer/start", handlers.StartTimer)
	mux.HandleFunc("/v1/sessions/{id}/answer", handlers.SelectAnswer)
	mux.HandleFunc("/v1/sessions/{id}/joker", handlers.UseJoker)
	mux.HandleFunc("/v1/sessions/{id}/powerup", handlers.UsePowerUp)
	mux.HandleFunc("/v1/sessions/{id}/refresh", handlers.RefreshQuestion)
	mux.HandleFunc("/v1/sessions/{id}/next", handlers.NextQuestion)
	mux.HandleFunc("/v1/sessions/{id}/reset", handlers.ResetGame)
	mux.HandleFunc("/v1/sessions/{id}/judge/approve", handlers.JudgeApprove)
	mux.HandleFunc("/v1/sessions/{id}/judge/reject", handlers.JudgeReject)
	mux.HandleFunc("/v1/sessions/{id}/judge/deduct", handlers.JudgeDeduct)

	if wsHandler != nil {
		mux.HandleFunc("/ws/sessions", wsHandler)
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withCORS(cfg.CORS, mux),
	}
}

// withCORS applies the configured CORS policy to every route.
func withCORS(cfg config.CORS, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range cfg.AllowedOrigins {
			if origin == allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", joinHeader(cfg.AllowedMethods))
			w.Header().Set("Access-Control-Allow-Headers", joinHeader(cfg.AllowedHeaders))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func joinHeader(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
