package handlers

import (
	"net/http"

	"econsim/internal/middleware"
	"econsim/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Post("/auth/login", h.Login)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/status", h.Status)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/simulation/step", h.Step)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/agents", h.ListAgents)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/agents/{id}/counters", h.AgentCounters)
	router.Get("/ws/metrics", h.WSMetrics)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func (h *Handler) WSMetrics(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub)
}
