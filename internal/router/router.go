package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	travelChat "github.com/FACorreiaa/go-travel-assistant/internal/api/travel_chat"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ChatHandler    *travelChat.Handler
	AllowedOrigins []string
}

// SetupRouter builds the API router. Server-wide middleware (request ID,
// logging, recovery) is applied in main before this router is mounted.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", cfg.ChatHandler.ListTools)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/query", cfg.ChatHandler.HandleQuery)

			r.Post("/sessions", cfg.ChatHandler.CreateSession)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", cfg.ChatHandler.GetSession)
				r.Delete("/", cfg.ChatHandler.DeleteSession)
				r.Post("/messages", cfg.ChatHandler.SendMessage)
				r.Put("/location", cfg.ChatHandler.UpdateLocation)
				r.Put("/preferences", cfg.ChatHandler.UpdatePreferences)
				r.Post("/clear", cfg.ChatHandler.ClearSession)
				r.Get("/interactions", cfg.ChatHandler.ListInteractions)
			})
		})
	})

	return r
}
