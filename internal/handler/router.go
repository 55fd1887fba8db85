package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/sentichat/internal/handler/chat"
	"github.com/zhouzirui/sentichat/internal/handler/persona"
	middlewarePkg "github.com/zhouzirui/sentichat/internal/middleware"
	"github.com/zhouzirui/sentichat/internal/service/conversation"
	"github.com/zhouzirui/sentichat/pkg/utils"
)

// NewRouter wires HTTP routes to the conversation manager. A nil gatherer disables /metrics.
func NewRouter(manager *conversation.Manager, gatherer prometheus.Gatherer, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	personaHandler := persona.New(manager.Personas())
	chatHandler := chat.New(manager)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	return r
}
