package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"refleks/internal/hub"
	"refleks/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
