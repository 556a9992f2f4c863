package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"livepoll/internal/config"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/handler"
	"livepoll/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Polls *service.PollService
	Hub   *ws.Hub
	Cfg   *config.Config
	Log   *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	pollHandler := handler.NewPollHandler(c.Polls)
	wsHandler := ws.NewHandler(c.Hub, c.Polls, c.Log)

	r.Use(corsMiddleware(c.Cfg))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Snapshot reads
	r.HandleFunc("/polls/active", pollHandler.Active).Methods("GET", "OPTIONS")
	r.HandleFunc("/polls/history", pollHandler.History).Methods("GET", "OPTIONS")

	// Push channel for commands and broadcasts
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	return r
}

func corsMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.CORSMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.CORSHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
