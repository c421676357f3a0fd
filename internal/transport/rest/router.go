package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"quizrumble/internal/service"
	"quizrumble/internal/transport/rest/handler"
	"quizrumble/internal/transport/rest/middleware"
	"quizrumble/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	LedgerService  *service.LedgerService
	WSHub          *ws.Hub
	Logger         zerolog.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	ledgerHandler := handler.NewLedgerHandler(c.LedgerService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{code}/join", sessionHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}/host", wsHandler.HostWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{sessionId}/team", wsHandler.TeamWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes (require host auth)
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/advance", sessionHandler.Advance).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/pause", sessionHandler.Pause).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/end", sessionHandler.End).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/teams/{teamId}/kick", sessionHandler.Kick).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/teams/{teamId}/ban", sessionHandler.Ban).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/leaderboard", sessionHandler.Leaderboard).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/state", sessionHandler.State).Methods("GET", "OPTIONS")

	// Team routes (require team auth)
	teamRoutes := v1.NewRoute().Subrouter()
	teamRoutes.Use(authMW.RequireTeam)

	teamRoutes.HandleFunc("/sessions/{sessionId}/answers", ledgerHandler.SubmitAnswer).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/sessions/{sessionId}/votes", ledgerHandler.SubmitVote).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/sessions/{sessionId}/category", ledgerHandler.SelectCategory).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/sessions/{sessionId}/me/state", sessionHandler.State).Methods("GET", "OPTIONS")
	teamRoutes.HandleFunc("/sessions/{sessionId}/me/leaderboard", sessionHandler.Leaderboard).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
