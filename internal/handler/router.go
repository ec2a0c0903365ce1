/*
Package handler provides the status and admin HTTP API of the bot.

This file defines the main Router, applying logging, CORS and IP-based rate limiting before
delegating requests to the roster and ban list handlers.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"roombot/internal/pkg/auth/jwt"
	"roombot/internal/pkg/limiter"
	"roombot/internal/pkg/logx"
	"roombot/internal/pkg/resp"
)

const (
	APIRate  = 2
	APIBurst = 10
)

// Router sets up the routing table of the status API. ctx bounds the limiter cleanup goroutine.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	apiLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(APIRate), APIBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"status":  "ok",
			"service": "roombot",
			"rooms":   len(deps.Manager.Rooms()),
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Get("/rooms", HandleListRooms(deps))

		api.Route("/rooms/{room}", func(room chi.Router) {
			room.Get("/users", HandleListUsers(deps))

			room.Get("/banlists/{list}", HandleGetBanList(deps))
			room.With(jwt.RequireAdmin).Post("/banlists/{list}", HandleAddBanPattern(deps))
			room.With(jwt.RequireAdmin).Delete("/banlists/{list}", HandleRemoveBanPattern(deps))
		})
	})

	return r
}
