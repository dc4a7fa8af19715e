// Package http carries the operational HTTP surface served beside the bot:
// health probes and prometheus metrics. The bot itself talks to Telegram over
// long polling, so no user traffic arrives here.
package http

import (
	"taskbot/internal/http/handlers"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool) {
	healthHandler := handlers.NewHealthHandler(db)

	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
