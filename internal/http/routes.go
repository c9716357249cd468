package http

import (
	"os"
	"strconv"
	"time"

	"ekehi_backend/internal/config"
	"ekehi_backend/internal/http/handlers"
	"ekehi_backend/internal/http/middleware"
	"ekehi_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, version string) {
	h := handlers.NewHandler(db, cfg)
	healthHandler := handlers.NewHealthHandler(db, version)

	// read limits from env, with safe defaults
	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	// Claim endpoints get a tighter per-user limit on top of the IP one.
	claimRateLimit := 10
	if v := os.Getenv("CLAIM_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			claimRateLimit = n
		}
	}
	claimRL := middleware.ClaimRateLimit(claimRateLimit, time.Minute)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Account
	v1.POST("/accounts", middleware.JWT(), h.CreateAccount)
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/transactions", middleware.JWT(), h.MyTransactions)
	v1.GET("/me/tasks", middleware.JWT(), h.MySocialTasks)

	// Mining sessions and ad bonus
	mining := v1.Group("/mining")
	mining.Use(middleware.JWT())
	{
		mining.POST("/start", claimRL, h.StartMining)
		mining.GET("/status", h.MiningStatus)
		mining.POST("/claim", claimRL, h.ClaimMining)
		mining.POST("/ad-bonus", claimRL, h.ClaimAdBonus)
	}

	// Referral system
	referral := v1.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("/code", h.GetReferralCode)
		referral.GET("/stats", h.GetReferralStats)
		referral.POST("/claim", claimRL, h.ClaimReferral)
	}

	// Social tasks
	v1.GET("/tasks", h.ListSocialTasks)
	tasks := v1.Group("/tasks")
	tasks.Use(middleware.JWT())
	{
		tasks.POST("/:id/start", h.StartSocialTask)
		tasks.POST("/:id/complete", claimRL, h.CompleteSocialTask)
		tasks.POST("/:id/verify", claimRL, h.VerifySocialTask)
	}

	// Presale purchases; the gateway callbacks authenticate with the
	// shared key instead of a user token
	v1.POST("/presale/purchases", middleware.JWT(), h.SubmitPurchase)
	v1.GET("/presale/purchases", middleware.JWT(), h.MyPurchases)
	gateway := v1.Group("/presale/purchases/:id")
	gateway.Use(middleware.GatewayKey(cfg.GatewayKey))
	{
		gateway.POST("/complete", h.CompletePurchase)
		gateway.POST("/fail", h.FailPurchase)
	}

	// Leaderboard
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/leaderboard/rank", middleware.JWT(), h.MyRank)

	// WebSocket live mining feed
	feed := ws.NewFeed(h.Mining, h.Accrual, h.UserRepo)
	r.GET("/ws", ws.HandleWS(feed))
}
