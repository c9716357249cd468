package handlers

import (
	"errors"
	"net/http"

	"ekehi_backend/internal/config"
	"ekehi_backend/internal/repository"
	"ekehi_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB  *pgxpool.Pool
	Cfg *config.Config

	UserRepo        *repository.UserRepository
	TransactionRepo *repository.TransactionRepository

	Mining      *service.MiningService
	Accrual     *service.AccrualService
	Referral    *service.ReferralService
	Social      *service.SocialService
	Presale     *service.PresaleService
	Leaderboard *service.LeaderboardService
}

func NewHandler(db *pgxpool.Pool, cfg *config.Config) *Handler {
	return &Handler{
		DB:              db,
		Cfg:             cfg,
		UserRepo:        repository.NewUserRepository(db),
		TransactionRepo: repository.NewTransactionRepository(db),
		Mining: service.NewMiningService(db, cfg.SessionDuration, cfg.SessionReward,
			cfg.StreakWindow(), cfg.AdBonusReward, cfg.AdBonusCooldown),
		Accrual:     service.NewAccrualService(db),
		Referral:    service.NewReferralService(db, cfg.ReferredBonus, cfg.ReferrerBonus),
		Social:      service.NewSocialService(db),
		Presale:     service.NewPresaleService(db, cfg.TokenPriceUSD, cfg.MinPurchaseUSD),
		Leaderboard: service.NewLeaderboardService(db),
	}
}

// getUserID extracts the authenticated caller id set by the JWT middleware.
func getUserID(c *gin.Context) (string, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	uid, ok := uidVal.(string)
	return uid, ok
}

// respondError maps service errors onto the HTTP surface: validation 400,
// state conflicts 409, unknown entities 404, anything else a generic 500
// (which the caller may retry; every mutation is idempotent).
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrBelowMinimum),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrSelfReferral):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionActive),
		errors.Is(err, service.ErrNotClaimable),
		errors.Is(err, service.ErrCooldownActive),
		errors.Is(err, service.ErrAlreadyReferred),
		errors.Is(err, service.ErrAlreadyFinalized),
		errors.Is(err, service.ErrTaskState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPurchaseNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
