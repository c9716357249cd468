package handlers

import (
	"net/http"
	"time"

	"ekehi_backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type CreateAccountRequest struct {
	Username string `json:"username"`
}

// CreateAccount ensures the ledger row exists for an authenticated caller.
// The identity provider owns credentials; this only materializes the
// account and issues its referral code. Safe to call repeatedly.
func (h *Handler) CreateAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateAccountRequest
	_ = c.ShouldBindJSON(&req)

	user, created, err := h.UserRepo.GetOrCreate(c.Request.Context(), userID, req.Username, repository.GenerateReferralCode())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": user})
}

// Me returns the caller's profile. Pending auto-mining accrual is settled
// first so the balance the client renders is current.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Accrual.CatchUp(ctx, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle accrual"})
		return
	}

	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	_ = h.UserRepo.TouchLogin(ctx, userID, time.Now().UTC())

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// MyTransactions returns the caller's credit history.
func (h *Handler) MyTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 50)

	txs, err := h.TransactionRepo.GetByUserID(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
