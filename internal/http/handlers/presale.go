package handlers

import (
	"net/http"

	"ekehi_backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type SubmitPurchaseRequest struct {
	AmountUSD     float64 `json:"amount_usd" binding:"required"`
	PaymentMethod string  `json:"payment_method"`
}

// SubmitPurchase records a pending presale purchase for the caller.
// Crediting only happens when the gateway confirms completion.
func (h *Handler) SubmitPurchase(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req SubmitPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_usd is required"})
		return
	}

	purchase, err := h.Presale.Submit(c.Request.Context(), userID, req.AmountUSD, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"purchase":        purchase,
		"token_price_usd": h.Presale.TokenPrice(),
		// rate this purchase will add once the gateway confirms it
		"rate_on_completion": domain.RatePerSecond(purchase.TokensAmount),
	})
}

// MyPurchases returns the caller's purchase history, newest first.
func (h *Handler) MyPurchases(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := parsePositiveInt(c.Query("limit"), 50)
	purchases, err := h.Presale.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}

// CompletePurchase is the payment gateway callback for a successful
// payment. Finalizes the purchase and recomputes the buyer's
// auto-mining rate in one transaction.
func (h *Handler) CompletePurchase(c *gin.Context) {
	purchase, rate, err := h.Presale.MarkCompleted(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchase":         purchase,
		"coins_per_second": rate,
	})
}

// FailPurchase is the payment gateway callback for a failed payment.
func (h *Handler) FailPurchase(c *gin.Context) {
	purchase, err := h.Presale.MarkFailed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchase": purchase})
}
