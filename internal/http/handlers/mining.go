package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StartMining begins a new 24-hour session for the caller.
func (h *Handler) StartMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, err := h.Mining.StartSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// MiningStatus reports the countdown; pure read, no side effects.
func (h *Handler) MiningStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.Mining.GetStatus(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load mining status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// ClaimMining credits the session reward once the countdown reaches zero.
func (h *Handler) ClaimMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Mining.ClaimSession(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reward": h.Cfg.SessionReward,
		"user":   user,
	})
}

// ClaimAdBonus credits the cooldown-gated ad reward.
func (h *Handler) ClaimAdBonus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Mining.ClaimAdBonus(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reward": h.Cfg.AdBonusReward,
		"user":   user,
	})
}

// parsePositiveInt parses a query value, falling back to def when the
// value is missing or not a positive integer.
func parsePositiveInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
