package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListSocialTasks returns the active task catalog without progress.
func (h *Handler) ListSocialTasks(c *gin.Context) {
	tasks, err := h.Social.ListTasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// MySocialTasks returns the catalog merged with the caller's per-task
// status.
func (h *Handler) MySocialTasks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tasks, err := h.Social.ListWithProgress(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// StartSocialTask marks a task as started for the caller. Safe to call
// repeatedly.
func (h *Handler) StartSocialTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID := c.Param("id")
	progress, err := h.Social.StartTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": progress})
}

// CompleteSocialTask reports the task action as done. Auto-verified
// tasks credit immediately; manual tasks wait for verification.
func (h *Handler) CompleteSocialTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID := c.Param("id")
	progress, err := h.Social.CompleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": progress})
}

// VerifySocialTask confirms a completed task and credits the reward.
func (h *Handler) VerifySocialTask(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	taskID := c.Param("id")
	progress, err := h.Social.VerifyTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": progress})
}
