package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.Auth.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser allows a user to update their own display name and photo.
func (h *Handler) UpdateCurrentUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	// Role, email and verification state are not client-editable.
	var req struct {
		DisplayName *string `json:"displayName"`
		PhotoURL    *string `json:"photoURL"`
	}
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}
	if req.DisplayName == nil && req.PhotoURL == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No update fields provided", "code": codeInvalidBody})
		return
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), userID, req.DisplayName, req.PhotoURL)
	if err != nil {
		h.respondError(c, err, "Failed to update user profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns any user's profile (admin).
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.Auth.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, user)
}
