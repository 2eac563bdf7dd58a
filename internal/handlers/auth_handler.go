package handlers

import (
	"net/http"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/middleware"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/services"
	"github.com/gin-gonic/gin"
)

type RegisterUserRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
	DisplayName     string `json:"displayName" binding:"required"`
}

type LoginRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role"` // the user type picked on the login screen, optional
}

// RegisterUser creates a medidor account. Verification is required before login.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if !bindJSON(c, &req, "Por favor completa todos los campos correctamente") {
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Las contraseñas no coinciden", "code": codeInvalidBody})
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.respondError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "Registro exitoso. Revisa tu correo para verificar tu cuenta.",
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req, "Por favor completa todos los campos") {
		return
	}
	if req.Role != "" && !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role", "code": codeInvalidBody})
		return
	}

	session, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.respondError(c, err, "Could not log in")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) Logout(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	h.Auth.Logout(c.Request.Context(), claims)
	c.JSON(http.StatusOK, gin.H{"message": "Sesión cerrada", "redirect": "/auth"})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.Auth.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.respondError(c, err, "Failed to verify email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Correo verificado. Ya puedes iniciar sesión.", "user": user})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req, "Por favor ingresa tu correo y contraseña primero") {
		return
	}

	if err := h.Auth.ResendVerification(c.Request.Context(), req.Email, req.Password); err != nil {
		h.respondError(c, err, "Error al reenviar email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email de verificación reenviado. Revisa tu bandeja."})
}

// SessionHome tells the client where a signed-in user should land.
func (h *Handler) SessionHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"redirect": services.HomeRoute(middleware.Role(c))})
}
