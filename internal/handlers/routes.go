package handlers

import (
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/middleware"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/gin-gonic/gin"
)

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	if h.MaxBodyBytes > 0 {
		r.Use(middleware.BodyLimit(h.MaxBodyBytes))
	}

	requireAuth := middleware.AuthMiddleware(h.Auth.Tokens(), h.Auth)

	// --- Routes ---
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
		authRoutes.GET("/verify", h.VerifyEmail)
		authRoutes.POST("/resend-verification", h.ResendVerification)
		authRoutes.POST("/logout", requireAuth, h.Logout)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(requireAuth) // Protect all /api routes
	{
		apiRoutes.GET("/session/home", h.SessionHome)

		apiRoutes.GET("/users/me", h.GetCurrentUser)
		apiRoutes.PUT("/users/me", h.UpdateCurrentUser)
		apiRoutes.GET("/users/:id", middleware.RequireRole(models.RoleAdmin), h.GetUser)

		medidor := middleware.RequireRole(models.RoleMedidor)
		admin := middleware.RequireRole(models.RoleAdmin)
		apiRoutes.POST("/measurements", medidor, h.CreateMeasurement)
		apiRoutes.GET("/measurements/mine", medidor, h.ListMyMeasurements)
		apiRoutes.GET("/measurements", admin, h.ListAllMeasurements)
		apiRoutes.DELETE("/measurements/:id", admin, h.DeleteMeasurement)
		apiRoutes.GET("/measurements/:id/maps", h.MeasurementMaps)
	}
}
