package handlers

import (
	"errors"
	"net/http"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/middleware"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler bundles the services the HTTP endpoints call into.
type Handler struct {
	Auth         *services.AuthService
	Measurements *services.MeasurementService
	Log          logging.Logger
	// MaxBodyBytes caps request bodies; zero disables the cap.
	MaxBodyBytes int64
}

const codeInvalidBody = "request/invalid-body"

func NewHandler(auth *services.AuthService, measurements *services.MeasurementService, log logging.Logger, maxBodyBytes int64) *Handler {
	return &Handler{
		Auth:         auth,
		Measurements: measurements,
		Log:          log,
		MaxBodyBytes: maxBodyBytes,
	}
}

// bindJSON decodes the request body into dst. Bodies cut off by the size
// cap answer 413, anything else that fails to bind answers 400 with msg.
func bindJSON(c *gin.Context, dst any, msg string) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "code": middleware.CodeRequestTooLarge})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": codeInvalidBody})
	return false
}

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.KeyUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token", "code": middleware.CodeInvalidToken})
		return primitive.NilObjectID, false
	}
	return id, true
}

func pathID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID", "code": codeInvalidBody})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if ae, ok := services.AsAuthError(err); ok {
		c.JSON(authStatus(ae.Code), gin.H{"error": ae.Message, "code": ae.Code})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": services.CodeNotFound})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied.", "code": services.CodePermissionDenied, "redirect": services.HomeUnauthorized})
	case errors.Is(err, services.ErrInvalidMeterValue),
		errors.Is(err, services.ErrMeterPhotoRequired),
		errors.Is(err, services.ErrLocationRequired),
		errors.Is(err, services.ErrInvalidPhoto),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrNoCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": services.ErrorCode(err)})
	case errors.Is(err, services.ErrPhotoTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "code": services.ErrorCode(err)})
	default:
		h.Log.Error(c.Request.Context(), fallback, "err", err)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "code": services.CodeInternal})
	}
}

func authStatus(code string) int {
	switch code {
	case services.CodeUserNotFound, services.CodeWrongPassword:
		return http.StatusUnauthorized
	case services.CodeEmailNotVerified, services.CodeRoleMismatch:
		return http.StatusForbidden
	case services.CodeEmailInUse, services.CodeAlreadyVerified:
		return http.StatusConflict
	case services.CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
