package handlers

import (
	"net/http"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/middleware"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/services"
	"github.com/gin-gonic/gin"
)

type CreateMeasurementRequest struct {
	MeterValue     *float64 `json:"meterValue"`
	Unit           string   `json:"unit"`
	Observations   string   `json:"observations"`
	MeterPhotoURL  string   `json:"meterPhotoURL"`
	FacadePhotoURL string   `json:"facadePhotoURL"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Address        string   `json:"address"`
}

// CreateMeasurement stores a reading submitted by a medidor.
func (h *Handler) CreateMeasurement(c *gin.Context) {
	var req CreateMeasurementRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.Auth.GetUserByID(ctx, userID)
	if err != nil {
		h.respondError(c, err, "Could not find user details")
		return
	}

	m, err := h.Measurements.Create(ctx, user, services.NewMeasurement{
		MeterValue:     req.MeterValue,
		Unit:           req.Unit,
		Observations:   req.Observations,
		MeterPhotoURL:  req.MeterPhotoURL,
		FacadePhotoURL: req.FacadePhotoURL,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Address:        req.Address,
	})
	if err != nil {
		h.respondError(c, err, "Error al guardar la medición")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ListMyMeasurements backs the medidor dashboard.
func (h *Handler) ListMyMeasurements(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	list, stats, err := h.Measurements.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve measurements")
		return
	}
	c.JSON(http.StatusOK, gin.H{"measurements": list, "stats": stats})
}

// ListAllMeasurements backs the admin review screen.
func (h *Handler) ListAllMeasurements(c *gin.Context) {
	list, err := h.Measurements.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Error al cargar mediciones")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) DeleteMeasurement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Measurements.Delete(c.Request.Context(), id, middleware.Role(c)); err != nil {
		h.respondError(c, err, "Error al eliminar medición")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Medición eliminada correctamente"})
}

// MeasurementMaps returns the maps link for a measurement's location.
func (h *Handler) MeasurementMaps(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	link, err := h.Measurements.MapsLink(c.Request.Context(), id, userID, middleware.Role(c))
	if err != nil {
		h.respondError(c, err, "Error abriendo el mapa")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
