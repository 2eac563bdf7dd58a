package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const UnknownUserName = "Usuario desconocido"

type MeasurementService struct {
	measurements  repository.MeasurementRepository
	users         repository.UserRepository
	log           logging.Logger
	maxPhotoBytes int
}

func NewMeasurementService(
	measurements repository.MeasurementRepository,
	users repository.UserRepository,
	log logging.Logger,
	maxPhotoBytes int,
) *MeasurementService {
	return &MeasurementService{
		measurements:  measurements,
		users:         users,
		log:           log,
		maxPhotoBytes: maxPhotoBytes,
	}
}

// NewMeasurement is what a medidor submits from the device.
type NewMeasurement struct {
	MeterValue     *float64
	Unit           string
	Observations   string
	MeterPhotoURL  string
	FacadePhotoURL string
	Latitude       *float64
	Longitude      *float64
	Address        string
}

// Stats summarise a medidor's own readings for the dashboard.
type Stats struct {
	Total     int `json:"total"`
	WithPhoto int `json:"withPhoto"`
}

// AdminMeasurement is a measurement with the owner's current display name.
type AdminMeasurement struct {
	models.Measurement
	OwnerName string `json:"ownerName"`
	MapsURL   string `json:"mapsURL,omitempty"`
}

func (s *MeasurementService) Create(ctx context.Context, user *models.User, in NewMeasurement) (*models.Measurement, error) {
	if in.MeterValue == nil || *in.MeterValue < 0 || math.IsNaN(*in.MeterValue) || math.IsInf(*in.MeterValue, 0) {
		return nil, ErrInvalidMeterValue
	}
	if in.MeterPhotoURL == "" {
		return nil, ErrMeterPhotoRequired
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, ErrLocationRequired
	}
	if math.Abs(*in.Latitude) > 90 || math.Abs(*in.Longitude) > 180 {
		return nil, ErrInvalidCoordinates
	}
	if err := ValidatePhoto(in.MeterPhotoURL, s.maxPhotoBytes); err != nil {
		return nil, fmt.Errorf("meter photo: %w", err)
	}
	if err := ValidatePhoto(in.FacadePhotoURL, s.maxPhotoBytes); err != nil {
		return nil, fmt.Errorf("facade photo: %w", err)
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = models.DefaultUnit
	}
	address := strings.TrimSpace(in.Address)
	if address == "" {
		address = FormatAddress(*in.Latitude, *in.Longitude)
	}

	now := time.Now().UTC()
	m := &models.Measurement{
		UserID:          user.ID,
		UserDisplayName: user.Name(),
		MeterValue:      *in.MeterValue,
		Unit:            unit,
		Observations:    strings.TrimSpace(in.Observations),
		MeterPhotoURL:   in.MeterPhotoURL,
		FacadePhotoURL:  in.FacadePhotoURL,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		Address:         address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	id, err := s.measurements.Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("store measurement: %w", err)
	}
	m.ID = id
	s.log.Info(ctx, "measurement created", "id", id.Hex(), "uid", user.ID.Hex(), "value", m.MeterValue, "unit", unit)
	return m, nil
}

// ListMine returns the user's measurements, newest first, with dashboard stats.
func (s *MeasurementService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]models.Measurement, Stats, error) {
	list, err := s.measurements.ListByUser(ctx, userID)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("list measurements: %w", err)
	}
	stats := Stats{Total: len(list)}
	for i := range list {
		if list[i].HasPhoto() {
			stats.WithPhoto++
		}
	}
	return list, stats, nil
}

// ListAll returns every measurement, newest first, for admin review.
func (s *MeasurementService) ListAll(ctx context.Context) ([]AdminMeasurement, error) {
	list, err := s.measurements.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	names := make(map[primitive.ObjectID]string)
	out := make([]AdminMeasurement, 0, len(list))
	for _, m := range list {
		name, ok := names[m.UserID]
		if !ok {
			name = s.ownerName(ctx, m.UserID)
			names[m.UserID] = name
		}
		link, _ := MapsURL(m.Latitude, m.Longitude)
		out = append(out, AdminMeasurement{Measurement: m, OwnerName: name, MapsURL: link})
	}
	return out, nil
}

func (s *MeasurementService) Get(ctx context.Context, id primitive.ObjectID) (*models.Measurement, error) {
	return s.measurements.GetByID(ctx, id)
}

// MapsLink returns the maps URL of a measurement visible to the caller:
// admins see all, medidores only their own.
func (s *MeasurementService) MapsLink(ctx context.Context, id, callerID primitive.ObjectID, role models.Role) (string, error) {
	m, err := s.measurements.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if role != models.RoleAdmin && m.UserID != callerID {
		return "", ErrForbidden
	}
	return MapsURL(m.Latitude, m.Longitude)
}

func (s *MeasurementService) Delete(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	if role != models.RoleAdmin {
		return ErrForbidden
	}
	if err := s.measurements.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "measurement deleted", "id", id.Hex())
	return nil
}

func (s *MeasurementService) ownerName(ctx context.Context, id primitive.ObjectID) string {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn(ctx, "owner lookup failed", "uid", id.Hex(), "err", err)
		}
		return UnknownUserName
	}
	if u.DisplayName == "" {
		return UnknownUserName
	}
	return u.DisplayName
}
