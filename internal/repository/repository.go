// Package repository persists users and measurements in the document store.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UsersCollection        = "users"
	MeasurementsCollection = "measurements"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserFields are the mutable parts of a user document. Nil fields are left
// untouched; an empty VerificationToken or zero VerificationExpiresAt clears the field.
type UserFields struct {
	DisplayName           *string
	PhotoURL              *string
	EmailVerified         *bool
	VerificationToken     *string
	VerificationExpiresAt *time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, f UserFields) error
}

// MeasurementRepository lists are ordered by createdAt, newest first.
type MeasurementRepository interface {
	Create(ctx context.Context, m *models.Measurement) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Measurement, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Measurement, error)
	ListAll(ctx context.Context) ([]models.Measurement, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
