package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validInput() NewMeasurement {
	return NewMeasurement{
		MeterValue:    ptr(123.5),
		MeterPhotoURL: photo(32),
		Latitude:      ptr(-0.180653),
		Longitude:     ptr(-78.467834),
	}
}

func TestCreate_FillsDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.verifiedMedidor(t, "m@example.com", "Carlos")

	in := validInput()
	in.Observations = "  medidor empañado "
	m, err := f.svc.Create(ctx, u, in)
	require.NoError(t, err)

	assert.False(t, m.ID.IsZero())
	assert.Equal(t, u.ID, m.UserID)
	assert.Equal(t, "Carlos", m.UserDisplayName)
	assert.Equal(t, models.DefaultUnit, m.Unit)
	assert.Equal(t, "medidor empañado", m.Observations)
	assert.Equal(t, "-0.180653, -78.467834", m.Address)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, m.CreatedAt, m.UpdatedAt)

	stored, err := f.measurements.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 123.5, stored.MeterValue)
}

func TestCreate_DisplayNameFallsBackToEmail(t *testing.T) {
	f := newFixture(t)
	u := &models.User{ID: primitive.NewObjectID(), Email: "solo@example.com"}

	m, err := f.svc.Create(context.Background(), u, validInput())
	require.NoError(t, err)
	assert.Equal(t, "solo@example.com", m.UserDisplayName)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	u := &models.User{ID: primitive.NewObjectID(), Email: "m@example.com"}

	cases := []struct {
		name   string
		mutate func(*NewMeasurement)
		want   error
	}{
		{"missing value", func(in *NewMeasurement) { in.MeterValue = nil }, ErrInvalidMeterValue},
		{"negative value", func(in *NewMeasurement) { in.MeterValue = ptr(-1.0) }, ErrInvalidMeterValue},
		{"missing meter photo", func(in *NewMeasurement) { in.MeterPhotoURL = "" }, ErrMeterPhotoRequired},
		{"missing location", func(in *NewMeasurement) { in.Latitude = nil }, ErrLocationRequired},
		{"latitude out of range", func(in *NewMeasurement) { in.Latitude = ptr(91.0) }, ErrInvalidCoordinates},
		{"not a data url", func(in *NewMeasurement) { in.MeterPhotoURL = "https://example.com/a.jpg" }, ErrInvalidPhoto},
		{"meter photo too large", func(in *NewMeasurement) { in.MeterPhotoURL = photo(4096) }, ErrPhotoTooLarge},
		{"bad facade photo", func(in *NewMeasurement) { in.FacadePhotoURL = "data:text/plain;base64,aGk=" }, ErrInvalidPhoto},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := f.svc.Create(context.Background(), u, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	all, err := f.measurements.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "rejected submissions must not reach the store")
}

func TestCreate_ZeroValueAllowed(t *testing.T) {
	f := newFixture(t)
	u := &models.User{ID: primitive.NewObjectID(), Email: "m@example.com"}
	in := validInput()
	in.MeterValue = ptr(0.0)
	in.Unit = "kWh"

	m, err := f.svc.Create(context.Background(), u, in)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.MeterValue)
	assert.Equal(t, "kWh", m.Unit)
}

func TestListMine_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.verifiedMedidor(t, "a@example.com", "Alicia")
	b := f.verifiedMedidor(t, "b@example.com", "Bruno")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, a, validInput())
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, b, validInput())
	require.NoError(t, err)

	// A legacy record without photo, written straight to the store.
	_, err = f.measurements.Create(ctx, &models.Measurement{UserID: a.ID, MeterValue: 1})
	require.NoError(t, err)

	list, stats, err := f.svc.ListMine(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, Stats{Total: 4, WithPhoto: 3}, stats)
	for _, m := range list {
		assert.Equal(t, a.ID, m.UserID)
	}
}

func TestListAll_ResolvesOwnerNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.verifiedMedidor(t, "a@example.com", "Alicia")

	_, err := f.svc.Create(ctx, a, validInput())
	require.NoError(t, err)
	_, err = f.measurements.Create(ctx, &models.Measurement{UserID: primitive.NewObjectID(), MeterValue: 9})
	require.NoError(t, err)

	_, err = f.auth.UpdateProfile(ctx, a.ID, ptr("Alicia R."), nil)
	require.NoError(t, err)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byOwner := map[string]AdminMeasurement{}
	for _, m := range all {
		byOwner[m.OwnerName] = m
	}
	require.Contains(t, byOwner, "Alicia R.")
	require.Contains(t, byOwner, UnknownUserName)
	assert.Equal(t, "Alicia", byOwner["Alicia R."].UserDisplayName)
	assert.Contains(t, byOwner["Alicia R."].MapsURL, "query=-0.180653,-78.467834")
	assert.Empty(t, byOwner[UnknownUserName].MapsURL)
}

func TestDelete_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.verifiedMedidor(t, "m@example.com", "Medidor")
	m, err := f.svc.Create(ctx, u, validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, m.ID, models.RoleMedidor), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, m.ID, models.RoleAdmin))
	assert.ErrorIs(t, f.svc.Delete(ctx, m.ID, models.RoleAdmin), repository.ErrNotFound)
}

func TestMapsLink_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.verifiedMedidor(t, "o@example.com", "Owner")
	other := f.verifiedMedidor(t, "x@example.com", "Other")
	m, err := f.svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	link, err := f.svc.MapsLink(ctx, m.ID, owner.ID, models.RoleMedidor)
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=-0.180653,-78.467834", link)

	_, err = f.svc.MapsLink(ctx, m.ID, other.ID, models.RoleMedidor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.MapsLink(ctx, m.ID, other.ID, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestMapsURL_MissingCoordinates(t *testing.T) {
	_, err := MapsURL(nil, ptr(1.0))
	assert.ErrorIs(t, err, ErrNoCoordinates)
	_, err = MapsURL(ptr(0.0), ptr(1.0))
	assert.ErrorIs(t, err, ErrNoCoordinates)
}

func TestValidatePhoto(t *testing.T) {
	assert.NoError(t, ValidatePhoto("", 10))
	assert.NoError(t, ValidatePhoto(photo(10), 10))
	assert.NoError(t, ValidatePhoto("data:image/png;base64,aGVsbG8=", 10))
	assert.ErrorIs(t, ValidatePhoto(photo(11), 10), ErrPhotoTooLarge)
	assert.ErrorIs(t, ValidatePhoto("data:image/png;base64,@@@", 10), ErrInvalidPhoto)
	assert.ErrorIs(t, ValidatePhoto("data:image/png,aGVsbG8=", 10), ErrInvalidPhoto)
	assert.ErrorIs(t, ValidatePhoto("image/png;base64,aGVsbG8=", 10), ErrInvalidPhoto)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodePhotoRequired, ErrorCode(ErrMeterPhotoRequired))
	assert.Equal(t, CodePhotoTooLarge, ErrorCode(fmt.Errorf("meter photo: %w", ErrPhotoTooLarge)))
	assert.Equal(t, CodePermissionDenied, ErrorCode(ErrForbidden))
	assert.Equal(t, CodeWrongPassword, ErrorCode(newAuthError(CodeWrongPassword)))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
}
