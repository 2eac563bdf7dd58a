package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesUnverifiedMedidor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, " Ana@Example.com ", "secret123", "Ana Pérez")
	require.NoError(t, err)

	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleMedidor, u.Role)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "secret123", u.Password)
	assert.False(t, u.CreatedAt.IsZero())

	link := f.mailer.links["ana@example.com"]
	assert.True(t, strings.HasPrefix(link, "http://api.test/auth/verify?token="), link)
	assert.Equal(t, u.VerificationToken, f.mailer.tokenFor("ana@example.com"))
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "not-an-email", "secret123", "Ana")
	requireAuthCode(t, err, CodeInvalidEmail)

	_, err = f.auth.Register(ctx, "a@example.com", "12345", "Ana")
	requireAuthCode(t, err, CodeWeakPassword)

	_, err = f.auth.Register(ctx, "a@example.com", "123456", "An")
	requireAuthCode(t, err, CodeInvalidDisplayName)

	_, err = f.auth.Register(ctx, "a@example.com", "123456", "Ana")
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, "A@example.com", "123456", "Ana")
	requireAuthCode(t, err, CodeEmailInUse)
}

func TestLogin_RequiresVerifiedEmailForMedidor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "m@example.com", "secret123", "Medidor")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "m@example.com", "secret123", "")
	requireAuthCode(t, err, CodeEmailNotVerified)

	_, err = f.auth.VerifyEmail(ctx, f.mailer.tokenFor("m@example.com"))
	require.NoError(t, err)

	sess, err := f.auth.Login(ctx, "m@example.com", "secret123", models.RoleMedidor)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, HomeDashboard, sess.Redirect)
	assert.True(t, sess.User.EmailVerified)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedMedidor(t, "m@example.com", "Medidor")

	_, err := f.auth.Login(ctx, "ghost@example.com", "secret123", "")
	requireAuthCode(t, err, CodeUserNotFound)

	_, err = f.auth.Login(ctx, "m@example.com", "nope-nope", "")
	requireAuthCode(t, err, CodeWrongPassword)

	_, err = f.auth.Login(ctx, "m@example.com", "secret123", models.RoleAdmin)
	requireAuthCode(t, err, CodeRoleMismatch)
	assert.Contains(t, err.Error(), "medidor")
}

func TestLogin_TooManyAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedMedidor(t, "m@example.com", "Medidor")

	for i := 0; i < maxFailedLogins; i++ {
		_, err := f.auth.Login(ctx, "m@example.com", "wrong-pass", "")
		requireAuthCode(t, err, CodeWrongPassword)
	}
	_, err := f.auth.Login(ctx, "m@example.com", "secret123", "")
	requireAuthCode(t, err, CodeTooManyRequests)

	f.auth.attempts.now = func() time.Time { return time.Now().Add(failedLoginWindow + time.Minute) }
	_, err = f.auth.Login(ctx, "m@example.com", "secret123", "")
	assert.NoError(t, err)
}

func TestVerifyEmail_TokenIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "m@example.com", "secret123", "Medidor")
	require.NoError(t, err)
	tok := f.mailer.tokenFor("m@example.com")

	u, err := f.auth.VerifyEmail(ctx, tok)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	_, err = f.auth.VerifyEmail(ctx, tok)
	requireAuthCode(t, err, CodeInvalidActionCode)

	_, err = f.auth.VerifyEmail(ctx, "")
	requireAuthCode(t, err, CodeInvalidActionCode)
}

func TestResendVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "m@example.com", "secret123", "Medidor")
	require.NoError(t, err)
	first := f.mailer.tokenFor("m@example.com")

	require.NoError(t, f.auth.ResendVerification(ctx, "m@example.com", "secret123"))
	second := f.mailer.tokenFor("m@example.com")
	assert.NotEqual(t, first, second)

	_, err = f.auth.VerifyEmail(ctx, first)
	requireAuthCode(t, err, CodeInvalidActionCode)
	_, err = f.auth.VerifyEmail(ctx, second)
	require.NoError(t, err)

	err = f.auth.ResendVerification(ctx, "m@example.com", "secret123")
	requireAuthCode(t, err, CodeAlreadyVerified)

	err = f.auth.ResendVerification(ctx, "m@example.com", "bad-password")
	requireAuthCode(t, err, CodeWrongPassword)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifiedMedidor(t, "m@example.com", "Medidor")

	sess, err := f.auth.Login(ctx, "m@example.com", "secret123", "")
	require.NoError(t, err)
	claims, err := f.auth.Tokens().ValidateJWT(sess.Token)
	require.NoError(t, err)

	assert.False(t, f.auth.IsRevoked(claims.ID))
	f.auth.Logout(ctx, claims)
	assert.True(t, f.auth.IsRevoked(claims.ID))
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@example.com", "adminpass", "Admin"))
	require.NoError(t, f.auth.EnsureAdmin(ctx, "admin@example.com", "adminpass", "Admin"))

	sess, err := f.auth.Login(ctx, "admin@example.com", "adminpass", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, HomeAdmin, sess.Redirect)

	f.verifiedMedidor(t, "m@example.com", "Medidor")
	assert.Error(t, f.auth.EnsureAdmin(ctx, "m@example.com", "secret123", "X"))
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.verifiedMedidor(t, "m@example.com", "Medidor")

	got, err := f.auth.UpdateProfile(ctx, u.ID, ptr("  Nuevo Nombre "), ptr("https://img.example/p.png"))
	require.NoError(t, err)
	assert.Equal(t, "Nuevo Nombre", got.DisplayName)
	assert.Equal(t, "https://img.example/p.png", got.PhotoURL)
	assert.True(t, !got.UpdatedAt.Before(u.UpdatedAt))

	_, err = f.auth.UpdateProfile(ctx, u.ID, ptr("ab"), nil)
	requireAuthCode(t, err, CodeInvalidDisplayName)

	_, err = f.auth.UpdateProfile(ctx, u.ID, nil, nil)
	assert.Error(t, err)
}

func TestHomeRoute(t *testing.T) {
	assert.Equal(t, HomeAdmin, HomeRoute(models.RoleAdmin))
	assert.Equal(t, HomeDashboard, HomeRoute(models.RoleMedidor))
}

func TestAuthErrorMessage(t *testing.T) {
	assert.Equal(t, "Contraseña incorrecta.", AuthErrorMessage(CodeWrongPassword))
	assert.Equal(t, "El correo ya está registrado.", AuthErrorMessage(CodeEmailInUse))
	assert.Equal(t, defaultAuthMessage, AuthErrorMessage("auth/something-else"))
}

func TestLoginAttempts_ExpiredEntriesAreDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	attempts := f.auth.attempts

	for i := 0; i < 50; i++ {
		_, err := f.auth.Login(ctx, fmt.Sprintf("ghost%d@example.com", i), "secret123", "")
		requireAuthCode(t, err, CodeUserNotFound)
	}
	assert.Len(t, attempts.failures, 50)

	later := time.Now().Add(24 * time.Hour)
	attempts.now = func() time.Time { return later }

	_, err := f.auth.Login(ctx, "another@example.com", "secret123", "")
	requireAuthCode(t, err, CodeUserNotFound)
	assert.Len(t, attempts.failures, 1)
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "m@example.com", "secret123", "Medidor")
	require.NoError(t, err)
	stale := f.mailer.tokenFor("m@example.com")

	f.auth.now = func() time.Time { return time.Now().Add(DefaultVerificationTTL + time.Minute) }
	_, err = f.auth.VerifyEmail(ctx, stale)
	requireAuthCode(t, err, CodeExpiredActionCode)

	// A resend issues a fresh link with a new expiry measured from now.
	require.NoError(t, f.auth.ResendVerification(ctx, "m@example.com", "secret123"))
	fresh := f.mailer.tokenFor("m@example.com")
	require.NotEqual(t, stale, fresh)

	u, err := f.auth.VerifyEmail(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.VerificationExpiresAt.IsZero())
	assert.Empty(t, stored.VerificationToken)
}

func TestRegister_SetsVerificationExpiry(t *testing.T) {
	f := newFixture(t)
	before := time.Now()
	u, err := f.auth.Register(context.Background(), "m@example.com", "secret123", "Medidor")
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(DefaultVerificationTTL), u.VerificationExpiresAt, time.Minute)
}

func TestUpdateProfile_ValidatesInlinePhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.verifiedMedidor(t, "m@example.com", "Medidor")

	_, err := f.auth.UpdateProfile(ctx, u.ID, nil, ptr(photo(4096)))
	assert.ErrorIs(t, err, ErrPhotoTooLarge)

	_, err = f.auth.UpdateProfile(ctx, u.ID, nil, ptr("data:image/png;base64,@@@"))
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	got, err := f.auth.UpdateProfile(ctx, u.ID, nil, ptr(photo(64)))
	require.NoError(t, err)
	assert.Equal(t, photo(64), got.PhotoURL)
}
