package services

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (f *fakeMailer) SendVerification(_ context.Context, u *models.User, link string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.links == nil {
		f.links = make(map[string]string)
	}
	f.links[u.Email] = link
}

func (f *fakeMailer) tokenFor(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, tok, _ := strings.Cut(f.links[email], "token=")
	return tok
}

type fixture struct {
	users        *repository.MemoryUsers
	measurements *repository.MemoryMeasurements
	mailer       *fakeMailer
	auth         *AuthService
	svc          *MeasurementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	f := &fixture{
		users:        repository.NewMemoryUsers(),
		measurements: repository.NewMemoryMeasurements(),
		mailer:       &fakeMailer{},
	}
	passwords, err := utils.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	log := logging.Discard()
	f.auth = NewAuthService(f.users, tokens, utils.NewRevokedTokens(), f.mailer, log, AuthOptions{
		BaseURL:       "http://api.test/",
		MaxPhotoBytes: 1024,
		Passwords:     passwords,
	})
	f.svc = NewMeasurementService(f.measurements, f.users, log, 1024)
	return f
}

// verifiedMedidor registers and verifies a medidor.
func (f *fixture) verifiedMedidor(t *testing.T, email, name string) *models.User {
	t.Helper()
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, email, "secret123", name); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := f.auth.VerifyEmail(ctx, f.mailer.tokenFor(email))
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	return u
}

func photo(n int) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(make([]byte, n))
}

func ptr[T any](v T) *T { return &v }

func requireAuthCode(t *testing.T, err error, code string) {
	t.Helper()
	ae, ok := AsAuthError(err)
	if !ok {
		t.Fatalf("expected AuthError %s, got %v", code, err)
	}
	if ae.Code != code {
		t.Fatalf("expected code %s, got %s", code, ae.Code)
	}
}
