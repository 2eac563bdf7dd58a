package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/logging"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/repository"
	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minPasswordLen    = 6
	minDisplayNameLen = 3

	HomeAdmin        = "/admin"
	HomeDashboard    = "/dashboard"
	HomeUnauthorized = "/unauthorized"
)

// DefaultVerificationTTL is how long a verification link stays valid.
const DefaultVerificationTTL = 24 * time.Hour

type AuthService struct {
	users           repository.UserRepository
	tokens          *utils.TokenManager
	revoked         *utils.RevokedTokens
	mailer          Mailer
	log             logging.Logger
	passwords       *utils.PasswordHasher
	baseURL         string
	maxPhotoBytes   int
	verificationTTL time.Duration
	attempts        *loginAttempts
	now             func() time.Time
}

// AuthOptions tunes an AuthService. Zero values select the defaults.
type AuthOptions struct {
	BaseURL         string
	MaxPhotoBytes   int
	Passwords       *utils.PasswordHasher
	VerificationTTL time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	tokens *utils.TokenManager,
	revoked *utils.RevokedTokens,
	mailer Mailer,
	log logging.Logger,
	opts AuthOptions,
) *AuthService {
	if opts.Passwords == nil {
		opts.Passwords, _ = utils.NewPasswordHasher(utils.DefaultPasswordCost)
	}
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = DefaultVerificationTTL
	}
	return &AuthService{
		users:           users,
		tokens:          tokens,
		revoked:         revoked,
		mailer:          mailer,
		log:             log,
		passwords:       opts.Passwords,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		maxPhotoBytes:   opts.MaxPhotoBytes,
		verificationTTL: opts.VerificationTTL,
		attempts:        newLoginAttempts(),
		now:             time.Now,
	}
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
	Redirect  string       `json:"redirect"`
}

// Register creates a medidor account and sends the verification email.
// Admin accounts are never created through this path.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	if !validEmail(email) {
		return nil, newAuthError(CodeInvalidEmail)
	}
	if len(password) < minPasswordLen {
		return nil, newAuthError(CodeWeakPassword)
	}
	if utf8.RuneCountInString(displayName) < minDisplayNameLen {
		return nil, newAuthError(CodeInvalidDisplayName)
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:                    primitive.NewObjectID(),
		Email:                 email,
		DisplayName:           displayName,
		Password:              hashed,
		Role:                  models.RoleMedidor,
		EmailVerified:         false,
		VerificationToken:     uuid.NewString(),
		VerificationExpiresAt: now.Add(s.verificationTTL),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, newAuthError(CodeEmailInUse)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user registered", "uid", user.ID.Hex(), "email", email)

	s.mailer.SendVerification(ctx, user, s.verificationLink(user.VerificationToken))
	return user, nil
}

// Login authenticates by email and password. A non-empty expectedRole must
// match the stored role, and medidores must have verified their email.
func (s *AuthService) Login(ctx context.Context, email, password string, expectedRole models.Role) (*Session, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if expectedRole != "" && user.Role != expectedRole {
		return nil, roleMismatch(user.Role)
	}
	if user.Role == models.RoleMedidor && !user.EmailVerified {
		return nil, newAuthError(CodeEmailNotVerified)
	}

	token, claims, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.log.Info(ctx, "login", "uid", user.ID.Hex(), "role", user.Role)

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
		Redirect:  HomeRoute(user.Role),
	}, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	s.revoked.Revoke(claims.ID, exp)
	s.log.Info(ctx, "logout", "uid", claims.UserID)
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	user, err := s.users.GetByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newAuthError(CodeInvalidActionCode)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup verification token: %w", err)
	}
	if !user.VerificationExpiresAt.IsZero() && s.now().After(user.VerificationExpiresAt) {
		return nil, newAuthError(CodeExpiredActionCode)
	}

	verified, cleared, noExpiry := true, "", time.Time{}
	err = s.users.Update(ctx, user.ID, repository.UserFields{
		EmailVerified:         &verified,
		VerificationToken:     &cleared,
		VerificationExpiresAt: &noExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	user.EmailVerified = true
	user.VerificationToken = ""
	user.VerificationExpiresAt = time.Time{}
	s.log.Info(ctx, "email verified", "uid", user.ID.Hex())
	return user, nil
}

// ResendVerification re-authenticates the user and, if still unverified,
// issues a new verification link.
func (s *AuthService) ResendVerification(ctx context.Context, email, password string) error {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return newAuthError(CodeAlreadyVerified)
	}

	token, expires := uuid.NewString(), s.now().UTC().Add(s.verificationTTL)
	err = s.users.Update(ctx, user.ID, repository.UserFields{VerificationToken: &token, VerificationExpiresAt: &expires})
	if err != nil {
		return fmt.Errorf("rotate verification token: %w", err)
	}
	user.VerificationToken = token
	s.mailer.SendVerification(ctx, user, s.verificationLink(token))
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes the display name and/or photo URL. Nil means unchanged.
func (s *AuthService) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, photoURL *string) (*models.User, error) {
	if displayName == nil && photoURL == nil {
		return nil, errors.New("no update fields provided")
	}
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if utf8.RuneCountInString(trimmed) < minDisplayNameLen {
			return nil, newAuthError(CodeInvalidDisplayName)
		}
		displayName = &trimmed
	}
	if photoURL != nil && strings.HasPrefix(*photoURL, "data:") {
		if err := ValidatePhoto(*photoURL, s.maxPhotoBytes); err != nil {
			return nil, fmt.Errorf("profile photo: %w", err)
		}
	}
	if err := s.users.Update(ctx, id, repository.UserFields{DisplayName: displayName, PhotoURL: photoURL}); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// IsRevoked reports whether a token ID was logged out.
func (s *AuthService) IsRevoked(tokenID string) bool {
	return s.revoked.IsRevoked(tokenID)
}

func (s *AuthService) Tokens() *utils.TokenManager {
	return s.tokens
}

// HomeRoute is where a signed-in user lands.
func HomeRoute(role models.Role) string {
	if role == models.RoleAdmin {
		return HomeAdmin
	}
	return HomeDashboard
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return nil, newAuthError(CodeInvalidEmail)
	}
	if s.attempts.blocked(email) {
		return nil, newAuthError(CodeTooManyRequests)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.attempts.fail(email)
		return nil, newAuthError(CodeUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.passwords.Matches(password, user.Password) {
		s.attempts.fail(email)
		s.log.Warn(ctx, "wrong password", "uid", user.ID.Hex())
		return nil, newAuthError(CodeWrongPassword)
	}
	s.attempts.reset(email)
	return user, nil
}

func (s *AuthService) verificationLink(token string) string {
	return s.baseURL + "/auth/verify?token=" + url.QueryEscape(token)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, "@")
}

// EnsureAdmin creates the admin account if no user holds that email yet.
// Admins are provisioned this way only; registration always yields medidores.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, displayName string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return newAuthError(CodeInvalidEmail)
	}
	if len(password) < minPasswordLen {
		return newAuthError(CodeWeakPassword)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			return fmt.Errorf("seed admin: %s already registered as %s", email, existing.Role)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hashed, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	admin := &models.User{
		ID:            primitive.NewObjectID(),
		Email:         email,
		DisplayName:   displayName,
		Password:      hashed,
		Role:          models.RoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, repository.ErrDuplicateEmail) {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info(ctx, "admin account seeded", "email", email)
	return nil
}
