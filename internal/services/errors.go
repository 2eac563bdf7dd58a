package services

import (
	"errors"
	"fmt"

	"github.com/IsaacMorocho/Registro-Mediciones-de-Agua---APP/internal/models"
)

// Auth error codes understood by the mobile client.
const (
	CodeUserNotFound       = "auth/user-not-found"
	CodeWrongPassword      = "auth/wrong-password"
	CodeEmailInUse         = "auth/email-already-in-use"
	CodeWeakPassword       = "auth/weak-password"
	CodeInvalidEmail       = "auth/invalid-email"
	CodeTooManyRequests    = "auth/too-many-requests"
	CodeEmailNotVerified   = "auth/email-not-verified"
	CodeRoleMismatch       = "auth/role-mismatch"
	CodeInvalidDisplayName = "auth/invalid-display-name"
	CodeInvalidActionCode  = "auth/invalid-action-code"
	CodeExpiredActionCode  = "auth/expired-action-code"
	CodeAlreadyVerified    = "auth/already-verified"
)

var authMessages = map[string]string{
	CodeUserNotFound:       "Usuario no encontrado. Verifica tu correo.",
	CodeWrongPassword:      "Contraseña incorrecta.",
	CodeEmailInUse:         "El correo ya está registrado.",
	CodeWeakPassword:       "La contraseña es muy débil.",
	CodeInvalidEmail:       "El correo electrónico no es válido.",
	CodeTooManyRequests:    "Demasiados intentos. Intenta más tarde.",
	CodeEmailNotVerified:   "Por favor verifica tu correo electrónico antes de iniciar sesión. Revisa tu bandeja de entrada.",
	CodeInvalidDisplayName: "El nombre debe tener al menos 3 caracteres.",
	CodeInvalidActionCode:  "El enlace de verificación no es válido o ya fue usado.",
	CodeExpiredActionCode:  "El enlace de verificación expiró. Solicita uno nuevo.",
	CodeAlreadyVerified:    "Tu email ya está verificado.",
}

const defaultAuthMessage = "Ocurrió un error"

// AuthError is a failure the client can show to the user as-is.
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Code + ": " + e.Message
}

// AuthErrorMessage maps a known code to its user-facing message.
func AuthErrorMessage(code string) string {
	if msg, ok := authMessages[code]; ok {
		return msg
	}
	return defaultAuthMessage
}

func newAuthError(code string) *AuthError {
	return &AuthError{Code: code, Message: AuthErrorMessage(code)}
}

func roleMismatch(actual models.Role) *AuthError {
	return &AuthError{
		Code:    CodeRoleMismatch,
		Message: fmt.Sprintf("Este usuario es %q. Por favor selecciona el tipo correcto.", actual),
	}
}

// AsAuthError unwraps err into an *AuthError if it is one.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

var (
	ErrForbidden = errors.New("forbidden")

	// Measurement validation.
	ErrInvalidMeterValue  = errors.New("meter value must be a non-negative number")
	ErrMeterPhotoRequired = errors.New("La foto del medidor es obligatoria")
	ErrLocationRequired   = errors.New("La ubicación es obligatoria")
	ErrInvalidPhoto       = errors.New("photo must be an inline base64 image data URL")
	ErrPhotoTooLarge      = errors.New("photo exceeds the maximum allowed size")
	ErrInvalidCoordinates = errors.New("coordinates out of range")
	ErrNoCoordinates      = errors.New("Coordenadas no disponibles")
)

// Codes for the sentinel errors above, sent alongside the message.
const (
	CodeNotFound           = "not-found"
	CodePermissionDenied   = "permission-denied"
	CodeInvalidMeterValue  = "measurement/invalid-meter-value"
	CodePhotoRequired      = "measurement/photo-required"
	CodeLocationRequired   = "measurement/location-required"
	CodeInvalidPhoto       = "measurement/invalid-photo"
	CodePhotoTooLarge      = "measurement/photo-too-large"
	CodeInvalidCoordinates = "measurement/invalid-coordinates"
	CodeNoCoordinates      = "measurement/no-coordinates"
	CodeInternal           = "internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrForbidden, CodePermissionDenied},
	{ErrInvalidMeterValue, CodeInvalidMeterValue},
	{ErrMeterPhotoRequired, CodePhotoRequired},
	{ErrLocationRequired, CodeLocationRequired},
	{ErrInvalidPhoto, CodeInvalidPhoto},
	{ErrPhotoTooLarge, CodePhotoTooLarge},
	{ErrInvalidCoordinates, CodeInvalidCoordinates},
	{ErrNoCoordinates, CodeNoCoordinates},
}

// ErrorCode returns the stable code for err; CodeInternal when none applies.
// Repository not-found errors are matched by the caller.
func ErrorCode(err error) string {
	if ae, ok := AsAuthError(err); ok {
		return ae.Code
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
