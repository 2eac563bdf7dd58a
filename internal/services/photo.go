package services

import (
	"encoding/base64"
	"strings"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
}

// ValidatePhoto checks that photo is a base64 image data URL whose decoded
// payload fits in maxBytes. An empty photo is valid.
func ValidatePhoto(photo string, maxBytes int) error {
	if photo == "" {
		return nil
	}
	header, payload, ok := strings.Cut(photo, ",")
	if !ok {
		return ErrInvalidPhoto
	}
	mediaType, isBase64 := strings.CutSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if !strings.HasPrefix(header, "data:") || !isBase64 || !allowedPhotoTypes[strings.ToLower(mediaType)] {
		return ErrInvalidPhoto
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return ErrPhotoTooLarge
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return ErrInvalidPhoto
	}
	if len(decoded) > maxBytes {
		return ErrPhotoTooLarge
	}
	return nil
}
