package services

import (
	"fmt"
	"strconv"
)

const mapsSearchURL = "https://www.google.com/maps/search/"

// MapsURL is the link the client opens in the maps app (or a browser as fallback).
// Zero coordinates are treated as missing.
func MapsURL(lat, lng *float64) (string, error) {
	if lat == nil || lng == nil || *lat == 0 || *lng == 0 {
		return "", ErrNoCoordinates
	}
	return fmt.Sprintf("%s?api=1&query=%s,%s", mapsSearchURL, formatCoord(*lat), formatCoord(*lng)), nil
}

// FormatAddress renders coordinates as "lat, lng" with six decimals.
func FormatAddress(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
