// Package geocode resolves free-text neighborhood names to coordinates.
package geocode

import (
	"context"
	"errors"
)

// DisplayDelta is the latitude/longitude span wrapped around a resolved point.
const DisplayDelta = 0.05

// ErrNoResults is returned when the service knows no place for the query.
var ErrNoResults = errors.New("geocode: no results")

// Place is a resolved location with the span a map should show around it.
type Place struct {
	ID             string  `json:"id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// Resolver maps one place name to one location.
type Resolver interface {
	Resolve(ctx context.Context, place string) (*Place, error)
}
