// Package location reconciles device geolocation with manual map picks
// into one selected coordinate. Either source overwrites the previous
// value; the map shows at most one marker at any time.
package location

import (
	"context"
	"fmt"
	"time"
)

type Coordinate struct {
	Lat float64
	Lon float64
}

// Options mirror the one-shot position request: high accuracy, a bounded
// wait, and reuse of a recent fix.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   5 * time.Minute,
	}
}

type PositionErrorCode int

const (
	PermissionDenied PositionErrorCode = iota + 1
	PositionUnavailable
	PositionTimeout
)

// PositionError is a classified geolocation failure. It is surfaced as a
// message and is never fatal.
type PositionError struct {
	Code   PositionErrorCode
	Reason string
}

func (e *PositionError) Error() string {
	switch e.Code {
	case PermissionDenied:
		return "location permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case PositionTimeout:
		return "location request timed out"
	}
	return fmt.Sprintf("position error (%d)", e.Code)
}

// Geolocator produces the device's current position.
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts Options) (Coordinate, error)
}

// Marker is a placed map marker.
type Marker interface {
	Remove()
}

// MapView is the interactive map widget boundary: it places markers and
// delivers click events.
type MapView interface {
	PlaceMarker(c Coordinate) Marker
	OnClick(handler func(c Coordinate))
}

// Selector owns the chosen coordinate. Last write wins between the two
// sources. It trusts the map widget and the device; no range validation.
type Selector struct {
	geo    Geolocator
	view   MapView
	coord  *Coordinate
	marker Marker
}

func NewSelector(geo Geolocator, view MapView) *Selector {
	return &Selector{geo: geo, view: view}
}

// Activate wires map clicks into the selector. Idempotent in effect:
// every click routes through the same Select path.
func (s *Selector) Activate() {
	if s.view != nil {
		s.view.OnClick(func(c Coordinate) {
			s.Select(c)
		})
	}
}

// UseCurrentPosition resolves the device position once and selects it.
// A classified failure is returned for the caller to surface.
func (s *Selector) UseCurrentPosition(ctx context.Context) (Coordinate, error) {
	if s.geo == nil {
		return Coordinate{}, &PositionError{Code: PositionUnavailable, Reason: "no geolocator"}
	}
	c, err := s.geo.CurrentPosition(ctx, DefaultOptions())
	if err != nil {
		return Coordinate{}, err
	}
	s.Select(c)
	return c, nil
}

// Select records a coordinate and repositions the single marker.
func (s *Selector) Select(c Coordinate) {
	if s.marker != nil {
		s.marker.Remove()
		s.marker = nil
	}
	if s.view != nil {
		s.marker = s.view.PlaceMarker(c)
	}
	coord := c
	s.coord = &coord
}

// Selected returns the chosen coordinate, or nil when none is set.
func (s *Selector) Selected() *Coordinate {
	return s.coord
}

// Clear drops the coordinate and removes the marker. Called on successful
// submission and on navigation away.
func (s *Selector) Clear() {
	if s.marker != nil {
		s.marker.Remove()
		s.marker = nil
	}
	s.coord = nil
}
