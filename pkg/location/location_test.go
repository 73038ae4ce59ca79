package location

import (
	"context"
	"testing"
)

type fakeGeo struct {
	coord Coordinate
	err   error
	calls int
	opts  Options
}

func (g *fakeGeo) CurrentPosition(_ context.Context, opts Options) (Coordinate, error) {
	g.calls++
	g.opts = opts
	if g.err != nil {
		return Coordinate{}, g.err
	}
	return g.coord, nil
}

type fakeMarker struct {
	removed bool
}

func (m *fakeMarker) Remove() { m.removed = true }

type fakeMap struct {
	markers []*fakeMarker
	handler func(Coordinate)
}

func (m *fakeMap) PlaceMarker(Coordinate) Marker {
	marker := &fakeMarker{}
	m.markers = append(m.markers, marker)
	return marker
}

func (m *fakeMap) OnClick(handler func(Coordinate)) {
	m.handler = handler
}

func (m *fakeMap) live() int {
	n := 0
	for _, marker := range m.markers {
		if !marker.removed {
			n++
		}
	}
	return n
}

func TestLastWriteWins(t *testing.T) {
	geo := &fakeGeo{coord: Coordinate{Lat: -6.2, Lon: 106.8}}
	view := &fakeMap{}
	s := NewSelector(geo, view)
	s.Activate()

	if _, err := s.UseCurrentPosition(context.Background()); err != nil {
		t.Fatal(err)
	}
	// A map click after a geolocation fix overwrites it.
	view.handler(Coordinate{Lat: 1.5, Lon: 2.5})

	got := s.Selected()
	if got == nil || got.Lat != 1.5 || got.Lon != 2.5 {
		t.Fatalf("expected the click's coordinate, got %+v", got)
	}
}

func TestSingleMarker(t *testing.T) {
	view := &fakeMap{}
	s := NewSelector(nil, view)
	s.Activate()

	view.handler(Coordinate{Lat: 1, Lon: 1})
	view.handler(Coordinate{Lat: 2, Lon: 2})
	view.handler(Coordinate{Lat: 3, Lon: 3})

	if view.live() != 1 {
		t.Fatalf("expected exactly one live marker, got %d", view.live())
	}
}

func TestGeolocationOptions(t *testing.T) {
	geo := &fakeGeo{coord: Coordinate{Lat: 1, Lon: 1}}
	s := NewSelector(geo, &fakeMap{})

	if _, err := s.UseCurrentPosition(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !geo.opts.HighAccuracy {
		t.Fatal("expected a high-accuracy request")
	}
	if geo.opts.Timeout.Seconds() != 10 {
		t.Fatalf("expected a 10s timeout, got %s", geo.opts.Timeout)
	}
	if geo.opts.MaximumAge.Minutes() != 5 {
		t.Fatalf("expected a 5m maximum age, got %s", geo.opts.MaximumAge)
	}
}

func TestClassifiedFailureKeepsSelection(t *testing.T) {
	geo := &fakeGeo{err: &PositionError{Code: PermissionDenied}}
	view := &fakeMap{}
	s := NewSelector(geo, view)
	s.Activate()

	view.handler(Coordinate{Lat: 9, Lon: 9})

	if _, err := s.UseCurrentPosition(context.Background()); err == nil {
		t.Fatal("expected a classified error")
	} else if perr, ok := err.(*PositionError); !ok || perr.Code != PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}

	got := s.Selected()
	if got == nil || got.Lat != 9 {
		t.Fatal("a failed fix must not clobber the manual pick")
	}
}

func TestClear(t *testing.T) {
	view := &fakeMap{}
	s := NewSelector(nil, view)
	s.Select(Coordinate{Lat: 1, Lon: 2})

	s.Clear()
	if s.Selected() != nil {
		t.Fatal("expected no selection after Clear")
	}
	if view.live() != 0 {
		t.Fatalf("expected no live markers after Clear, got %d", view.live())
	}
}
