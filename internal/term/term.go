// Package term implements the browser-shaped capability boundaries for a
// terminal session: render target, address fragment, map widget,
// geolocator and capture device.
package term

import (
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/viper"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/nav"
	"github.com/storywalk/storywalk/pkg/session"
)

// Renderer writes the active view to the terminal.
type Renderer struct {
	Out io.Writer
}

func (r *Renderer) Render(v nav.View) {
	fmt.Fprintf(r.Out, "\n== %s ==\n", v.Route)
	for _, notice := range v.Notices {
		fmt.Fprintf(r.Out, "[%s] %s\n", notice.Level, notice.Text)
	}

	switch v.Route {
	case nav.RouteHome:
		if v.LoggedIn {
			fmt.Fprintf(r.Out, "Logged in as %s\n", v.UserName)
		} else {
			fmt.Fprintln(r.Out, "Not logged in. Type: login")
		}
		if len(v.Stories) == 0 {
			fmt.Fprintln(r.Out, "No stories to show.")
			return
		}
		w := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tLOCATION\tCREATED")
		for _, s := range v.Stories {
			loc := "-"
			if s.HasLocation {
				loc = fmt.Sprintf("%.4f,%.4f", s.Lat, s.Lon)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, truncate(s.Description, 48), loc, s.CreatedAt)
		}
		w.Flush()
	case nav.RouteAddStory:
		fmt.Fprintf(r.Out, "Photo: %s\n", v.CaptureState)
		if v.PreviewRef != "" {
			fmt.Fprintf(r.Out, "Preview: %s\n", v.PreviewRef)
		}
		if v.Selected != nil {
			fmt.Fprintf(r.Out, "Location: %.6f, %.6f\n", v.Selected.Lat, v.Selected.Lon)
		} else {
			fmt.Fprintln(r.Out, "Location: none (locate, or pick <lat> <lon>)")
		}
		fmt.Fprintln(r.Out, "Commands: camera, capture, stop, file <path>, locate, pick <lat> <lon>, submit <description>")
	case nav.RouteLogin:
		fmt.Fprintln(r.Out, "Commands: login <email> <password>, register <name> <email> <password>")
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// Location keeps the address fragment, persisting it so a restarted
// session resumes on the same route. The stored value is read once at
// construction and only written afterward.
type Location struct {
	kv       session.KV
	fragment string
}

const routeKey = "route"

func NewLocation(kv session.KV) *Location {
	l := &Location{kv: kv}
	if fragment, ok, err := kv.Get(routeKey); err == nil && ok {
		l.fragment = fragment
	}
	return l
}

func (l *Location) Fragment() string {
	return l.fragment
}

func (l *Location) SetFragment(fragment string) {
	l.fragment = fragment
	if err := l.kv.Set(routeKey, fragment); err != nil {
		utils.Log.Debugf("persisting route: %v", err)
	}
}

// TextMap is the terminal stand-in for the interactive map widget. Click
// is the event source the selector subscribes to.
type TextMap struct {
	Out     io.Writer
	handler func(location.Coordinate)
}

type textMarker struct {
	m *TextMap
	c location.Coordinate
}

func (t textMarker) Remove() {
	if t.m.Out != nil {
		fmt.Fprintf(t.m.Out, "(marker removed at %.4f,%.4f)\n", t.c.Lat, t.c.Lon)
	}
}

func (m *TextMap) PlaceMarker(c location.Coordinate) location.Marker {
	if m.Out != nil {
		fmt.Fprintf(m.Out, "(marker placed at %.4f,%.4f)\n", c.Lat, c.Lon)
	}
	return textMarker{m: m, c: c}
}

func (m *TextMap) OnClick(handler func(location.Coordinate)) {
	m.handler = handler
}

func (m *TextMap) Click(c location.Coordinate) {
	if m.handler != nil {
		m.handler(c)
	}
}

// ConfigGeolocator resolves the "device" position from configuration.
// Without configured coordinates it reports a classified unavailability,
// exercising the manual-pick fallback.
type ConfigGeolocator struct{}

func (ConfigGeolocator) CurrentPosition(_ context.Context, _ location.Options) (location.Coordinate, error) {
	if !viper.IsSet("location.lat") || !viper.IsSet("location.lon") {
		return location.Coordinate{}, &location.PositionError{
			Code:   location.PositionUnavailable,
			Reason: "no location configured",
		}
	}
	return location.Coordinate{
		Lat: viper.GetFloat64("location.lat"),
		Lon: viper.GetFloat64("location.lon"),
	}, nil
}

// NoCamera is the capture device of a terminal without one: opening
// always fails so the controller takes the file-selection fallback.
type NoCamera struct{}

func (NoCamera) Open(context.Context, capture.Constraints) (capture.Stream, error) {
	return nil, capture.ErrNoDevice
}

// StillCamera serves a fixed frame, useful where a single test image
// stands in for a live feed.
type StillCamera struct {
	Frame image.Image
}

type stillStream struct {
	frame image.Image
	track *stillTrack
}

type stillTrack struct {
	stopped bool
}

func (t *stillTrack) Stop() { t.stopped = true }

func (s *stillStream) Tracks() []capture.Track { return []capture.Track{s.track} }

func (s *stillStream) Frame() (image.Image, error) {
	if s.track.stopped {
		return nil, fmt.Errorf("stream stopped")
	}
	return s.frame, nil
}

func (c StillCamera) Open(context.Context, capture.Constraints) (capture.Stream, error) {
	if c.Frame == nil {
		return nil, capture.ErrNoDevice
	}
	return &stillStream{frame: c.Frame, track: &stillTrack{}}, nil
}

// Confirm builds the blocking yes/no prompt used before logout. Lines
// come from the caller's input source, so the prompt composes with an
// event loop that owns stdin. A closed source declines.
func Confirm(next func() (string, bool), out io.Writer) func(string) bool {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, ok := next()
		if !ok {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
