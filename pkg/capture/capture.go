// Package capture owns the camera/photo-file state machine: camera
// acquisition, live preview, frame capture and file handoff. Exactly one
// photo source is authoritative at any time; picking a file while the
// camera streams stops the stream, and capturing a frame ends the live
// session as part of the same transition.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/google/uuid"

	"github.com/storywalk/storywalk/internal/utils"
)

// JPEG encode quality for captured frames.
const encodeQuality = 85

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCaptured
	StateFileSelected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCaptured:
		return "captured"
	case StateFileSelected:
		return "file-selected"
	}
	return "unknown"
}

// Track is a single device track of a live stream.
type Track interface {
	Stop()
}

// Stream is an open camera stream.
type Stream interface {
	Tracks() []Track
	Frame() (image.Image, error)
}

// Constraints select which camera to open.
type Constraints struct {
	FacingMode string
}

// Device acquires camera streams. Opening may fail with a permission
// denial; that is surfaced as an ordinary error, never a panic.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// ErrNoDevice is returned by devices that have no camera at all. Callers
// fall back to the file-selection path.
var ErrNoDevice = fmt.Errorf("no capture device available")

// Photo is an encoded image ready for upload.
type Photo struct {
	Name string
	Data []byte
}

// Preview is a reference to preview bytes that must be revoked when the
// photo stops being shown, mirroring object-URL lifetime rules.
type Preview struct {
	Ref     string
	revoked bool
}

func (p *Preview) Revoke() {
	p.revoked = true
}

func (p *Preview) Revoked() bool {
	return p.revoked
}

// Controller is the capture state machine. Not safe for concurrent use;
// all transitions happen on the event loop.
type Controller struct {
	device  Device
	state   State
	stream  Stream
	photo   *Photo
	preview *Preview
}

func NewController(device Device) *Controller {
	return &Controller{device: device, state: StateIdle}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) StreamActive() bool {
	return c.state == StateStreaming
}

// CurrentPhoto returns the authoritative encoded image, or nil when no
// photo has been captured or selected.
func (c *Controller) CurrentPhoto() *Photo {
	if c.state == StateCaptured || c.state == StateFileSelected {
		return c.photo
	}
	return nil
}

// CurrentPreview returns the live preview reference, if any.
func (c *Controller) CurrentPreview() *Preview {
	return c.preview
}

// StartCamera requests a rear-facing stream. Any previous photo or stream
// is discarded first; at most one stream is active at a time. On failure
// the controller stays idle and the error is returned for the caller to
// surface, typically with a file-picker fallback.
func (c *Controller) StartCamera(ctx context.Context) error {
	c.releaseStream()
	c.revokePreview()
	c.photo = nil
	c.state = StateIdle

	stream, err := c.device.Open(ctx, Constraints{FacingMode: "environment"})
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	c.stream = stream
	c.state = StateStreaming
	utils.Log.Debug("camera stream started")
	return nil
}

// Capture draws the current frame, encodes it as JPEG and stops the
// stream. Capturing always ends the live session.
func (c *Controller) Capture() (*Photo, error) {
	if c.state != StateStreaming || c.stream == nil {
		return nil, fmt.Errorf("capture: no active stream")
	}

	frame, err := c.stream.Frame()
	// The stream ends with this transition whether encoding worked or not.
	c.releaseStream()
	if err != nil {
		c.state = StateIdle
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: encodeQuality}); err != nil {
		c.state = StateIdle
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	name := "photo_" + uuid.NewString() + ".jpg"
	c.photo = &Photo{Name: name, Data: buf.Bytes()}
	c.preview = &Preview{Ref: "preview:" + name}
	c.state = StateCaptured
	utils.Log.Debugf("captured %s (%d bytes)", name, buf.Len())
	return c.photo, nil
}

// Stop cancels a live stream and releases every track. Outside of
// streaming it is a no-op, so calling it after a capture is harmless.
func (c *Controller) Stop() {
	if c.state != StateStreaming {
		return
	}
	c.releaseStream()
	c.state = StateIdle
}

// SelectFile hands an already-encoded image to the controller. File and
// camera are mutually exclusive: a live stream is stopped and any captured
// preview revoked.
func (c *Controller) SelectFile(name string, data []byte) {
	c.releaseStream()
	c.revokePreview()
	c.photo = &Photo{Name: name, Data: data}
	c.state = StateFileSelected
}

// Reset returns to idle, releasing the stream and revoking the preview.
// Called on successful submission and on navigation away.
func (c *Controller) Reset() {
	c.releaseStream()
	c.revokePreview()
	c.photo = nil
	c.state = StateIdle
}

func (c *Controller) releaseStream() {
	if c.stream == nil {
		return
	}
	for _, t := range c.stream.Tracks() {
		t.Stop()
	}
	c.stream = nil
}

func (c *Controller) revokePreview() {
	if c.preview != nil {
		c.preview.Revoke()
		c.preview = nil
	}
}
