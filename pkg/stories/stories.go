// Package stories coordinates fetching the story collection and
// submitting new stories through the API client.
package stories

import (
	"errors"
	"sync/atomic"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/api"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/session"
)

const (
	// Minimum story description length, in characters.
	MinDescriptionLen = 10
	// Maximum encoded photo size, in bytes.
	MaxPhotoBytes = 1 << 20
)

// Validation failures block submission synchronously; the form keeps its
// state so the user can correct it.
var (
	ErrDescriptionTooShort = errors.New("description must be at least 10 characters")
	ErrPhotoMissing        = errors.New("a photo is required")
	ErrPhotoTooLarge       = errors.New("photo must not exceed 1 MiB")
)

// Syncer refreshes the story collection. Calls are independent; when
// several overlap, only the freshest completed response is applied, and
// only while the home view is still the relevant one. There is no request
// cancellation.
type Syncer struct {
	API     *api.Client
	Session *session.Store
	Page    int
	Size    int

	// Relevant reports whether the home view is still active. A stale
	// completion for an inactive view is discarded, not queued.
	Relevant func() bool
	// OnUpdate triggers a re-render after the collection changed while
	// the view was relevant.
	OnUpdate func()
	// Notify surfaces a user-visible message.
	Notify func(level, text string)

	gen atomic.Uint64
}

func (s *Syncer) notify(level, text string) {
	if s.Notify != nil {
		s.Notify(level, text)
	}
}

func (s *Syncer) rerender() {
	if s.Relevant != nil && s.Relevant() && s.OnUpdate != nil {
		s.OnUpdate()
	}
}

// Refresh fetches the current page of stories and replaces the
// collection. Unauthenticated sessions get an empty collection and no
// network call; the API requires identity. On failure the collection is
// emptied too, so stale data is never shown next to an error.
func (s *Syncer) Refresh() {
	gen := s.gen.Add(1)

	if !s.Session.IsLoggedIn() {
		s.Session.SetStories(nil)
		s.rerender()
		return
	}

	page, size := s.Page, s.Size
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 20
	}

	list, err := s.API.ListStories(s.Session.Token(), page, size)
	if gen != s.gen.Load() {
		utils.Log.Debug("discarding stale story fetch")
		return
	}
	if err != nil {
		utils.Log.Debugf("story refresh failed: %v", err)
		s.notify("error", "Could not load stories: "+err.Error())
		s.Session.SetStories(nil)
		s.rerender()
		return
	}
	s.Session.SetStories(list)
	s.rerender()
}

// Draft is an in-progress story submission.
type Draft struct {
	Description string
	Photo       *capture.Photo
	Location    *location.Coordinate
}

// ValidateDraft enforces submission-time constraints. The photo size cap
// is checked here, not at capture time.
func ValidateDraft(d Draft) error {
	if len(d.Description) < MinDescriptionLen {
		return ErrDescriptionTooShort
	}
	if d.Photo == nil || len(d.Photo.Data) == 0 {
		return ErrPhotoMissing
	}
	if len(d.Photo.Data) > MaxPhotoBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

// Submit validates the draft and uploads it with the session token.
func Submit(client *api.Client, sess *session.Store, d Draft) error {
	if err := ValidateDraft(d); err != nil {
		return err
	}
	wire := api.Draft{
		Description: d.Description,
		PhotoName:   d.Photo.Name,
		Photo:       d.Photo.Data,
	}
	if d.Location != nil {
		lat, lon := d.Location.Lat, d.Location.Lon
		wire.Lat, wire.Lon = &lat, &lon
	}
	return client.AddStory(sess.Token(), wire)
}
