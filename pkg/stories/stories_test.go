package stories

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storywalk/storywalk/pkg/api"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/session"
)

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func authedSession(t *testing.T) *session.Store {
	t.Helper()
	s := session.Open(newMemKV())
	if err := s.SetAuth("T", session.User{Name: "Ana", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func validPhoto(size int) *capture.Photo {
	return &capture.Photo{Name: "p.jpg", Data: make([]byte, size)}
}

func TestValidateDraftBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		draft Draft
		want  error
	}{
		{"nine chars rejected", Draft{Description: "123456789", Photo: validPhoto(10)}, ErrDescriptionTooShort},
		{"ten chars accepted", Draft{Description: "1234567890", Photo: validPhoto(10)}, nil},
		{"missing photo", Draft{Description: "a description"}, ErrPhotoMissing},
		{"exactly 1 MiB accepted", Draft{Description: "a description", Photo: validPhoto(MaxPhotoBytes)}, nil},
		{"over 1 MiB rejected", Draft{Description: "a description", Photo: validPhoto(MaxPhotoBytes + 1)}, ErrPhotoTooLarge},
	}

	for _, tc := range cases {
		if got := ValidateDraft(tc.draft); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRefreshUnauthenticatedSkipsNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	sess := session.Open(newMemKV())
	syncer := &Syncer{API: api.NewClient(srv.URL), Session: sess}
	syncer.Refresh()

	if requests != 0 {
		t.Fatalf("unauthenticated refresh issued %d requests", requests)
	}
	if len(sess.Stories()) != 0 {
		t.Fatal("expected an empty collection")
	}
}

func TestRefreshReplacesCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer T" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte(`{"error":false,"message":"ok","listStory":[
			{"id":"s1","name":"Ana","description":"hi","lat":-6.2,"lon":106.8},
			{"id":"s2","name":"Bo","description":"yo"}
		]}`))
	}))
	defer srv.Close()

	sess := authedSession(t)
	rendered := 0
	syncer := &Syncer{
		API:      api.NewClient(srv.URL),
		Session:  sess,
		Relevant: func() bool { return true },
		OnUpdate: func() { rendered++ },
	}
	syncer.Refresh()

	if len(sess.Stories()) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(sess.Stories()))
	}
	if got := sess.StoriesWithCoordinate(); len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("unexpected coordinate projection: %+v", got)
	}
	if rendered != 1 {
		t.Fatalf("expected one re-render, got %d", rendered)
	}
}

func TestRefreshFailureEmptiesCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":true,"message":"token expired"}`))
	}))
	defer srv.Close()

	sess := authedSession(t)
	sess.SetStories([]api.Story{{ID: "stale"}})

	var notice string
	syncer := &Syncer{
		API:     api.NewClient(srv.URL),
		Session: sess,
		Notify:  func(level, text string) { notice = text },
	}
	syncer.Refresh()

	if len(sess.Stories()) != 0 {
		t.Fatal("stale stories must not survive a failed refresh")
	}
	if notice == "" {
		t.Fatal("expected a user-visible message")
	}
}

func TestRefreshSkipsRenderWhenIrrelevant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":false,"listStory":[{"id":"s1","name":"Ana","description":"hi"}]}`))
	}))
	defer srv.Close()

	sess := authedSession(t)
	rendered := 0
	syncer := &Syncer{
		API:      api.NewClient(srv.URL),
		Session:  sess,
		Relevant: func() bool { return false },
		OnUpdate: func() { rendered++ },
	}
	syncer.Refresh()

	if rendered != 0 {
		t.Fatal("a completion for an inactive view must not re-render")
	}
}

func TestSubmitUploadsMultipart(t *testing.T) {
	var gotDescription, gotLat, gotLon, gotPhotoName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(2 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		gotDescription = r.FormValue("description")
		gotLat = r.FormValue("lat")
		gotLon = r.FormValue("lon")
		if _, header, err := r.FormFile("photo"); err == nil {
			gotPhotoName = header.Filename
		}
		w.Write([]byte(`{"error":false,"message":"created"}`))
	}))
	defer srv.Close()

	sess := authedSession(t)
	err := Submit(api.NewClient(srv.URL), sess, Draft{
		Description: "a walk in the park",
		Photo:       validPhoto(64),
		Location:    &location.Coordinate{Lat: -6.2, Lon: 106.8},
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotDescription != "a walk in the park" {
		t.Fatalf("description not transmitted: %q", gotDescription)
	}
	if gotPhotoName != "p.jpg" {
		t.Fatalf("photo not transmitted: %q", gotPhotoName)
	}
	if gotLat != "-6.2" || gotLon != "106.8" {
		t.Fatalf("coordinate not transmitted: %q %q", gotLat, gotLon)
	}
}

func TestSubmitRejectsInvalidDraftWithoutNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	sess := authedSession(t)
	err := Submit(api.NewClient(srv.URL), sess, Draft{Description: "short", Photo: validPhoto(8)})
	if err != ErrDescriptionTooShort {
		t.Fatalf("expected ErrDescriptionTooShort, got %v", err)
	}
	if requests != 0 {
		t.Fatal("validation failures must block before any network call")
	}
}
