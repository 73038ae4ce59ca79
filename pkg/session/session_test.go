package session

import (
	"path/filepath"
	"testing"

	"github.com/storywalk/storywalk/pkg/api"
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

func TestAuthAllOrNothing(t *testing.T) {
	s := Open(newMemKV())
	if s.IsLoggedIn() {
		t.Fatal("fresh store should not be logged in")
	}

	if err := s.SetAuth("T", User{Name: "Ana", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if !s.IsLoggedIn() || s.Token() != "T" || s.UserName() != "Ana" {
		t.Fatalf("unexpected state after SetAuth: token=%q user=%q", s.Token(), s.UserName())
	}

	s.SetStories([]api.Story{{ID: "1", HasLocation: true, Lat: 1, Lon: 2}})
	if err := s.ClearAuth(); err != nil {
		t.Fatal(err)
	}
	if s.IsLoggedIn() {
		t.Fatal("logged in after ClearAuth")
	}
	if got := s.StoriesWithCoordinate(); len(got) != 0 {
		t.Fatalf("expected no stories after ClearAuth, got %d", len(got))
	}
}

func TestSetAuthRejectsEmptyToken(t *testing.T) {
	kv := newMemKV()
	s := Open(kv)

	if err := s.SetAuth("", User{Name: "Ana", UserID: "u1"}); err == nil {
		t.Fatal("an empty token must not be accepted")
	}
	if s.IsLoggedIn() || s.UserName() != "" {
		t.Fatal("store must stay unauthenticated")
	}
	if _, ok, _ := kv.Get("token"); ok {
		t.Fatal("token key must not be written")
	}
	if _, ok, _ := kv.Get("user"); ok {
		t.Fatal("user key must not be written")
	}
}

func TestHalfPersistedIdentityNotRestored(t *testing.T) {
	kv := newMemKV()
	kv.data["token"] = "T" // user key missing

	s := Open(kv)
	if s.IsLoggedIn() {
		t.Fatal("half-persisted identity must not restore a session")
	}
}

func TestStoriesWithCoordinateDoesNotMutate(t *testing.T) {
	s := Open(newMemKV())
	s.SetStories([]api.Story{
		{ID: "1", HasLocation: true},
		{ID: "2"},
		{ID: "3", HasLocation: true},
	})

	got := s.StoriesWithCoordinate()
	if len(got) != 2 {
		t.Fatalf("expected 2 stories with coordinate, got %d", len(got))
	}
	if len(s.Stories()) != 3 {
		t.Fatalf("projection mutated the collection: %d left", len(s.Stories()))
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.sqlite")

	kv, err := OpenKV(path)
	if err != nil {
		t.Fatal(err)
	}
	s := Open(kv)
	if err := s.SetAuth("T", User{Name: "Ana", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	kv2, err := OpenKV(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv2.Close()

	restored := Open(kv2)
	if !restored.IsLoggedIn() || restored.Token() != "T" || restored.UserName() != "Ana" {
		t.Fatalf("session not restored: token=%q user=%q", restored.Token(), restored.UserName())
	}

	if err := restored.ClearAuth(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := kv2.Get("token"); ok {
		t.Fatal("token still persisted after ClearAuth")
	}
}
