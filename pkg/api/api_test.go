package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if payload["email"] != "a@b.com" || payload["password"] != "password1" {
			t.Errorf("unexpected payload: %v", payload)
		}
		w.Write([]byte(`{"error":false,"message":"ok","loginResult":{"token":"T","userId":"u1","name":"Ana"}}`))
	}))
	defer srv.Close()

	auth, err := NewClient(srv.URL).Login("a@b.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if auth.Token != "T" || auth.UserID != "u1" || auth.Name != "Ana" {
		t.Fatalf("unexpected auth: %+v", auth)
	}
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"message":"user not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login("a@b.com", "nope")
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "user not found" {
		t.Fatalf("expected the API message, got %v", err)
	}
}

func TestNonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Register("Ana", "a@b.com", "password1")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("a non-2xx status must be an API error, got %v", err)
	}
}

func TestListStories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("location"); got != "1" {
			t.Errorf("location param %q, want 1", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page param %q, want 2", got)
		}
		if got := r.URL.Query().Get("size"); got != "5" {
			t.Errorf("size param %q, want 5", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer T" {
			t.Errorf("auth header %q", got)
		}
		w.Write([]byte(`{"error":false,"listStory":[
			{"id":"s1","name":"Ana","description":"geo","photoUrl":"https://x/p.jpg","createdAt":"2024-01-01","lat":-6.2,"lon":106.8},
			{"id":"s2","name":"Bo","description":"nogeo","lat":null,"lon":null}
		]}`))
	}))
	defer srv.Close()

	stories, err := NewClient(srv.URL).ListStories("T", 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(stories))
	}
	if !stories[0].HasLocation || stories[0].Lat != -6.2 {
		t.Fatalf("location not parsed: %+v", stories[0])
	}
	if stories[1].HasLocation {
		t.Fatal("null lat/lon must not count as a coordinate")
	}
}

func TestAddStoryOmitsLocationWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(2 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["lat"]; ok {
			t.Error("lat must be omitted when no location is set")
		}
		if r.FormValue("description") != "a day at the beach" {
			t.Errorf("description %q", r.FormValue("description"))
		}
		w.Write([]byte(`{"error":false,"message":"created"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).AddStory("T", Draft{
		Description: "a day at the beach",
		PhotoName:   "p.jpg",
		Photo:       []byte{0xFF, 0xD8},
	})
	if err != nil {
		t.Fatal(err)
	}
}
