package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/storywalk/storywalk/pkg/offline"
)

func TestShellServedFromCacheOffline(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><title>storywalk</title></html>"))
	}))

	store := offline.Open(t.TempDir(), "shell-v1")
	if err := store.Install([]string{origin.URL + "/index.html"}, nil); err != nil {
		t.Fatal(err)
	}

	originURL, _ := url.Parse(origin.URL)
	s := New(store, originURL)

	origin.Close() // the shell must survive the origin going away

	front := httptest.NewServer(http.HandlerFunc(s.handleShell))
	defer front.Close()

	res, err := http.Get(front.URL + "/index.html")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "storywalk") {
		t.Fatalf("cached shell not served: %q", body)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/html" {
		t.Fatalf("content type not preserved: %q", ct)
	}

	// Never-cached paths cannot be served offline.
	res2, err := http.Get(front.URL + "/not-cached.js")
	if err != nil {
		t.Fatal(err)
	}
	res2.Body.Close()
	if res2.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for an uncached path offline, got %d", res2.StatusCode)
	}
}
