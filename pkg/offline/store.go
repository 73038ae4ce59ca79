// Package offline is the install-time asset cache: a read-through cache
// with explicit versioned invalidation. Assets are seeded all-or-nothing
// at install, old versions are deleted wholesale at activate, and fetches
// are answered cache-first with no write-back on miss.
package offline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/whttp"
)

// CacheName is the current version's cache. Bump the suffix to invalidate
// every previously installed asset on the next activate.
const CacheName = "storywalk-shell-v1"

// CachedResponse is one stored asset.
type CachedResponse struct {
	URL         string `json:"url"`
	StatusCode  int    `json:"statusCode"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"-"`
}

// Store is a named, versioned cache rooted in a directory that may hold
// several cache versions side by side until Activate prunes them.
type Store struct {
	root string
	name string
}

func Open(root, name string) *Store {
	if name == "" {
		name = CacheName
	}
	return &Store{root: root, name: name}
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) dir() string {
	return filepath.Join(s.root, s.name)
}

func assetKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Install opens the named cache and seeds it with every listed asset.
// Seeding is all-or-nothing: one failed asset fails the install and
// removes the partial cache. Re-running a successful install is allowed.
func (s *Store) Install(manifest []string, client *retryablehttp.Client) error {
	if len(manifest) == 0 {
		return fmt.Errorf("install: empty asset manifest")
	}
	if err := os.MkdirAll(s.dir(), 0o755); err != nil {
		return err
	}

	for _, assetURL := range manifest {
		if err := s.seed(assetURL, client); err != nil {
			if rmErr := os.RemoveAll(s.dir()); rmErr != nil {
				utils.Log.Warnf("removing partial cache: %v", rmErr)
			}
			return fmt.Errorf("install %s: %w", assetURL, err)
		}
	}
	utils.Log.Infof("cache %s installed with %d assets", s.name, len(manifest))
	return nil
}

func (s *Store) seed(assetURL string, client *retryablehttp.Client) error {
	res, err := whttp.SendHTTPRequest(&whttp.Request{Method: "GET", URL: assetURL}, client)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("status %d", res.StatusCode)
	}

	key := assetKey(assetURL)
	meta := CachedResponse{
		URL:         assetURL,
		StatusCode:  res.StatusCode,
		ContentType: res.ContentType,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir(), key+".meta"), raw, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir(), key), []byte(res.BodyString), 0o644)
}

// Activate enforces single-version retention: every cache under the root
// whose name is not the current one is deleted. Idempotent.
func (s *Store) Activate() error {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == s.name {
			continue
		}
		utils.Log.Infof("removing stale cache %s", entry.Name())
		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the cached copy of a URL, if the install seeded it.
func (s *Store) Lookup(url string) (*CachedResponse, bool, error) {
	key := assetKey(url)
	raw, err := os.ReadFile(filepath.Join(s.dir(), key+".meta"))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var meta CachedResponse
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, false, err
	}
	body, err := os.ReadFile(filepath.Join(s.dir(), key))
	if err != nil {
		return nil, false, err
	}
	meta.Body = body
	return &meta, true, nil
}

// Assets lists the URLs currently cached.
func (s *Store) Assets() ([]string, error) {
	entries, err := os.ReadDir(s.dir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".meta" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir(), entry.Name()))
		if err != nil {
			return nil, err
		}
		var meta CachedResponse
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, err
		}
		urls = append(urls, meta.URL)
	}
	return urls, nil
}
