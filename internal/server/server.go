// Package server exposes the cached application shell over a local HTTP
// listener. Every request is answered through the offline cache first;
// only misses touch the network, so the shell stays usable without a
// connection.
package server

import (
	"io"
	"net/http"
	"net/url"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/offline"
)

type Server struct {
	client *http.Client
	origin *url.URL
}

func New(store *offline.Store, origin *url.URL) *Server {
	return &Server{
		client: &http.Client{Transport: &offline.Transport{Store: store}},
		origin: origin,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleShell)

	utils.Log.Infof("serving shell from %s on %s", s.origin, addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	target := *s.origin
	target.Path = r.URL.Path
	target.RawQuery = r.URL.RawQuery

	res, err := s.client.Get(target.String())
	if err != nil {
		// Cache miss and no network: the asset was never part of the
		// installed shell.
		utils.Log.Debugf("shell fetch %s: %v", target.String(), err)
		http.Error(w, "offline and not cached", http.StatusServiceUnavailable)
		return
	}
	defer res.Body.Close()

	if ct := res.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(res.StatusCode)
	if _, err := io.Copy(w, res.Body); err != nil {
		utils.Log.Debugf("copying shell response: %v", err)
	}
}
