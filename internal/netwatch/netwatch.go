// Package netwatch tracks network reachability. Transitions are
// delivered as values on a channel, so the consumer handles them on its
// own goroutine; the watcher never calls back into app state.
package netwatch

import (
	"context"
	"net/http"
	"time"

	"github.com/storywalk/storywalk/internal/utils"
)

// Watcher polls a probe and reports offline→online and online→offline
// transitions. It assumes online until the first probe says otherwise.
type Watcher struct {
	Probe    func(ctx context.Context) bool
	Interval time.Duration
}

// ProbeURL builds a probe that issues a HEAD request against url.
func ProbeURL(client *http.Client, url string) func(ctx context.Context) bool {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		res, err := client.Do(req)
		if err != nil {
			return false
		}
		res.Body.Close()
		return true
	}
}

// Watch polls until the context is cancelled, sending true on
// offline→online and false on online→offline. Sends wait for the
// consumer rather than dropping, so a transition is never lost while
// the consumer is busy. The channel closes when polling stops.
func (w *Watcher) Watch(ctx context.Context) <-chan bool {
	interval := w.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}

	events := make(chan bool)
	go func() {
		defer close(events)
		online := true
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := w.Probe(ctx)
				if now == online {
					continue
				}
				online = now
				if online {
					utils.Log.Info("connection restored")
				} else {
					utils.Log.Warn("connection lost")
				}
				select {
				case events <- online:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}
