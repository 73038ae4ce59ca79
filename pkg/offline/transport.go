package offline

import (
	"bytes"
	"io"
	"net/http"

	"github.com/storywalk/storywalk/internal/utils"
)

// Transport intercepts outbound requests: cache hits are served from disk
// without touching the network, misses are forwarded to the wrapped
// transport. Miss responses are not re-cached; population happens only at
// install time.
type Transport struct {
	Store *Store
	Next  http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet {
		cached, ok, err := t.Store.Lookup(req.URL.String())
		if err != nil {
			utils.Log.Warnf("cache lookup %s: %v", req.URL, err)
		} else if ok {
			utils.Log.Debugf("cache hit %s", req.URL)
			return cachedHTTPResponse(req, cached), nil
		}
	}

	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}

func cachedHTTPResponse(req *http.Request, cached *CachedResponse) *http.Response {
	header := make(http.Header)
	if cached.ContentType != "" {
		header.Set("Content-Type", cached.ContentType)
	}
	return &http.Response{
		StatusCode:    cached.StatusCode,
		Status:        http.StatusText(cached.StatusCode),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}
