package whttp

import (
	"crypto/tls"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"

	"github.com/storywalk/storywalk/internal/utils"
)

type Header struct {
	Name  string
	Value string
}

type Request struct {
	URL         string
	Method      string
	ContentType string
	Body        io.Reader
	Headers     []Header
}

type Response struct {
	StatusCode  int
	HTMLTitle   string
	ContentType string
	BodyString  string
}

var defaultClient *retryablehttp.Client

// GetDefaultClient returns the process-wide retrying client, creating it on
// first use. Retry logging goes nowhere; our own logging happens at call sites.
func GetDefaultClient() *retryablehttp.Client {
	if defaultClient == nil {
		defaultClient = retryablehttp.NewClient()
		defaultClient.Logger = stdlog.New(io.Discard, "", 0)
		defaultClient.RetryMax = 3
	}
	return defaultClient
}

func SetupProxy(proxy string) {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		utils.Log.Fatal("Invalid proxy string")
	}
	GetDefaultClient().HTTPClient.Transport = &http.Transport{
		Proxy:           http.ProxyURL(proxyURL),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
}

func SendHTTPRequest(wReq *Request, client *retryablehttp.Client) (wRes *Response, err error) {
	if client == nil {
		client = GetDefaultClient()
	}

	req, err := retryablehttp.NewRequest(wReq.Method, wReq.URL, wReq.Body)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0")
	req.Header.Set("Accept-Language", "en")
	if wReq.ContentType != "" {
		req.Header.Set("Content-Type", wReq.ContentType)
	}

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()

	wRes = &Response{
		StatusCode:  resp.StatusCode,
		BodyString:  string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if title, ok := getHTMLTitle(wRes.BodyString); ok {
		wRes.HTMLTitle = strings.ToValidUTF8(strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")), "")
	}

	return wRes, nil
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func getHTMLTitle(requestBody string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(requestBody))
	if err != nil {
		return "", false
	}

	return traverse(doc)
}
