package offline

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/storywalk/storywalk/internal/utils"
)

// DefaultManifest is the fixed asset list seeded at install time: the app
// shell plus the third-party map library it loads.
func DefaultManifest(shellBase string) []string {
	base := strings.TrimRight(shellBase, "/")
	return []string{
		base + "/",
		base + "/index.html",
		base + "/css/style.css",
		base + "/js/app.js",
		"https://unpkg.com/leaflet@1.9.4/dist/leaflet.css",
		"https://unpkg.com/leaflet@1.9.4/dist/leaflet.js",
	}
}

// ManifestFromHTML discovers the asset list from the shell page itself:
// scripts, stylesheets and images, resolved against the page URL. The
// page URL itself leads the list.
func ManifestFromHTML(r io.Reader, page *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{page.String(): true}
	manifest := []string{page.String()}

	collect := func(sel *goquery.Selection, attr string) {
		ref, ok := sel.Attr(attr)
		if !ok || ref == "" || strings.HasPrefix(ref, "data:") {
			return
		}
		resolved, err := page.Parse(ref)
		if err != nil {
			utils.Log.Debugf("skipping unparsable asset ref %q: %v", ref, err)
			return
		}
		abs := resolved.String()
		if !seen[abs] {
			seen[abs] = true
			manifest = append(manifest, abs)
		}
	}

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		collect(sel, "src")
	})
	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, sel *goquery.Selection) {
		collect(sel, "href")
	})
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		collect(sel, "src")
	})

	return manifest, nil
}

// IsThirdParty reports whether an asset lives outside the shell's
// registrable domain, e.g. map library files on a CDN.
func IsThirdParty(assetURL, shellURL string) bool {
	assetDomain := registrableDomain(assetURL)
	shellDomain := registrableDomain(shellURL)
	if assetDomain == "" || shellDomain == "" {
		return false
	}
	return assetDomain != shellDomain
}

func registrableDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	domain, err := publicsuffix.Domain(u.Hostname())
	if err != nil {
		return u.Hostname()
	}
	return domain
}
