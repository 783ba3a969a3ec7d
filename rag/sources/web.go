package sources

import (
	"fmt"
	"io"
	"net/http"

	"github.com/mudler/xlog"
	sitemap "github.com/oxffaa/gopher-parse-sitemap"
	"jaytaylor.com/html2text"
)

// GetWebPage fetches a page and converts it to plain text suitable for
// indexing as a note. Non-2xx responses are an error so a 404 or 500
// page never gets synthesized into a note file.
func GetWebPage(url string) (string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return html2text.FromString(string(body), html2text.Options{PrettyTables: true})
}

// GetWebSitemapContent walks a sitemap and converts every listed page.
// Pages that fail to fetch are skipped rather than failing the whole
// sync.
func GetWebSitemapContent(url string) (res []string, err error) {
	err = sitemap.ParseFromSite(url, func(e sitemap.Entry) error {
		xlog.Info("Fetching sitemap page", "url", e.GetLocation())
		content, err := GetWebPage(e.GetLocation())
		if err != nil {
			xlog.Warn("Skipping sitemap page", "url", e.GetLocation(), "error", err)
			return nil
		}
		res = append(res, content)
		return nil
	})
	return
}
