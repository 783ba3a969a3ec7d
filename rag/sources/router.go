package sources

import (
	"strings"

	"github.com/mudler/xlog"
)

// Config carries per-source options for the router.
type Config struct {
	// GitPrivateKey is a base64-encoded SSH key for private repositories.
	GitPrivateKey string
}

// SourceRouter fetches the content behind a URL, dispatching on its
// shape: git repositories and sitemaps get walked, anything else is
// fetched as a single web page.
func SourceRouter(url string, config *Config) (string, error) {
	if config == nil {
		config = &Config{}
	}

	xlog.Info("Downloading content from", "url", url)
	switch {
	case strings.HasSuffix(url, ".git"), strings.HasPrefix(url, "git@"):
		return GetGitRepositoryContent(url, config.GitPrivateKey)
	case strings.HasSuffix(url, "sitemap.xml"):
		content, err := GetWebSitemapContent(url)
		if err != nil {
			return "", err
		}
		xlog.Info("Downloaded all content from sitemap", "url", url, "length", len(content))
		return strings.Join(content, "\n"), nil
	}

	return GetWebPage(url)
}
