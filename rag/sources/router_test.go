package sources_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/mudler/localnotes/rag/sources"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SourceRouter", func() {
	It("should route git repository URLs to the git source", func() {
		// The clone against a closed port fails, which is enough to see
		// the git path was taken.
		_, err := SourceRouter("http://127.0.0.1:1/repo.git", nil)
		Expect(err).To(HaveOccurred())
	})

	It("should route sitemap URLs to the sitemap walker", func() {
		_, err := SourceRouter("http://127.0.0.1:1/sitemap.xml", nil)
		Expect(err).To(HaveOccurred())
	})

	It("should reject URLs without a scheme", func() {
		_, err := SourceRouter("not-a-valid-url", nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Web Sources", func() {
	Describe("GetWebPage", func() {
		It("should handle invalid URLs", func() {
			_, err := GetWebPage("not-a-valid-url")
			Expect(err).To(HaveOccurred())
		})

		It("should handle unreachable hosts", func() {
			_, err := GetWebPage("http://127.0.0.1:1/nonexistent")
			Expect(err).To(HaveOccurred())
		})

		It("should convert a page to plain text", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<html><body><h1>Docker notes</h1><p>docker ps lists containers</p></body></html>")
			}))
			defer server.Close()

			content, err := GetWebPage(server.URL)
			Expect(err).ToNot(HaveOccurred())
			Expect(content).To(ContainSubstring("docker ps lists containers"))
		})

		It("should reject error responses instead of indexing them", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "<html>custom 404 page</html>", http.StatusNotFound)
			}))
			defer server.Close()

			_, err := GetWebPage(server.URL)
			Expect(err).To(MatchError(ContainSubstring("404")))
		})
	})

	Describe("GetWebSitemapContent", func() {
		It("should handle invalid sitemap URLs", func() {
			_, err := GetWebSitemapContent("not-a-valid-url")
			Expect(err).To(HaveOccurred())
		})
	})
})
