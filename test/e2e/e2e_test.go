package e2e_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/mudler/localnotes/pkg/client"
)

const (
	testNotebook = "e2e"

	dockerNotes = `# Containers

- ` + "`docker ps`" + ` - list running containers
- ` + "`docker stop`" + ` - stop a running container

# Images

- ` + "`docker images`" + ` - list local images
- ` + "`docker rmi`" + ` - remove an image
`
)

var _ = Describe("API", func() {
	var localnotes *client.Client

	BeforeEach(func() {
		if os.Getenv("LOCALNOTES_E2E") != "true" {
			Skip("Skipping E2E tests, set LOCALNOTES_E2E=true to run them")
		}

		localnotes = client.NewClient(localnotesEndpoint)

		Eventually(func() error {
			_, err := localnotes.ListNotebooks()
			return err
		}, time.Minute, time.Second).Should(Succeed())

		localnotes.Reset(testNotebook)
	})

	It("creates notebooks", func() {
		ensureNotebook(localnotes)

		notebooks, err := localnotes.ListNotebooks()
		Expect(err).ToNot(HaveOccurred())
		Expect(notebooks).To(ContainElement(testNotebook))
	})

	It("serves topics and entries from an uploaded note file", func() {
		ensureNotebook(localnotes)
		uploadNotes(dockerNotes, localnotes)

		topics, err := localnotes.Topics(testNotebook)
		Expect(err).ToNot(HaveOccurred())
		Expect(topics).To(Equal([]string{"Containers", "Images"}))

		entries, err := localnotes.Entries(testNotebook, "Images")
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Label).To(Equal("docker images"))
		Expect(entries[0].Description).To(Equal("list local images"))

		_, err = localnotes.Entries(testNotebook, "Networking")
		Expect(err).To(MatchError(ContainSubstring("Networking")))
	})

	It("searches across topics", func() {
		ensureNotebook(localnotes)
		uploadNotes(dockerNotes, localnotes)

		resp, err := localnotes.Search(testNotebook, "list", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Matches).To(HaveLen(2))
		Expect(resp.Matches[0].Topic).To(Equal("Containers"))
		Expect(resp.Matches[1].Topic).To(Equal("Images"))
		Expect(len(resp.Results)).To(BeNumerically(">=", 1))
	})

	It("clears a notebook on reset", func() {
		ensureNotebook(localnotes)
		uploadNotes(dockerNotes, localnotes)

		Expect(localnotes.Reset(testNotebook)).To(Succeed())

		topics, err := localnotes.Topics(testNotebook)
		Expect(err).ToNot(HaveOccurred())
		Expect(topics).To(BeEmpty())

		files, err := localnotes.ListEntries(testNotebook)
		Expect(err).ToNot(HaveOccurred())
		Expect(files).To(BeEmpty())
	})
})

// ensureNotebook creates the test notebook, tolerating a leftover one
// from a previous run against the same server.
func ensureNotebook(localnotes *client.Client) {
	if err := localnotes.CreateNotebook(testNotebook); err != nil {
		ExpectWithOffset(1, err).To(MatchError(ContainSubstring("already exists")))
	}
}

func uploadNotes(content string, localnotes *client.Client) {
	dir, err := os.MkdirTemp("", "localnotes-e2e")
	ExpectWithOffset(1, err).ToNot(HaveOccurred())
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "notes.md")
	ExpectWithOffset(1, os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	ExpectWithOffset(1, localnotes.Store(testNotebook, path)).To(Succeed())
}
