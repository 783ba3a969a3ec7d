package rag_test

import (
	"os"
	"path/filepath"

	"github.com/mudler/localnotes/catalog"
	. "github.com/mudler/localnotes/rag"
	"github.com/mudler/localnotes/rag/engine"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const dockerNotes = `# Images

- ` + "`docker build -t <name> .`" + ` - build an image from the current directory
- ` + "`docker images`" + ` - list local images

# Containers

- ` + "`docker run -d -p 8080:80 <name>`" + ` - run a container in the background
- ` + "`docker ps`" + ` - list running containers
`

const searchNotes = `# Vector Search

- ` + "`qdrant`" + ` - persistent vector search engine
- embeddings - dense representations used for similarity search
`

var _ = Describe("Notebook", func() {
	var (
		tempDir   string
		stateFile string
		assetDir  string
		nb        *Notebook
	)

	writeNote := func(name, content string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	newNotebook := func() *Notebook {
		fullText, err := engine.NewFullTextEngine(filepath.Join(tempDir, "fulltext.json"))
		Expect(err).ToNot(HaveOccurred())

		notebook, err := NewNotebook("notes", stateFile, assetDir, fullText, 1000)
		Expect(err).ToNot(HaveOccurred())
		return notebook
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "notebook_test_*")
		Expect(err).ToNot(HaveOccurred())

		stateFile = filepath.Join(tempDir, "notebook-notes.json")
		assetDir = filepath.Join(tempDir, "assets")

		nb = newNotebook()
	})

	AfterEach(func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	})

	Describe("NewNotebook", func() {
		It("should create the state file", func() {
			Expect(stateFile).To(BeAnExistingFile())
		})

		It("should start empty", func() {
			Expect(nb.Topics()).To(BeEmpty())
			Expect(nb.ListEntries()).To(BeEmpty())
			Expect(nb.Count()).To(Equal(0))
		})
	})

	Describe("Store", func() {
		It("should merge topics into the catalog in source order", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())
			Expect(nb.Topics()).To(Equal([]string{"Images", "Containers"}))

			Expect(nb.Store(writeNote("search.md", searchNotes), nil)).To(Succeed())
			Expect(nb.Topics()).To(Equal([]string{"Images", "Containers", "Vector Search"}))
		})

		It("should index every entry", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())
			Expect(nb.Count()).To(Equal(4))
		})

		It("should fail on malformed notes", func() {
			err := nb.Store(writeNote("broken.md", "- entry before any heading\n"), nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("entry outside any topic"))
		})

		It("should index non-markdown files as chunks", func() {
			Expect(nb.Store(writeNote("prose.txt", "Retrieval augmented generation combines search with language models."), nil)).To(Succeed())
			Expect(nb.Topics()).To(BeEmpty())
			Expect(nb.Count()).To(Equal(1))
		})
	})

	Describe("Entries", func() {
		BeforeEach(func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())
		})

		It("should return entries in source order", func() {
			entries, err := nb.Entries("Containers")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[1].Label).To(Equal("docker ps"))
		})

		It("should return NotFoundError for unknown topics", func() {
			_, err := nb.Entries("Networking")
			Expect(err).To(HaveOccurred())
			Expect(catalog.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("Find", func() {
		It("should return catalog substring matches", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			matches := nb.Find("docker")
			Expect(matches).To(HaveLen(4))
			Expect(matches[0].Topic).To(Equal("Images"))
		})
	})

	Describe("Search", func() {
		It("should return ranked engine results with topic metadata", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			results, err := nb.Search("docker ps", 5)
			Expect(err).ToNot(HaveOccurred())
			Expect(results).ToNot(BeEmpty())
			Expect(results[0].Metadata["label"]).To(Equal("docker ps"))
			Expect(results[0].Metadata["topic"]).To(Equal("Containers"))
		})
	})

	Describe("RemoveEntry", func() {
		It("should drop the file's topics and reindex the rest", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())
			Expect(nb.Store(writeNote("search.md", searchNotes), nil)).To(Succeed())

			Expect(nb.RemoveEntry("docker.md")).To(Succeed())
			Expect(nb.Topics()).To(Equal([]string{"Vector Search"}))
			Expect(nb.ListEntries()).To(Equal([]string{"search.md"}))
			Expect(nb.Count()).To(Equal(2))
		})
	})

	Describe("StoreOrReplace", func() {
		It("should replace a previous version of the same file", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			updated := "# Images\n\n- `docker pull <name>` - download an image\n"
			Expect(nb.StoreOrReplace(writeNote("docker.md", updated), nil)).To(Succeed())

			Expect(nb.ListEntries()).To(Equal([]string{"docker.md"}))
			entries, err := nb.Entries("Images")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Label).To(Equal("docker pull <name>"))
		})
	})

	Describe("Reset", func() {
		It("should remove files, topics and indexed documents", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			Expect(nb.Reset()).To(Succeed())
			Expect(nb.Topics()).To(BeEmpty())
			Expect(nb.ListEntries()).To(BeEmpty())
			Expect(nb.Count()).To(Equal(0))
		})
	})

	Describe("persistence", func() {
		It("should rebuild the catalog when reopened", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			reopened := newNotebook()
			Expect(reopened.Topics()).To(Equal([]string{"Images", "Containers"}))
			Expect(reopened.ListEntries()).To(Equal([]string{"docker.md"}))
		})
	})

	Describe("Render", func() {
		It("should round-trip the merged catalog", func() {
			Expect(nb.Store(writeNote("docker.md", dockerNotes), nil)).To(Succeed())

			parsed, err := catalog.Parse(nb.Render())
			Expect(err).ToNot(HaveOccurred())
			Expect(parsed.ListTopics()).To(Equal(nb.Topics()))
		})
	})

	Describe("external sources", func() {
		It("should persist registered sources", func() {
			Expect(nb.AddExternalSource(ExternalSource{URL: "https://example.com/notes.md"})).To(Succeed())

			reopened := newNotebook()
			srcs := reopened.ExternalSources()
			Expect(srcs).To(HaveLen(1))
			Expect(srcs[0].URL).To(Equal("https://example.com/notes.md"))
		})

		It("should reject duplicate sources", func() {
			Expect(nb.AddExternalSource(ExternalSource{URL: "https://example.com/notes.md"})).To(Succeed())
			Expect(nb.AddExternalSource(ExternalSource{URL: "https://example.com/notes.md"})).ToNot(Succeed())
		})

		It("should remove sources", func() {
			Expect(nb.AddExternalSource(ExternalSource{URL: "https://example.com/notes.md"})).To(Succeed())
			Expect(nb.RemoveExternalSource("https://example.com/notes.md")).To(Succeed())
			Expect(nb.ExternalSources()).To(BeEmpty())
		})
	})
})
