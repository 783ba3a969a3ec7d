package engine_test

import (
	"os"
	"path/filepath"

	. "github.com/mudler/localnotes/rag/engine"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FullTextIndex", func() {
	var (
		tempDir string
		index   *FullTextIndex
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "fulltext_test_*")
		Expect(err).ToNot(HaveOccurred())

		index, err = NewFullTextIndex(filepath.Join(tempDir, "fulltext.json"))
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	})

	store := func() {
		Expect(index.Store("docker ps - list running containers", map[string]string{
			"topic": "Containers", "label": "docker ps", "description": "list running containers",
		})).To(Succeed())
		Expect(index.Store("docker images - list local images", map[string]string{
			"topic": "Images", "label": "docker images", "description": "list local images",
		})).To(Succeed())
		Expect(index.Store("free text mentioning docker somewhere", map[string]string{
			"source": "prose.txt", "type": "chunk",
		})).To(Succeed())
	}

	Describe("Search", func() {
		It("should return matching documents", func() {
			store()
			results := index.Search("docker", 10)
			Expect(results).To(HaveLen(3))
		})

		It("should rank label matches above content-only matches", func() {
			store()
			results := index.Search("docker", 10)
			Expect(results[0].Metadata).To(HaveKey("label"))
			Expect(results[len(results)-1].Content).To(Equal("free text mentioning docker somewhere"))
		})

		It("should cap results at maxResults", func() {
			store()
			Expect(index.Search("docker", 2)).To(HaveLen(2))
		})

		It("should return nothing for unrelated queries", func() {
			store()
			Expect(index.Search("kubernetes", 10)).To(BeEmpty())
		})

		It("should be case-insensitive", func() {
			store()
			Expect(index.Search("DOCKER PS", 10)).ToNot(BeEmpty())
		})
	})

	Describe("SearchWith", func() {
		It("should filter on keyword fields", func() {
			store()
			results := index.SearchWith("docker", SearchOptions{
				Filters: map[string]string{"topic": "Images"},
			})
			Expect(results).To(HaveLen(1))
			Expect(results[0].Metadata["label"]).To(Equal("docker images"))
		})

		It("should honor custom boosts", func() {
			store()
			// Push descriptions above labels and the two catalog entries
			// ahead of the plain chunk.
			results := index.SearchWith("list", SearchOptions{
				Boosts: map[string]float32{"description": 5.0},
			})
			Expect(results).To(HaveLen(2))
			Expect(results[0].FullTextScore).To(Equal(results[1].FullTextScore))
		})

		It("should normalize scores by the number of query terms", func() {
			store()
			one := index.Search("docker", 10)
			two := index.Search("docker nonexistentterm", 10)
			Expect(two[0].FullTextScore).To(BeNumerically("<", one[0].FullTextScore))
		})
	})

	Describe("persistence", func() {
		It("should survive a reopen", func() {
			store()

			reopened, err := NewFullTextIndex(filepath.Join(tempDir, "fulltext.json"))
			Expect(err).ToNot(HaveOccurred())
			Expect(reopened.Count()).To(Equal(3))
			Expect(reopened.Search("docker", 10)).To(HaveLen(3))
		})
	})

	Describe("Delete", func() {
		It("should remove a document by id", func() {
			store()
			Expect(index.Delete("docker ps - list running containers")).To(Succeed())
			Expect(index.Count()).To(Equal(2))
		})
	})

	Describe("Reset", func() {
		It("should clear the index", func() {
			store()
			Expect(index.Reset()).To(Succeed())
			Expect(index.Count()).To(Equal(0))
			Expect(index.Search("docker", 10)).To(BeEmpty())
		})
	})
})

var _ = Describe("FullTextEngine", func() {
	It("should satisfy the Engine search signature", func() {
		tempDir, err := os.MkdirTemp("", "fulltext_engine_test_*")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(tempDir)

		eng, err := NewFullTextEngine(filepath.Join(tempDir, "fulltext.json"))
		Expect(err).ToNot(HaveOccurred())

		Expect(eng.Store("docker ps", map[string]string{"label": "docker ps"})).To(Succeed())

		results, err := eng.Search("docker", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
	})
})
