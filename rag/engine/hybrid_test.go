package engine_test

import (
	"os"

	. "github.com/mudler/localnotes/rag/engine"
	"github.com/mudler/localnotes/rag/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// memoryEngine is a trivial in-memory semantic engine standing in for
// chromem so the hybrid path can be tested without an embeddings
// endpoint.
type memoryEngine struct {
	docs []types.Result
}

func (m *memoryEngine) Store(s string, meta map[string]string) error {
	m.docs = append(m.docs, types.Result{Content: s, Metadata: meta, Similarity: 0.9})
	return nil
}

func (m *memoryEngine) Reset() error {
	m.docs = nil
	return nil
}

func (m *memoryEngine) Search(s string, similarEntries int) ([]types.Result, error) {
	results := append([]types.Result{}, m.docs...)
	if len(results) > similarEntries {
		results = results[:similarEntries]
	}
	return results, nil
}

func (m *memoryEngine) Count() int {
	return len(m.docs)
}

var _ = Describe("HybridSearchEngine", func() {
	var (
		tempDir  string
		semantic *memoryEngine
		hybrid   *HybridSearchEngine
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "hybrid_test_*")
		Expect(err).ToNot(HaveOccurred())

		semantic = &memoryEngine{}
		hybrid, err = NewHybridSearchEngine(semantic, types.NewBasicReranker(), tempDir)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	})

	It("should store into both engines", func() {
		Expect(hybrid.Store("docker ps - list running containers", map[string]string{"label": "docker ps"})).To(Succeed())
		Expect(semantic.Count()).To(Equal(1))
		Expect(hybrid.Count()).To(Equal(1))
	})

	It("should merge scores for documents found by both engines", func() {
		Expect(hybrid.Store("docker ps - list running containers", map[string]string{"label": "docker ps"})).To(Succeed())

		results, err := hybrid.Search("docker", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Similarity).To(BeNumerically(">", 0))
		Expect(results[0].FullTextScore).To(BeNumerically(">", 0))
		Expect(results[0].CombinedScore).To(BeNumerically(">", 0))
	})

	It("should truncate to the requested number of results", func() {
		Expect(hybrid.Store("docker ps - list running containers", nil)).To(Succeed())
		Expect(hybrid.Store("docker images - list local images", nil)).To(Succeed())
		Expect(hybrid.Store("docker rmi - remove an image", nil)).To(Succeed())

		results, err := hybrid.Search("docker", 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("should reset both engines", func() {
		Expect(hybrid.Store("docker ps", nil)).To(Succeed())
		Expect(hybrid.Reset()).To(Succeed())
		Expect(hybrid.Count()).To(Equal(0))

		results, err := hybrid.Search("docker", 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})
