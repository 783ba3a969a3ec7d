package types_test

import (
	. "github.com/mudler/localnotes/rag/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BasicReranker", func() {
	var reranker *BasicReranker

	BeforeEach(func() {
		reranker = NewBasicReranker()
	})

	It("should average the scores when both engines found a document", func() {
		results, err := reranker.Rerank("query", []Result{
			{Content: "both", Similarity: 0.8, FullTextScore: 0.4},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].CombinedScore).To(BeNumerically("~", 0.6, 1e-6))
	})

	It("should keep the single score otherwise", func() {
		results, err := reranker.Rerank("query", []Result{
			{Content: "semantic", Similarity: 0.7},
			{Content: "lexical", FullTextScore: 0.3},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].Content).To(Equal("semantic"))
		Expect(results[0].CombinedScore).To(BeNumerically("~", 0.7, 1e-6))
		Expect(results[1].CombinedScore).To(BeNumerically("~", 0.3, 1e-6))
	})

	It("should sort by combined score descending", func() {
		results, err := reranker.Rerank("query", []Result{
			{Content: "low", FullTextScore: 0.1},
			{Content: "high", FullTextScore: 0.9},
			{Content: "mid", FullTextScore: 0.5},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(results[0].Content).To(Equal("high"))
		Expect(results[1].Content).To(Equal("mid"))
		Expect(results[2].Content).To(Equal("low"))
	})

	It("should accept empty input", func() {
		results, err := reranker.Rerank("query", nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(results).To(BeEmpty())
	})
})
