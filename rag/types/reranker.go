package types

import "sort"

// Reranker defines the interface for reranking search results
type Reranker interface {
	// Rerank takes a query and a list of results, and returns a reranked list
	Rerank(query string, results []Result) ([]Result, error)
}

// BasicReranker combines semantic and full-text scores into a single
// combined score and sorts by it.
type BasicReranker struct{}

// NewBasicReranker creates a new BasicReranker instance
func NewBasicReranker() *BasicReranker {
	return &BasicReranker{}
}

// Rerank averages the scores when a result was found by both engines,
// otherwise it keeps the score of the engine that found it.
func (r *BasicReranker) Rerank(query string, results []Result) ([]Result, error) {
	reranked := make([]Result, len(results))
	for i, res := range results {
		switch {
		case res.Similarity != 0 && res.FullTextScore != 0:
			res.CombinedScore = (res.Similarity + res.FullTextScore) / 2
		case res.FullTextScore != 0:
			res.CombinedScore = res.FullTextScore
		default:
			res.CombinedScore = res.Similarity
		}
		reranked[i] = res
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].CombinedScore > reranked[j].CombinedScore
	})

	return reranked, nil
}
