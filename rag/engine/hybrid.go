package engine

import (
	"fmt"
	"path/filepath"

	"github.com/mudler/localnotes/rag/interfaces"
	"github.com/mudler/localnotes/rag/types"
)

// HybridSearchEngine combines semantic and full-text search
type HybridSearchEngine struct {
	semanticEngine interfaces.Engine
	reranker       types.Reranker
	fullTextIndex  *FullTextIndex
}

// NewHybridSearchEngine creates a new hybrid search engine
func NewHybridSearchEngine(semanticEngine interfaces.Engine, reranker types.Reranker, dbPath string) (*HybridSearchEngine, error) {
	// Create full-text index in the same directory as the semantic engine
	fullTextIndex, err := NewFullTextIndex(filepath.Join(dbPath, "fulltext.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to create full-text index: %w", err)
	}

	return &HybridSearchEngine{
		semanticEngine: semanticEngine,
		reranker:       reranker,
		fullTextIndex:  fullTextIndex,
	}, nil
}

// Store stores a document in both semantic and full-text indexes
func (h *HybridSearchEngine) Store(s string, metadata map[string]string) error {
	if err := h.semanticEngine.Store(s, metadata); err != nil {
		return err
	}

	return h.fullTextIndex.Store(s, metadata)
}

// Reset resets both semantic and full-text indexes
func (h *HybridSearchEngine) Reset() error {
	if err := h.semanticEngine.Reset(); err != nil {
		return err
	}
	return h.fullTextIndex.Reset()
}

// Count returns the number of documents in the index
func (h *HybridSearchEngine) Count() int {
	return h.semanticEngine.Count()
}

// Search performs hybrid search by combining semantic and full-text search results
func (h *HybridSearchEngine) Search(query string, similarEntries int) ([]types.Result, error) {
	semanticResults, err := h.semanticEngine.Search(query, similarEntries)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}

	fullTextResults := h.fullTextIndex.Search(query, similarEntries)

	combinedResults := h.combineResults(semanticResults, fullTextResults)

	rerankedResults, err := h.reranker.Rerank(query, combinedResults)
	if err != nil {
		return nil, fmt.Errorf("reranking failed: %w", err)
	}

	if len(rerankedResults) > similarEntries {
		rerankedResults = rerankedResults[:similarEntries]
	}

	return rerankedResults, nil
}

// combineResults merges semantic and full-text results by content,
// keeping both scores when a document was found by both engines.
func (h *HybridSearchEngine) combineResults(semanticResults, fullTextResults []types.Result) []types.Result {
	resultMap := make(map[string]types.Result)
	order := []string{}

	for _, result := range semanticResults {
		resultMap[result.Content] = result
		order = append(order, result.Content)
	}

	for _, result := range fullTextResults {
		if existing, exists := resultMap[result.Content]; exists {
			existing.FullTextScore = result.FullTextScore
			resultMap[result.Content] = existing
		} else {
			resultMap[result.Content] = result
			order = append(order, result.Content)
		}
	}

	combinedResults := make([]types.Result, 0, len(resultMap))
	for _, content := range order {
		combinedResults = append(combinedResults, resultMap[content])
	}

	return combinedResults
}
