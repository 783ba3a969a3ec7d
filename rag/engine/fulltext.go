package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mudler/localnotes/rag/types"
)

// document is a single indexed note entry: the raw content plus the
// text fields scored during search and the keyword fields used for
// exact-match filtering.
type document struct {
	Content  string            `json:"content"`
	Fields   map[string]string `json:"fields,omitempty"`
	Keywords map[string]string `json:"keywords,omitempty"`
}

// SearchOptions tunes a full-text query.
type SearchOptions struct {
	// Boosts multiplies the score contribution of a text field.
	// Fields without a boost use DefaultBoosts.
	Boosts map[string]float32
	// Filters keeps only documents whose keyword field equals the value.
	Filters map[string]string
	// TopK caps the number of results.
	TopK int
}

// DefaultBoosts weight entry labels above descriptions and topic names,
// the way the notes are usually queried (by command, not by prose).
var DefaultBoosts = map[string]float32{
	"label":       3.0,
	"content":     1.0,
	"description": 1.0,
	"topic":       0.5,
}

// textFields are the metadata keys indexed for scoring; keywordFields
// are the ones indexed for filtering.
var (
	textFields    = []string{"label", "description", "topic"}
	keywordFields = []string{"topic", "source", "type"}
)

// FullTextIndex manages the full-text search index
type FullTextIndex struct {
	path      string
	documents map[string]document
	mu        sync.RWMutex
}

// NewFullTextIndex creates a new full-text index
func NewFullTextIndex(path string) (*FullTextIndex, error) {
	index := &FullTextIndex{
		path:      path,
		documents: make(map[string]document),
	}

	// Load existing index if it exists
	if err := index.load(); err != nil {
		return nil, fmt.Errorf("failed to load full-text index: %w", err)
	}

	return index, nil
}

// Store adds a document to the index. The content doubles as the
// document ID. Metadata keys matching a text field are scored during
// search, keys matching a keyword field can be filtered on.
func (i *FullTextIndex) Store(content string, meta map[string]string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	doc := document{Content: content}
	for _, f := range textFields {
		if v := meta[f]; v != "" {
			if doc.Fields == nil {
				doc.Fields = map[string]string{}
			}
			doc.Fields[f] = v
		}
	}
	for _, f := range keywordFields {
		if v := meta[f]; v != "" {
			if doc.Keywords == nil {
				doc.Keywords = map[string]string{}
			}
			doc.Keywords[f] = v
		}
	}

	i.documents[content] = doc
	return i.save()
}

// Delete removes a document from the index
func (i *FullTextIndex) Delete(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.documents, id)
	return i.save()
}

// Reset clears the index
func (i *FullTextIndex) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.documents = make(map[string]document)
	return i.save()
}

// Count returns the number of indexed documents.
func (i *FullTextIndex) Count() int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.documents)
}

// Search performs full-text search on the index with default options.
func (i *FullTextIndex) Search(query string, maxResults int) []types.Result {
	return i.SearchWith(query, SearchOptions{TopK: maxResults})
}

// SearchWith performs full-text search with boosts and filters. Each
// query term that appears in a field contributes that field's boost to
// the score; the total is normalized by the number of query terms.
func (i *FullTextIndex) SearchWith(query string, opts SearchOptions) []types.Result {
	i.mu.RLock()
	defer i.mu.RUnlock()

	queryTerms := strings.Fields(strings.ToLower(query))
	scoredResults := make([]types.Result, 0)

	for id, doc := range i.documents {
		if !matchesFilters(doc, opts.Filters) {
			continue
		}

		score := float32(0)
		for _, term := range queryTerms {
			if strings.Contains(strings.ToLower(doc.Content), term) {
				score += boostFor("content", opts.Boosts)
			}
			for field, value := range doc.Fields {
				if strings.Contains(strings.ToLower(value), term) {
					score += boostFor(field, opts.Boosts)
				}
			}
		}

		if len(queryTerms) > 0 {
			score = score / float32(len(queryTerms))
		}

		if score > 0 {
			meta := map[string]string{}
			for k, v := range doc.Fields {
				meta[k] = v
			}
			for k, v := range doc.Keywords {
				meta[k] = v
			}
			scoredResults = append(scoredResults, types.Result{
				ID:            id,
				Content:       doc.Content,
				Metadata:      meta,
				FullTextScore: score,
			})
		}
	}

	sort.SliceStable(scoredResults, func(a, b int) bool {
		return scoredResults[a].FullTextScore > scoredResults[b].FullTextScore
	})

	if opts.TopK > 0 && len(scoredResults) > opts.TopK {
		scoredResults = scoredResults[:opts.TopK]
	}

	return scoredResults
}

func matchesFilters(doc document, filters map[string]string) bool {
	for field, want := range filters {
		if doc.Keywords[field] != want {
			return false
		}
	}
	return true
}

func boostFor(field string, boosts map[string]float32) float32 {
	if b, ok := boosts[field]; ok {
		return b
	}
	if b, ok := DefaultBoosts[field]; ok {
		return b
	}
	return 1.0
}

// FullTextEngine adapts FullTextIndex to the Engine interface for
// deployments that run without an embeddings endpoint.
type FullTextEngine struct {
	*FullTextIndex
}

// NewFullTextEngine creates a lexical-only search engine persisted at path.
func NewFullTextEngine(path string) (*FullTextEngine, error) {
	index, err := NewFullTextIndex(path)
	if err != nil {
		return nil, err
	}
	return &FullTextEngine{FullTextIndex: index}, nil
}

func (e *FullTextEngine) Search(query string, similarEntries int) ([]types.Result, error) {
	return e.FullTextIndex.Search(query, similarEntries), nil
}

// load reads the index from disk
func (i *FullTextIndex) load() error {
	data, err := os.ReadFile(i.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist yet, that's okay
		}
		return err
	}

	return json.Unmarshal(data, &i.documents)
}

// save writes the index to disk
func (i *FullTextIndex) save() error {
	data, err := json.Marshal(i.documents)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(i.path), 0755); err != nil {
		return err
	}

	return os.WriteFile(i.path, data, 0644)
}
