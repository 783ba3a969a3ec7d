package types

// Result represents a single result from a query.
type Result struct {
	ID       string
	Metadata map[string]string
	Content  string

	// The cosine similarity between the query and the document, in the
	// range [-1, 1]. Only set by semantic engines.
	Similarity float32

	// FullTextScore is the lexical score from the full-text index. The
	// higher the value, the more relevant the document is to the query.
	FullTextScore float32

	// CombinedScore is the final score after reranking.
	CombinedScore float32
}

// Topic returns the catalog topic the result came from, when known.
func (r Result) Topic() string {
	return r.Metadata["topic"]
}

// Label returns the entry label the result came from, when known.
func (r Result) Label() string {
	return r.Metadata["label"]
}
