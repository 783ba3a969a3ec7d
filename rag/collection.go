package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mudler/localnotes/rag/engine"
	"github.com/mudler/localnotes/rag/types"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

const notebookPrefix = "notebook-"

func statePath(dbPath, name string) string {
	return filepath.Join(dbPath, fmt.Sprintf("%s%s.json", notebookPrefix, name))
}

// NewChromemNotebook creates a notebook backed by a hybrid engine:
// chromem-go semantic search plus the local full-text index.
func NewChromemNotebook(llmClient *openai.Client, name, dbPath, assetDir, embeddingModel string, maxChunkSize int) (*Notebook, error) {
	chromemDB, err := engine.NewChromemDBCollection(name, dbPath, llmClient, embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChromemDB: %w", err)
	}

	hybridEngine, err := engine.NewHybridSearchEngine(chromemDB, types.NewBasicReranker(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create hybrid search engine: %w", err)
	}

	return NewNotebook(name, statePath(dbPath, name), assetDir, hybridEngine, maxChunkSize)
}

// NewFullTextNotebook creates a notebook backed by the lexical index
// alone. No embeddings endpoint is needed.
func NewFullTextNotebook(name, dbPath, assetDir string, maxChunkSize int) (*Notebook, error) {
	fullText, err := engine.NewFullTextEngine(filepath.Join(dbPath, fmt.Sprintf("fulltext-%s.json", name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create full-text engine: %w", err)
	}

	return NewNotebook(name, statePath(dbPath, name), assetDir, fullText, maxChunkSize)
}

// NewPostgresNotebook creates a notebook backed by the PostgreSQL
// full-text engine.
func NewPostgresNotebook(name, databaseURL, dbPath, assetDir string, maxChunkSize int) (*Notebook, error) {
	pg, err := engine.NewPostgresDBCollection(name, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL engine: %w", err)
	}

	return NewNotebook(name, statePath(dbPath, name), assetDir, pg, maxChunkSize)
}

// OpenNotebook builds a notebook from configuration, picking the
// engine by name. Unknown engines fall back to full-text with a
// warning so a misconfigured node still serves its notes.
func OpenNotebook(engineName, name, dbPath, assetDir, databaseURL, embeddingModel string, maxChunkSize int, llmClient *openai.Client) (*Notebook, error) {
	switch engineName {
	case "chromem":
		return NewChromemNotebook(llmClient, name, dbPath, assetDir, embeddingModel, maxChunkSize)
	case "postgres":
		return NewPostgresNotebook(name, databaseURL, dbPath, assetDir, maxChunkSize)
	case "", "fulltext":
		return NewFullTextNotebook(name, dbPath, assetDir, maxChunkSize)
	default:
		xlog.Warn("Unknown engine, using fulltext", "engine", engineName)
		return NewFullTextNotebook(name, dbPath, assetDir, maxChunkSize)
	}
}

// ListAllNotebooks lists all notebooks in the database directory.
func ListAllNotebooks(dbPath string) []string {
	notebooks := []string{}
	files, err := os.ReadDir(dbPath)
	if err != nil {
		return notebooks
	}

	for _, f := range files {
		if strings.HasPrefix(f.Name(), notebookPrefix) {
			notebooks = append(notebooks, strings.TrimPrefix(strings.TrimSuffix(f.Name(), ".json"), notebookPrefix))
		}
	}

	return notebooks
}
