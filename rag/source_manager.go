package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mudler/localnotes/rag/sources"
	"github.com/mudler/xlog"
)

// ExternalSource represents a source that needs to be periodically updated
type ExternalSource struct {
	URL            string        `json:"url"`
	UpdateInterval time.Duration `json:"update_interval"`
	LastUpdate     time.Time     `json:"last_update"`
}

// SourceManager manages external sources for notebooks
type SourceManager struct {
	sources   map[string][]ExternalSource // notebook name -> sources
	notebooks map[string]*Notebook
	config    *sources.Config
	mu        sync.RWMutex
}

// NewSourceManager creates a new source manager
func NewSourceManager(config *sources.Config) *SourceManager {
	if config == nil {
		config = &sources.Config{}
	}
	return &SourceManager{
		sources:   make(map[string][]ExternalSource),
		notebooks: make(map[string]*Notebook),
		config:    config,
	}
}

// RegisterNotebook registers a notebook with the source manager and
// triggers an immediate sync of its persisted sources.
func (sm *SourceManager) RegisterNotebook(name string, nb *Notebook) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.notebooks[name] = nb

	for _, source := range nb.ExternalSources() {
		sm.sources[name] = append(sm.sources[name], source)
		go sm.updateSource(name, source, nb)
	}
}

// AddSource adds a new external source to a notebook
func (sm *SourceManager) AddSource(notebookName, url string, updateInterval time.Duration) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	nb, exists := sm.notebooks[notebookName]
	if !exists {
		return fmt.Errorf("notebook %s not found", notebookName)
	}

	source := ExternalSource{
		URL:            url,
		UpdateInterval: updateInterval,
		LastUpdate:     time.Now(),
	}

	if err := nb.AddExternalSource(source); err != nil {
		return err
	}

	sm.sources[notebookName] = append(sm.sources[notebookName], source)

	go sm.updateSource(notebookName, source, nb)

	return nil
}

// RemoveSource removes an external source from a notebook
func (sm *SourceManager) RemoveSource(notebookName, url string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	nb, exists := sm.notebooks[notebookName]
	if !exists {
		return fmt.Errorf("notebook %s not found", notebookName)
	}

	if err := nb.RemoveExternalSource(url); err != nil {
		return err
	}

	entry := fmt.Sprintf("source-%s-%s.txt", notebookName, sanitizeURL(url))
	if nb.EntryExists(entry) {
		if err := nb.RemoveEntry(entry); err != nil {
			return err
		}
	}

	srcs := sm.sources[notebookName]
	for i, s := range srcs {
		if s.URL == url {
			sm.sources[notebookName] = append(srcs[:i], srcs[i+1:]...)
			break
		}
	}

	return nil
}

// updateSource syncs a single source into its notebook
func (sm *SourceManager) updateSource(notebookName string, source ExternalSource, nb *Notebook) {
	xlog.Info("Updating source", "url", source.URL)
	content, err := sources.SourceRouter(source.URL, sm.config)
	if err != nil {
		xlog.Error("Error updating source", "url", source.URL, "error", err)
		return
	}

	// Synthesized sources are stored as .txt: the converted content is
	// indexed for search but kept out of the catalog grammar.
	sanitizedURL := sanitizeURL(source.URL)
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("source-%s-%s.txt", notebookName, sanitizedURL))
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		xlog.Error("Error creating temporary file", "error", err)
		return
	}
	defer os.Remove(tmpFile)

	if err := nb.StoreOrReplace(tmpFile, map[string]string{"url": source.URL}); err != nil {
		xlog.Error("Error storing content in notebook", "error", err)
		return
	}

	xlog.Info("Source synced", "url", source.URL, "notebook", notebookName)
}

// sanitizeURL converts a URL into a filesystem-safe string
func sanitizeURL(url string) string {
	replacer := strings.NewReplacer(
		"://", "-",
		"/", "-",
		"?", "-",
		"&", "-",
		"=", "-",
		"#", "-",
		"@", "-",
		":", "-",
		".", "-",
		"+", "-",
		" ", "-",
	)

	sanitized := replacer.Replace(strings.ToLower(url))

	for strings.Contains(sanitized, "--") {
		sanitized = strings.ReplaceAll(sanitized, "--", "-")
	}

	sanitized = strings.Trim(sanitized, "-")

	// Common filesystem filename limit
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}

	return sanitized
}

// Start starts the background sync service
func (sm *SourceManager) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			sm.mu.Lock()
			for notebookName, srcs := range sm.sources {
				nb := sm.notebooks[notebookName]
				for i, source := range srcs {
					if time.Since(source.LastUpdate) >= source.UpdateInterval {
						srcs[i].LastUpdate = time.Now()
						go sm.updateSource(notebookName, source, nb)
					}
				}
			}
			sm.mu.Unlock()
		}
	}()
}
