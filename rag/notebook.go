package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mudler/localnotes/catalog"
	"github.com/mudler/localnotes/pkg/chunk"
)

// Notebook is a named, persistent collection of note files. The files
// are parsed into a merged catalog for topic lookups and indexed into
// a search engine for ranked queries. The state file records which
// files belong to the notebook and which external sources feed it.
type Notebook struct {
	Engine
	sync.Mutex
	name         string
	state        notebookState
	catalog      *catalog.Catalog
	path         string
	assetDir     string
	maxChunkSize int
}

type notebookState struct {
	Files   []string         `json:"files"`
	Sources []ExternalSource `json:"sources,omitempty"`
}

func loadState(path string) (notebookState, error) {
	state := notebookState{}
	data, err := os.ReadFile(path)
	if err != nil {
		return state, err
	}

	err = json.Unmarshal(data, &state)
	return state, err
}

// NewNotebook opens or creates the notebook persisted at stateFile,
// with note files kept under assetDir. An existing notebook gets its
// catalog rebuilt from the files on disk; the engine is assumed to
// persist on its own.
func NewNotebook(name, stateFile, assetDir string, store Engine, maxChunkSize int) (*Notebook, error) {
	if err := os.MkdirAll(assetDir, 0755); err != nil {
		return nil, err
	}

	nb := &Notebook{
		Engine:       store,
		name:         name,
		path:         stateFile,
		assetDir:     assetDir,
		maxChunkSize: maxChunkSize,
		catalog:      catalog.New(),
	}

	if _, err := os.Stat(stateFile); err != nil {
		nb.Lock()
		defer nb.Unlock()
		return nb, nb.save()
	}

	state, err := loadState(stateFile)
	if err != nil {
		return nil, err
	}
	nb.state = state

	if err := nb.rebuildCatalog(); err != nil {
		return nil, err
	}

	return nb, nil
}

// Name returns the notebook name.
func (nb *Notebook) Name() string {
	return nb.name
}

func (nb *Notebook) save() error {
	data, err := json.Marshal(nb.state)
	if err != nil {
		return err
	}

	return os.WriteFile(nb.path, data, 0644)
}

// rebuildCatalog reparses every markdown note file into a fresh merged
// catalog. Caller holds the lock during mutations.
func (nb *Notebook) rebuildCatalog() error {
	parsed := []*catalog.Catalog{}
	for _, f := range nb.state.Files {
		if !isMarkdown(f) {
			continue
		}
		c, err := catalog.LoadFile(filepath.Join(nb.assetDir, f))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", f, err)
		}
		parsed = append(parsed, c)
	}

	nb.catalog = catalog.Merge(parsed...)
	return nil
}

// Store copies a note file into the notebook, merges it into the
// catalog and indexes it into the search engine.
func (nb *Notebook) Store(entry string, metadata map[string]string) error {
	nb.Lock()
	defer nb.Unlock()

	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("file does not exist: %s", entry)
	}

	fileName := filepath.Base(entry)
	if err := copyFile(entry, nb.assetDir); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := nb.index(fileName, metadata); err != nil {
		return err
	}

	nb.state.Files = append(nb.state.Files, fileName)
	if err := nb.rebuildCatalog(); err != nil {
		return err
	}

	return nb.save()
}

// StoreOrReplace stores a note file, replacing a previous version with
// the same name if one exists.
func (nb *Notebook) StoreOrReplace(entry string, metadata map[string]string) error {
	if nb.entryExists(filepath.Base(entry)) {
		if err := nb.RemoveEntry(filepath.Base(entry)); err != nil {
			return err
		}
	}

	return nb.Store(entry, metadata)
}

// index feeds one note file to the search engine. Markdown files are
// indexed entry by entry so that topic and label can be searched and
// filtered on; other formats are indexed as plain chunks.
func (nb *Notebook) index(fileName string, metadata map[string]string) error {
	fpath := filepath.Join(nb.assetDir, fileName)

	content, err := readNote(fpath)
	if err != nil {
		return err
	}

	if isMarkdown(fileName) {
		c, err := catalog.ParseString(content)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", fileName, err)
		}
		if len(c.ListTopics()) > 0 {
			return nb.indexCatalog(c, fileName, metadata)
		}
	}

	for _, piece := range chunk.SplitParagraphIntoChunks(content, nb.maxChunkSize) {
		meta := mergeMeta(metadata, map[string]string{"source": fileName, "type": "chunk"})
		if err := nb.Engine.Store(piece, meta); err != nil {
			return err
		}
	}

	return nil
}

func (nb *Notebook) indexCatalog(c *catalog.Catalog, fileName string, metadata map[string]string) error {
	for _, topic := range c.Topics() {
		for _, e := range topic.Entries {
			content := e.Label
			if e.Description != "" {
				content = e.Label + " - " + e.Description
			}
			meta := mergeMeta(metadata, map[string]string{
				"source":      fileName,
				"type":        "entry",
				"topic":       topic.Name,
				"label":       e.Label,
				"description": e.Description,
			})
			if err := nb.Engine.Store(content, meta); err != nil {
				return err
			}
		}
	}

	return nil
}

// Topics returns the topic names of the merged catalog in source order.
func (nb *Notebook) Topics() []string {
	nb.Lock()
	defer nb.Unlock()

	return nb.catalog.ListTopics()
}

// Entries returns the entries of a topic. The error is a
// catalog.NotFoundError when the topic does not exist.
func (nb *Notebook) Entries(topic string) ([]catalog.Entry, error) {
	nb.Lock()
	defer nb.Unlock()

	return nb.catalog.Entries(topic)
}

// Find runs the catalog substring search over labels and descriptions.
func (nb *Notebook) Find(query string) []catalog.Match {
	nb.Lock()
	defer nb.Unlock()

	return nb.catalog.Search(query)
}

// Render returns the merged catalog as canonical markdown.
func (nb *Notebook) Render() []byte {
	nb.Lock()
	defer nb.Unlock()

	return nb.catalog.Render()
}

// ListEntries returns the names of the stored note files.
func (nb *Notebook) ListEntries() []string {
	nb.Lock()
	defer nb.Unlock()

	return append([]string{}, nb.state.Files...)
}

// EntryExists reports whether a note file with the same name is
// already stored.
func (nb *Notebook) EntryExists(entry string) bool {
	return nb.entryExists(filepath.Base(entry))
}

func (nb *Notebook) entryExists(entry string) bool {
	nb.Lock()
	defer nb.Unlock()

	for _, e := range nb.state.Files {
		if e == entry {
			return true
		}
	}

	return false
}

// RemoveEntry removes a note file and reindexes the rest.
func (nb *Notebook) RemoveEntry(entry string) error {
	nb.Lock()
	for i, e := range nb.state.Files {
		if e == entry {
			nb.state.Files = append(nb.state.Files[:i], nb.state.Files[i+1:]...)
			os.Remove(filepath.Join(nb.assetDir, e))
			break
		}
	}
	if err := nb.save(); err != nil {
		nb.Unlock()
		return err
	}
	nb.Unlock()

	// TODO: drop only the removed file's documents once engines learn
	// per-source deletes, instead of reindexing everything.
	return nb.Repopulate()
}

// Repopulate resets the engine and reindexes every stored note file,
// rebuilding the catalog along the way.
func (nb *Notebook) Repopulate() error {
	nb.Lock()
	defer nb.Unlock()

	if err := nb.Engine.Reset(); err != nil {
		return fmt.Errorf("failed to reset engine: %w", err)
	}

	for _, f := range nb.state.Files {
		if err := nb.index(f, nil); err != nil {
			return fmt.Errorf("failed to index %s: %w", f, err)
		}
	}

	return nb.rebuildCatalog()
}

// Reset removes all note files and clears the engine.
func (nb *Notebook) Reset() error {
	nb.Lock()
	for _, f := range nb.state.Files {
		os.Remove(filepath.Join(nb.assetDir, f))
	}
	nb.state.Files = []string{}
	nb.catalog = catalog.New()
	nb.save()
	nb.Unlock()

	return nb.Engine.Reset()
}

// AddExternalSource registers an external source in the notebook state.
func (nb *Notebook) AddExternalSource(source ExternalSource) error {
	nb.Lock()
	defer nb.Unlock()

	for _, s := range nb.state.Sources {
		if s.URL == source.URL {
			return fmt.Errorf("source %s already registered", source.URL)
		}
	}

	nb.state.Sources = append(nb.state.Sources, source)
	return nb.save()
}

// RemoveExternalSource unregisters an external source.
func (nb *Notebook) RemoveExternalSource(url string) error {
	nb.Lock()
	defer nb.Unlock()

	for i, s := range nb.state.Sources {
		if s.URL == url {
			nb.state.Sources = append(nb.state.Sources[:i], nb.state.Sources[i+1:]...)
			return nb.save()
		}
	}

	return fmt.Errorf("source %s not found", url)
}

// ExternalSources returns the registered external sources.
func (nb *Notebook) ExternalSources() []ExternalSource {
	nb.Lock()
	defer nb.Unlock()

	return append([]ExternalSource{}, nb.state.Sources...)
}

func mergeMeta(base, extra map[string]string) map[string]string {
	merged := map[string]string{}
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		if v != "" {
			merged[k] = v
		}
	}
	return merged
}

func copyFile(src, dst string) error {
	in, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dst, filepath.Base(src)), in, 0644)
}
