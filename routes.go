package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/localnotes/catalog"
	"github.com/mudler/localnotes/pkg/config"
	"github.com/mudler/localnotes/rag"
	"github.com/mudler/localnotes/rag/sources"
	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

// notebookList guards the name -> notebook map: createNotebook writes
// it while other handlers read it from concurrent requests.
type notebookList struct {
	mu        sync.RWMutex
	notebooks map[string]*rag.Notebook
}

func newNotebookList() *notebookList {
	return &notebookList{notebooks: map[string]*rag.Notebook{}}
}

func (l *notebookList) Get(name string) (*rag.Notebook, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	nb, exists := l.notebooks[name]
	return nb, exists
}

func (l *notebookList) Set(name string, nb *rag.Notebook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notebooks[name] = nb
}

func (l *notebookList) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.notebooks))
	for name := range l.notebooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func startAPI(cfg config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	openaiConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		openaiConfig.BaseURL = cfg.OpenAIBaseURL
	}
	openAIClient := openai.NewClientWithConfig(openaiConfig)

	if err := os.MkdirAll(cfg.DBPath(), 0755); err != nil {
		return err
	}

	notebooks := newNotebookList()
	sourceManager := rag.NewSourceManager(&sources.Config{GitPrivateKey: cfg.GitPrivateKey})

	openNotebook := func(name string) (*rag.Notebook, error) {
		return rag.OpenNotebook(cfg.Engine, name, cfg.DBPath(), cfg.AssetDir(name),
			cfg.DatabaseURL, cfg.EmbeddingModel, cfg.MaxChunkSize, openAIClient)
	}

	// Reopen notebooks persisted from previous runs
	for _, name := range rag.ListAllNotebooks(cfg.DBPath()) {
		nb, err := openNotebook(name)
		if err != nil {
			return err
		}
		notebooks.Set(name, nb)
		sourceManager.RegisterNotebook(name, nb)
	}

	// Create the notebooks declared in the configuration
	for _, declared := range cfg.Notebooks {
		if _, exists := notebooks.Get(declared.Name); !exists {
			nb, err := openNotebook(declared.Name)
			if err != nil {
				return err
			}
			notebooks.Set(declared.Name, nb)
			sourceManager.RegisterNotebook(declared.Name, nb)
		}
		for _, src := range declared.Sources {
			if err := sourceManager.AddSource(declared.Name, src.URL, src.UpdateInterval); err != nil {
				xlog.Warn("Failed to add configured source", "url", src.URL, "error", err)
			}
		}
	}

	sourceManager.Start()

	registerStaticHandler(e)

	// API routes for managing notebooks
	e.POST("/api/notebooks", createNotebook(notebooks, sourceManager, openNotebook))
	e.GET("/api/notebooks", listNotebooks(notebooks))
	e.GET("/api/notebooks/:name/topics", listTopics(notebooks))
	e.GET("/api/notebooks/:name/topics/:topic/entries", listTopicEntries(notebooks))
	e.POST("/api/notebooks/:name/search", search(notebooks))
	e.POST("/api/notebooks/:name/ask", ask(notebooks, openAIClient, cfg.LLMModel))
	e.POST("/api/notebooks/:name/upload", uploadFile(notebooks, cfg))
	e.GET("/api/notebooks/:name/entries", listFiles(notebooks))
	e.DELETE("/api/notebooks/:name/entry/delete", deleteEntry(notebooks))
	e.POST("/api/notebooks/:name/reset", reset(notebooks))
	e.POST("/api/notebooks/:name/sources", addSource(notebooks, sourceManager))
	e.DELETE("/api/notebooks/:name/sources", removeSource(notebooks, sourceManager))

	return e.Start(cfg.ListenAddress)
}

func errorMessage(message string) map[string]string {
	return map[string]string{"error": message}
}

// createNotebook handles creating a new notebook
func createNotebook(notebooks *notebookList, sm *rag.SourceManager, open func(string) (*rag.Notebook, error)) func(c echo.Context) error {
	return func(c echo.Context) error {
		type request struct {
			Name string `json:"name"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Name == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if _, exists := notebooks.Get(r.Name); exists {
			return c.JSON(http.StatusConflict, errorMessage("Notebook already exists"))
		}

		nb, err := open(r.Name)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create notebook: "+err.Error()))
		}

		notebooks.Set(r.Name, nb)
		sm.RegisterNotebook(r.Name, nb)
		return c.JSON(http.StatusCreated, map[string]string{"name": r.Name})
	}
}

// listNotebooks returns all notebooks
func listNotebooks(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, notebooks.Names())
	}
}

func listTopics(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}
		return c.JSON(http.StatusOK, nb.Topics())
	}
}

func listTopicEntries(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		entries, err := nb.Entries(c.Param("topic"))
		if err != nil {
			if catalog.IsNotFound(err) {
				return c.JSON(http.StatusNotFound, errorMessage(err.Error()))
			}
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to list entries"))
		}

		return c.JSON(http.StatusOK, entries)
	}
}

func search(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		type request struct {
			Query      string `json:"query"`
			MaxResults int    `json:"max_results"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if r.MaxResults == 0 {
			r.MaxResults = 5
		}

		results, err := nb.Search(r.Query, r.MaxResults)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to search notebook"))
		}

		type response struct {
			Matches []catalog.Match `json:"matches"`
			Results []rag.Result    `json:"results"`
		}

		return c.JSON(http.StatusOK, response{
			Matches: nb.Find(r.Query),
			Results: results,
		})
	}
}

func ask(notebooks *notebookList, client *openai.Client, model string) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		type request struct {
			Question   string `json:"question"`
			MaxResults int    `json:"max_results"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.Question == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		assistant := rag.NewAssistant(client, model, r.MaxResults)
		answer, err := assistant.Ask(c.Request().Context(), nb, r.Question)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to answer: "+err.Error()))
		}

		return c.JSON(http.StatusOK, answer)
	}
}

// uploadFile handles uploading note files to a notebook
func uploadFile(notebooks *notebookList, cfg config.Config) func(c echo.Context) error {
	return func(c echo.Context) error {
		name := c.Param("name")
		nb, exists := notebooks.Get(name)
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		file, err := c.FormFile("file")
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to read file: "+err.Error()))
		}

		f, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Failed to open file: "+err.Error()))
		}
		defer f.Close()

		tmpDir, err := os.MkdirTemp("", "localnotes-upload-*")
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}
		defer os.RemoveAll(tmpDir)

		filePath := filepath.Join(tmpDir, filepath.Base(file.Filename))
		out, err := os.Create(filePath)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to create file"))
		}
		defer out.Close()

		if _, err := io.Copy(out, f); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to copy file"))
		}

		if err := nb.StoreOrReplace(filePath, map[string]string{"type": "upload"}); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to store file: "+err.Error()))
		}

		return c.JSON(http.StatusOK, nb.ListEntries())
	}
}

func listFiles(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}
		return c.JSON(http.StatusOK, nb.ListEntries())
	}
}

func deleteEntry(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		type request struct {
			Entry string `json:"entry"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := nb.RemoveEntry(r.Entry); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to remove entry"))
		}

		return c.JSON(http.StatusOK, nb.ListEntries())
	}
}

func reset(notebooks *notebookList) func(c echo.Context) error {
	return func(c echo.Context) error {
		nb, exists := notebooks.Get(c.Param("name"))
		if !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		if err := nb.Reset(); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to reset notebook"))
		}

		return c.JSON(http.StatusOK, nb.ListEntries())
	}
}

func addSource(notebooks *notebookList, sm *rag.SourceManager) func(c echo.Context) error {
	return func(c echo.Context) error {
		name := c.Param("name")
		if _, exists := notebooks.Get(name); !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		type request struct {
			URL            string `json:"url"`
			UpdateInterval string `json:"update_interval"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		interval := time.Hour
		if r.UpdateInterval != "" {
			parsed, err := time.ParseDuration(r.UpdateInterval)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorMessage("Invalid update_interval: "+err.Error()))
			}
			interval = parsed
		}

		if err := sm.AddSource(name, r.URL, interval); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to add source: "+err.Error()))
		}

		return c.JSON(http.StatusOK, map[string]string{"url": r.URL})
	}
}

func removeSource(notebooks *notebookList, sm *rag.SourceManager) func(c echo.Context) error {
	return func(c echo.Context) error {
		name := c.Param("name")
		if _, exists := notebooks.Get(name); !exists {
			return c.JSON(http.StatusNotFound, errorMessage("Notebook not found"))
		}

		type request struct {
			URL string `json:"url"`
		}

		r := new(request)
		if err := c.Bind(r); err != nil || r.URL == "" {
			return c.JSON(http.StatusBadRequest, errorMessage("Invalid request"))
		}

		if err := sm.RemoveSource(name, r.URL); err != nil {
			return c.JSON(http.StatusInternalServerError, errorMessage("Failed to remove source: "+err.Error()))
		}

		return c.JSON(http.StatusOK, map[string]string{"url": r.URL})
	}
}
