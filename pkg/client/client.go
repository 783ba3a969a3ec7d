package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/mudler/localnotes/catalog"
	"github.com/mudler/localnotes/rag"
	"github.com/mudler/localnotes/rag/types"
)

// Client is a client for the localnotes API
type Client struct {
	BaseURL string
}

// NewClient creates a new localnotes API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
	}
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return errors.New(payload.Error)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

// CreateNotebook creates a new notebook
func (c *Client) CreateNotebook(name string) error {
	url := fmt.Sprintf("%s/api/notebooks", c.BaseURL)

	type request struct {
		Name string `json:"name"`
	}

	payload, err := json.Marshal(request{Name: name})
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}

	return nil
}

// ListNotebooks lists all notebooks
func (c *Client) ListNotebooks() ([]string, error) {
	url := fmt.Sprintf("%s/api/notebooks", c.BaseURL)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var notebooks []string
	if err := json.NewDecoder(resp.Body).Decode(&notebooks); err != nil {
		return nil, err
	}

	return notebooks, nil
}

// Topics lists the topic names of a notebook in source order
func (c *Client) Topics(notebook string) ([]string, error) {
	url := fmt.Sprintf("%s/api/notebooks/%s/topics", c.BaseURL, notebook)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var topics []string
	if err := json.NewDecoder(resp.Body).Decode(&topics); err != nil {
		return nil, err
	}

	return topics, nil
}

// Entries returns the entries of a topic in source order
func (c *Client) Entries(notebook, topic string) ([]catalog.Entry, error) {
	url := fmt.Sprintf("%s/api/notebooks/%s/topics/%s/entries", c.BaseURL, notebook, topic)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var entries []catalog.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// SearchResponse carries both kinds of search results: exact substring
// matches from the catalog and ranked hits from the engine.
type SearchResponse struct {
	Matches []catalog.Match `json:"matches"`
	Results []types.Result  `json:"results"`
}

// Search searches a notebook
func (c *Client) Search(notebook, query string, maxResults int) (*SearchResponse, error) {
	url := fmt.Sprintf("%s/api/notebooks/%s/search", c.BaseURL, notebook)

	type request struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}

	payload, err := json.Marshal(request{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var results SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	return &results, nil
}

// Ask asks the notebook assistant a question
func (c *Client) Ask(notebook, question string) (*rag.Answer, error) {
	url := fmt.Sprintf("%s/api/notebooks/%s/ask", c.BaseURL, notebook)

	type request struct {
		Question string `json:"question"`
	}

	payload, err := json.Marshal(request{Question: question})
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: 5 * time.Minute}
	resp, err := httpClient.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var answer rag.Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, err
	}

	return &answer, nil
}

// Store uploads a note file to a notebook
func (c *Client) Store(notebook, filePath string) error {
	url := fmt.Sprintf("%s/api/notebooks/%s/upload", c.BaseURL, notebook)

	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filePath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := http.Post(url, writer.FormDataContentType(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return nil
}

// ListEntries lists the note files stored in a notebook
func (c *Client) ListEntries(notebook string) ([]string, error) {
	url := fmt.Sprintf("%s/api/notebooks/%s/entries", c.BaseURL, notebook)

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var entries []string
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// Reset removes all note files from a notebook
func (c *Client) Reset(notebook string) error {
	url := fmt.Sprintf("%s/api/notebooks/%s/reset", c.BaseURL, notebook)

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return nil
}

// AddSource registers an external source on a notebook
func (c *Client) AddSource(notebook, sourceURL string, updateInterval time.Duration) error {
	url := fmt.Sprintf("%s/api/notebooks/%s/sources", c.BaseURL, notebook)

	type request struct {
		URL            string `json:"url"`
		UpdateInterval string `json:"update_interval"`
	}

	payload, err := json.Marshal(request{URL: sourceURL, UpdateInterval: updateInterval.String()})
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	return nil
}
