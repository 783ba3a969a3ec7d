package sources

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GetGitRepositoryContent shallow-clones a repository and concatenates
// its note files. Markdown keeps its structure so the catalog parser
// can pick up topics later.
func GetGitRepositoryContent(url string, privateKey string) (string, error) {
	tempDir, err := os.MkdirTemp("", "git-notes-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tempDir)

	cloneOptions := &git.CloneOptions{
		URL:           url,
		Depth:         1,
		SingleBranch:  true,
		ReferenceName: plumbing.HEAD,
	}

	// Private keys arrive base64-encoded so they survive env vars
	if privateKey != "" {
		keyBytes, err := base64.StdEncoding.DecodeString(privateKey)
		if err != nil {
			return "", err
		}

		auth, err := ssh.NewPublicKeys("git", keyBytes, "")
		if err != nil {
			return "", err
		}
		cloneOptions.Auth = auth
	}

	_, err = git.PlainClone(tempDir, false, cloneOptions)
	if err != nil {
		return "", err
	}

	var content strings.Builder
	err = filepath.Walk(tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}

		if !info.IsDir() && isNoteFile(path) {
			fileContent, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			content.WriteString("\n--- File: " + strings.TrimPrefix(path, tempDir+"/") + " ---\n")
			content.Write(fileContent)
			content.WriteString("\n")
		}
		return nil
	})

	if err != nil {
		return "", err
	}

	return content.String(), nil
}

// isNoteFile keeps the repository walk to text formats worth indexing.
func isNoteFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	noteExtensions := map[string]bool{
		".md": true, ".txt": true, ".rst": true, ".adoc": true,
		".asciidoc": true, ".wiki": true, ".org": true,
	}

	return noteExtensions[ext]
}
