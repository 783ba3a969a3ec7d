package catalog

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Parse reads note text into a Catalog. The grammar is the one used by
// plain markdown cheatsheets: a heading line starts a topic, a bullet
// line is an entry, fenced code blocks and prose lines are skipped.
// A fence left open at the end of the input keeps skipping to EOF:
// the content is still code, and treating it as note lines would turn
// shell snippets into entries. A bullet before the first heading or a
// duplicate topic name is a ParseError. Empty input yields an empty
// catalog.
func Parse(data []byte) (*Catalog, error) {
	c := New()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	current := -1
	inFence := false
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(text, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		switch {
		case strings.HasPrefix(text, "#"):
			name := strings.TrimSpace(strings.TrimLeft(text, "#"))
			if name == "" {
				return nil, &ParseError{Line: line, Msg: "empty topic name"}
			}
			if _, dup := c.byName[name]; dup {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("duplicate topic %q", name)}
			}
			c.byName[name] = len(c.topics)
			c.topics = append(c.topics, Topic{Name: name})
			current = len(c.topics) - 1
		case strings.HasPrefix(text, "- "), strings.HasPrefix(text, "* "):
			if current < 0 {
				return nil, &ParseError{Line: line, Msg: "entry outside any topic"}
			}
			entry := parseEntry(strings.TrimSpace(text[2:]))
			c.topics[current].Entries = append(c.topics[current].Entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: line, Msg: err.Error()}
	}

	return c, nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Catalog, error) {
	return Parse([]byte(s))
}

// LoadFile parses the note file at path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading note file: %w", err)
	}
	return Parse(data)
}

// parseEntry splits a bullet into label and description. The label is
// the leading backtick code span when present, otherwise the text
// before a " - " separator. The rest, minus a leading "-" or ":"
// separator, is the description.
func parseEntry(s string) Entry {
	if strings.HasPrefix(s, "`") {
		if end := strings.Index(s[1:], "`"); end >= 0 {
			return Entry{
				Label:       s[1 : 1+end],
				Description: trimSeparator(s[2+end:]),
			}
		}
	}
	if label, desc, ok := strings.Cut(s, " - "); ok {
		return Entry{Label: strings.TrimSpace(label), Description: strings.TrimSpace(desc)}
	}
	return Entry{Label: s}
}

func trimSeparator(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, ": ") {
		s = s[2:]
	}
	return strings.TrimSpace(s)
}
