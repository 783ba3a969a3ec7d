package catalog

import "strings"

// Entry is a single labeled item within a topic: typically a command
// plus an optional free-text description.
type Entry struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Topic is a named group of entries, kept in source order.
type Topic struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Catalog is the in-memory structure produced by parsing note text.
// Topic names are unique and topics and entries keep their source
// order. A Catalog is never mutated after parsing, so it is safe for
// unsynchronized concurrent reads.
type Catalog struct {
	topics []Topic
	byName map[string]int
}

// Match is a single search hit: the entry together with the name of
// the topic it belongs to.
type Match struct {
	Topic string `json:"topic"`
	Entry Entry  `json:"entry"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{byName: map[string]int{}}
}

// ListTopics returns the topic names in source order.
func (c *Catalog) ListTopics() []string {
	names := make([]string, 0, len(c.topics))
	for _, t := range c.topics {
		names = append(names, t.Name)
	}
	return names
}

// Topics returns the topics in source order. The returned slice is
// shared with the catalog and must not be modified.
func (c *Catalog) Topics() []Topic {
	return c.topics
}

// Entries returns the entries of the named topic in source order. It
// returns a NotFoundError when the topic is absent.
func (c *Catalog) Entries(topic string) ([]Entry, error) {
	i, ok := c.byName[topic]
	if !ok {
		return nil, &NotFoundError{Topic: topic}
	}
	return c.topics[i].Entries, nil
}

// Search returns every entry whose label or description contains the
// query, case-insensitively, ordered by (topic order, entry order).
// The empty query matches all entries.
func (c *Catalog) Search(query string) []Match {
	q := strings.ToLower(query)

	matches := []Match{}
	for _, t := range c.topics {
		for _, e := range t.Entries {
			if q == "" ||
				strings.Contains(strings.ToLower(e.Label), q) ||
				strings.Contains(strings.ToLower(e.Description), q) {
				matches = append(matches, Match{Topic: t.Name, Entry: e})
			}
		}
	}

	return matches
}

// Merge combines catalogs into a new one. A topic repeated across
// catalogs keeps the position of its first occurrence and accumulates
// entries in catalog order.
func Merge(catalogs ...*Catalog) *Catalog {
	merged := New()
	for _, c := range catalogs {
		if c == nil {
			continue
		}
		for _, t := range c.topics {
			if i, ok := merged.byName[t.Name]; ok {
				merged.topics[i].Entries = append(merged.topics[i].Entries, t.Entries...)
				continue
			}
			merged.byName[t.Name] = len(merged.topics)
			merged.topics = append(merged.topics, Topic{
				Name:    t.Name,
				Entries: append([]Entry(nil), t.Entries...),
			})
		}
	}
	return merged
}
