package catalog

import (
	"bytes"
	"fmt"
	"strings"
)

// Render writes the catalog back as canonical markdown: one heading
// per topic, one bullet per entry with the label in a code span.
// Labels that contain a backtick cannot be wrapped in a code span
// without truncating at the inner backtick on reparse, so those fall
// back to the plain "label - description" form. Parsing the rendered
// text yields an equal catalog.
func (c *Catalog) Render() []byte {
	var b bytes.Buffer
	for i, t := range c.topics {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", t.Name)
		for _, e := range t.Entries {
			switch {
			case strings.Contains(e.Label, "`"):
				if e.Description != "" {
					fmt.Fprintf(&b, "- %s - %s\n", e.Label, e.Description)
				} else {
					fmt.Fprintf(&b, "- %s\n", e.Label)
				}
			case e.Description != "":
				fmt.Fprintf(&b, "- `%s` - %s\n", e.Label, e.Description)
			default:
				fmt.Fprintf(&b, "- `%s`\n", e.Label)
			}
		}
	}
	return b.Bytes()
}
