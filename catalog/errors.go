package catalog

import (
	"errors"
	"fmt"
)

// ParseError reports malformed note structure, such as an entry that
// appears before any topic heading.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

// NotFoundError reports a lookup of a topic that is not in the catalog.
type NotFoundError struct {
	Topic string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("topic not found: %s", e.Topic)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
