package schema

import (
	"errors"
	"fmt"
)

// Kinds of ConfigurationError, use errors.Is to branch on them.
var (
	ErrParagraphRequired = errors.New("allowed nodes must include " + NodeParagraph)
	ErrUnknownType       = errors.New("unknown type")
	ErrUnresolvedContent = errors.New("unresolved content expression")
)

// ConfigurationError is a fatal problem with editor configuration detected
// while assembling schema.
type ConfigurationError struct {
	Kind   error
	Name   string // offending type name, if any
	Detail string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Name != "" && e.Detail != "":
		return fmt.Sprintf("%v: %q: %s", e.Kind, e.Name, e.Detail)
	case e.Name != "":
		return fmt.Sprintf("%v: %q", e.Kind, e.Name)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	default:
		return e.Kind.Error()
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Kind
}
