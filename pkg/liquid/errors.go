package liquid

import (
	"errors"
	"fmt"
)

// TemplateError locates a parse or render failure in a template.
type TemplateError struct {
	Name string
	Line int
	Err  error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	name := e.Name
	if name == "" {
		name = "<string>"
	}
	return fmt.Sprintf("%s:%d: %v", name, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error { return e.Err }

// ErrTemplateNotFound is returned by loaders for unknown template names.
type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }

// Control flow signals. They travel up through rendering as errors until a
// for loop catches them, so every node that holds state must release it on
// any error.
var (
	ErrBreak    = errors.New("break")
	ErrContinue = errors.New("continue")
)

var errMaxDepth = errors.New("maximum include depth reached")

func isControlFlow(err error) bool {
	return err == ErrBreak || err == ErrContinue
}
