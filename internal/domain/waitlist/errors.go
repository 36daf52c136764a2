package waitlist

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldProblem names one rejected input field.
type FieldProblem struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}

// ValidationError lists every field the caller has to fix.
type ValidationError struct {
	Problems []FieldProblem `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Problem)
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Fields returns the names of the rejected fields in order.
func (e *ValidationError) Fields() []string {
	names := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		names = append(names, p.Field)
	}
	return names
}

func (e *ValidationError) add(field, problem string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Problem: problem})
}

// orNil returns e when it holds problems and a nil error otherwise.
func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// PersistenceError wraps a storage fault. Op names the failed statement; the
// cause stays in Err and is never shown to callers.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
