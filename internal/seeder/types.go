package seeder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/ddlseed/internal/export"
)

// DefaultMaxRetries is how many times a row is regenerated to resolve a
// unique constraint collision before generation fails.
const DefaultMaxRetries = 25

// cancelCheckInterval is how many rows are generated between context checks.
const cancelCheckInterval = 1000

// Options tune a single Generate call. The zero value is usable.
type Options struct {
	OutputDir  string         // directory for the output file, default "."
	Dialect    export.Dialect // identifier and literal quoting in SQL output
	MaxRetries int            // per-row uniqueness retries, default DefaultMaxRetries
	Quiet      bool           // suppress progress output
	Values     ValueSource    // overrides the built-in provider catalog
}

func (o Options) maxRetries() int {
	if o.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return o.MaxRetries
}

var (
	// ErrParentEmpty means a required foreign key had no parent rows to
	// reference.
	ErrParentEmpty = errors.New("parent table has no rows")
	// ErrUniqueExhausted means no unused value could be found for a unique
	// or primary key column.
	ErrUniqueExhausted = errors.New("unique value space exhausted")
)

// GenerationError reports an invariant that broke while rows were being
// synthesized. Generation stops at the first one.
type GenerationError struct {
	Table  string
	Column string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("cannot generate %s.%s: %s", e.Table, e.Column, e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// FieldError is a configuration problem tied to a field path such as
// "tables.orders.rowCount".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors is the full, ordered list of problems found in a config.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// ByField groups messages by field path.
func (e FieldErrors) ByField() map[string][]string {
	out := make(map[string][]string)
	for _, fe := range e {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// ValidationError is returned by Generate when the config is rejected
// before any row is generated.
type ValidationError struct {
	Errors FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid generation config: %s", e.Errors.Error())
}
