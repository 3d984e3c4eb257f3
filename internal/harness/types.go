package harness

import (
	"github.com/roach88/provkit/internal/prov"
	"github.com/roach88/provkit/internal/provrdf"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every round trip and assertion succeeded.
	Pass bool `json:"pass"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the decoded (and transformed) document. Nil when
	// decoding failed.
	Document *prov.Document `json:"-"`

	Diagnostics []provrdf.Diagnostic `json:"diagnostics,omitempty"`

	// DecodeError is the decode failure message, if any.
	DecodeError string `json:"decode_error,omitempty"`

	// Hash is the canonical content hash of Document.
	Hash string `json:"hash,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
