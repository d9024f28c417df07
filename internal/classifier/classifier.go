// Package classifier turns raw extracted signals into classified records
// using the static taxonomy tables. Everything here is pure: no I/O, no
// mutation of shared state, deterministic for a given taxonomy.
package classifier

import (
	"github.com/privalens/privalens/internal/taxonomy"
)

type Classifier struct {
	tax           *taxonomy.Taxonomy
	encodedMinLen int
}

// New builds a classifier over the given taxonomy. Pass taxonomy.Default()
// outside of tests.
func New(tax *taxonomy.Taxonomy) *Classifier {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Classifier{
		tax:           tax,
		encodedMinLen: taxonomy.EncodedMinLen,
	}
}
