// Package jsonsizer estimates value size from its JSON encoding.
package jsonsizer

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/discochess/kvcache/internal/sizer"
)

// Compile-time check that Sizer implements sizer.Sizer.
var _ sizer.Sizer = (*Sizer)(nil)

// Sizer measures a value as the byte length of its JSON text plus the key length.
// Shared references are counted once per occurrence and runtime overhead is ignored.
type Sizer struct{}

// New returns a JSON sizer.
func New() *Sizer {
	return &Sizer{}
}

// Size returns len(key) + len(json(value)).
func (s *Sizer) Size(key string, value any) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, fmt.Errorf("encoding value for %q: %w", key, err)
	}
	return int64(len(key) + len(data)), nil
}
