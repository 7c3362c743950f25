package artifact

import (
	"context"
	"fmt"
)

var (
	// ErrNotFound is returned when no artifact exists at the given path.
	ErrNotFound = fmt.Errorf("artifact not found")
)

// Store saves and loads artifacts by path. Save replaces any existing
// content; it never appends.
type Store interface {
	Save(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}
