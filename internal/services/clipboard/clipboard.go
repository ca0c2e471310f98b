// Package clipboard copies rendered digests to the system clipboard.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	write func(string) error
}

// NewService constructs a clipboard service bound to the system clipboard.
func NewService() *Service {
	return &Service{write: clipboard.WriteAll}
}

// Copy writes text to the system clipboard. It fails when the platform has
// no clipboard utility available.
func (service *Service) Copy(text string) error {
	if err := service.write(text); err != nil {
		return fmt.Errorf("copy %d bytes to clipboard: %w", len(text), err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
