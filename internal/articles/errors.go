package articles

import (
	"errors"

	"github.com/JaimeStill/newsroll/pkg/repository"
)

// Domain errors for article operations.
var (
	ErrNotFound  = errors.New("article not found")
	ErrDuplicate = errors.New("article enrichment already exists")
)

func mapError(err error) error {
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
