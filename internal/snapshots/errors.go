package snapshots

import (
	"errors"

	"github.com/JaimeStill/newsroll/pkg/repository"
)

// Domain errors for snapshot operations.
var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrDuplicate = errors.New("snapshot already exists")
)

func mapError(err error) error {
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
