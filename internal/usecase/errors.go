package usecase

import (
	"errors"
	"fmt"

	"intake-review/internal/domain"
)

// upstream marks unexpected store failures. Domain sentinels pass through untouched so
// the transport layer can still map NotFound and friends.
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, s := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidArgument,
		domain.ErrUnauthorized,
		domain.ErrAlreadyExists,
		domain.ErrInvalidCredentials,
		domain.ErrSessionExpired,
		domain.ErrUpstream,
	} {
		if errors.Is(err, s) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUpstream, err)
}
