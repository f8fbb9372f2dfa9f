// Package secrets resolves provider credentials by name. The engine never
// sees where a secret lives; it only asks a Resolver for the key named by a
// provider's api_id column.
package secrets

import (
	"errors"

	"github.com/rs/zerolog/log"
)

// ErrNotFound reports that no secret exists under the requested key.
var ErrNotFound = errors.New("secret not found")

// Resolver looks up a named secret.
type Resolver interface {
	Resolve(key string) (string, error)
}

// Chain tries each resolver in order and returns the first hit. A broken
// backend (keyring without dbus, locked keychain) must not block the
// resolvers behind it, so backend errors are logged and skipped; the last
// one is returned only when the whole chain misses.
type Chain []Resolver

func (c Chain) Resolve(key string) (string, error) {
	var lastErr error
	for _, r := range c {
		secret, err := r.Resolve(key)
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg("secret backend failed, trying next")
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrNotFound
}
