package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "chatlist"

// KeyringResolver stores and resolves API keys in the OS keyring.
type KeyringResolver struct {
	service string
}

func NewKeyringResolver() *KeyringResolver {
	return &KeyringResolver{service: serviceName}
}

func (r *KeyringResolver) Resolve(key string) (string, error) {
	if key == "" {
		return "", ErrNotFound
	}
	secret, err := keyring.Get(r.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return secret, nil
}

// Store saves an API key under the given name.
func (r *KeyringResolver) Store(key, secret string) error {
	if key == "" {
		return errors.New("key is required")
	}
	if secret == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(r.service, key, secret)
}

// Delete removes a stored API key.
func (r *KeyringResolver) Delete(key string) error {
	if key == "" {
		return errors.New("key is required")
	}
	err := keyring.Delete(r.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
