package secrets

import (
	"os"
	"strings"
)

// EnvResolver reads secrets from environment variables, the api_id column
// naming the variable. Pair with godotenv at startup to honor .env files.
type EnvResolver struct{}

func NewEnvResolver() EnvResolver { return EnvResolver{} }

func (EnvResolver) Resolve(key string) (string, error) {
	if key == "" {
		return "", ErrNotFound
	}
	secret := strings.TrimSpace(os.Getenv(key))
	if secret == "" {
		return "", ErrNotFound
	}
	return secret, nil
}
