package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettingsGetFallback(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	value, err := repo.Get(ctx, "missing_key", "fallback")
	require.NoError(t, err)
	require.Equal(t, "fallback", value)

	// Seeded defaults win over the fallback.
	value, err = repo.Get(ctx, "default_timeout", "99")
	require.NoError(t, err)
	require.Equal(t, "30", value)
}

func TestSettingsSetUpserts(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.Set(ctx, "theme", "light"))

	value, err := repo.Get(ctx, "theme", "")
	require.NoError(t, err)
	require.Equal(t, "light", value)

	require.Error(t, repo.Set(ctx, "", "nope"))
}

func TestSettingsAllIncludesSeededDefaults(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "custom_key", "custom"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Equal(t, "custom", all["custom_key"])
	require.Equal(t, "markdown", all["export_format"])
	require.Equal(t, "true", all["tls_verify"])
}
