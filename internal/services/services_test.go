package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chatlist/internal/database"
	"chatlist/internal/llm"
	"chatlist/internal/models"
	"chatlist/internal/secrets"
)

// stubTransport counts calls and delegates to reply, keyed off the request.
// A nil reply returns the request model name as the response.
type stubTransport struct {
	mu    sync.Mutex
	calls int
	reply func(ctx context.Context, req llm.Request) (string, error)
}

func (t *stubTransport) Send(ctx context.Context, req llm.Request) (string, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.reply == nil {
		return req.Model, nil
	}
	return t.reply(ctx, req)
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// mapResolver resolves credentials from a fixed map.
type mapResolver map[string]string

func (r mapResolver) Resolve(key string) (string, error) {
	value, ok := r[key]
	if !ok {
		return "", secrets.ErrNotFound
	}
	return value, nil
}

type testEnv struct {
	db        *gorm.DB
	services  *Services
	transport *stubTransport
	resolver  mapResolver
}

func newTestEnv(t *testing.T, opts ...DispatchOption) *testEnv {
	t.Helper()
	db, err := database.Init(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	transport := &stubTransport{}
	resolver := mapResolver{}
	return &testEnv{
		db:        db,
		services:  NewServices(db, resolver, transport, opts...),
		transport: transport,
		resolver:  resolver,
	}
}

// addProvider registers an active provider whose credential resolves.
func (e *testEnv) addProvider(t *testing.T, name string) *models.Provider {
	t.Helper()
	keyName := name + "-key"
	e.resolver[keyName] = "secret-" + name
	provider, err := e.services.Providers.Create(context.Background(), &models.Provider{
		Name:          name,
		APIURL:        "https://" + name + ".example/v1",
		CredentialKey: keyName,
		ModelName:     name + "-model",
	})
	require.NoError(t, err)
	return provider
}

func (e *testEnv) addPrompt(t *testing.T, text string) *models.Prompt {
	t.Helper()
	prompt, err := e.services.Prompts.Create(context.Background(), text, nil)
	require.NoError(t, err)
	return prompt
}
