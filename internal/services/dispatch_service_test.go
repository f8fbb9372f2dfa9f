package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatlist/internal/llm"
	"chatlist/internal/models"
)

func TestDispatchFansOutToAllActiveProviders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addProvider(t, "alpha")
	env.addProvider(t, "beta")
	env.addProvider(t, "gamma")
	prompt := env.addPrompt(t, "explain goroutines")

	env.transport.reply = func(_ context.Context, req llm.Request) (string, error) {
		return "answer from " + req.Model, nil
	}

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	require.Equal(t, 3, env.transport.callCount())

	names := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		require.Equal(t, models.OutcomeSuccess, outcome.Status)
		require.Equal(t, outcomes[0].DispatchID, outcome.DispatchID)
		require.NotZero(t, outcome.ResultID)
		require.Empty(t, outcome.WriteErr)
		names = append(names, outcome.ProviderName)
	}
	sort.Strings(names)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, names)

	rows, err := env.services.Results.ListByPrompt(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		require.Equal(t, string(models.OutcomeSuccess), row.Status)
		require.Contains(t, row.Response, "answer from ")
	}
}

func TestDispatchMissingPrompt(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Dispatch.Dispatch(context.Background(), 404)
	require.ErrorIs(t, err, models.ErrPromptNotFound)
	require.Zero(t, env.transport.callCount())
}

func TestDispatchNoActiveProviders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	provider := env.addProvider(t, "dormant")
	require.NoError(t, env.services.Providers.SetActive(ctx, provider.ID, false))
	prompt := env.addPrompt(t, "anyone there")

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.NotNil(t, outcomes)
	require.Empty(t, outcomes)
	require.Zero(t, env.transport.callCount())

	rows, err := env.services.Results.ListByPrompt(ctx, prompt.ID)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDispatchMissingCredentialSkipsNetwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addProvider(t, "good")
	bad, err := env.services.Providers.Create(ctx, &models.Provider{
		Name:          "bad",
		APIURL:        "https://bad.example/v1",
		CredentialKey: "no-such-secret",
	})
	require.NoError(t, err)
	prompt := env.addPrompt(t, "who has keys")

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	// Only the provider with a resolvable credential reaches the transport.
	require.Equal(t, 1, env.transport.callCount())

	var failed models.DispatchOutcome
	for _, outcome := range outcomes {
		if outcome.ProviderID == bad.ID {
			failed = outcome
		}
	}
	require.Equal(t, models.OutcomeFailure, failed.Status)
	require.Equal(t, models.FailureMissingCredential, failed.FailureKind)
	require.NotZero(t, failed.ResultID)

	row, err := env.services.Results.Get(ctx, failed.ResultID)
	require.NoError(t, err)
	require.Equal(t, string(models.OutcomeFailure), row.Status)
	require.Equal(t, string(models.FailureMissingCredential), row.ErrorKind)
	require.Equal(t, failed.Detail, row.Response)
}

func TestDispatchTimeoutDoesNotDelayOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.services.Settings.Set(ctx, models.SettingDefaultTimeout, "1"))

	env.addProvider(t, "stuck")
	env.addProvider(t, "quick")
	prompt := env.addPrompt(t, "race them")

	env.transport.reply = func(callCtx context.Context, req llm.Request) (string, error) {
		if strings.HasPrefix(req.Model, "stuck") {
			<-callCtx.Done()
			return "", callCtx.Err()
		}
		return "quick answer", nil
	}

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byName := make(map[string]models.DispatchOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byName[outcome.ProviderName] = outcome
	}

	require.Equal(t, models.OutcomeSuccess, byName["quick"].Status)
	require.Equal(t, "quick answer", byName["quick"].Response)
	require.Less(t, byName["quick"].Elapsed, time.Second)

	require.Equal(t, models.OutcomeFailure, byName["stuck"].Status)
	require.Equal(t, models.FailureTimeout, byName["stuck"].FailureKind)

	rows, err := env.services.Results.ListByPrompt(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestDispatchCancellationKeepsPersistedRows(t *testing.T) {
	persisted := make(chan models.DispatchOutcome, 2)
	env := newTestEnv(t, WithObserver(func(outcome models.DispatchOutcome) {
		persisted <- outcome
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.addProvider(t, "fast")
	env.addProvider(t, "slow")
	prompt := env.addPrompt(t, "abort midway")

	env.transport.reply = func(callCtx context.Context, req llm.Request) (string, error) {
		if strings.HasPrefix(req.Model, "slow") {
			<-callCtx.Done()
			return "", callCtx.Err()
		}
		return "fast answer", nil
	}

	// Cancel only after the fast provider's row is on disk; the slow call
	// is still blocked at that point.
	go func() {
		<-persisted
		cancel()
	}()

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byName := make(map[string]models.DispatchOutcome, len(outcomes))
	for _, outcome := range outcomes {
		byName[outcome.ProviderName] = outcome
	}
	require.Equal(t, models.OutcomeSuccess, byName["fast"].Status)
	require.Equal(t, models.OutcomeFailure, byName["slow"].Status)
	require.Equal(t, models.FailureCanceled, byName["slow"].FailureKind)

	// Both outcomes survive the canceled context: the success row written
	// before the cancel and the recorded abort written after it.
	rows, err := env.services.Results.ListByPrompt(context.Background(), prompt.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	successes := 0
	for _, row := range rows {
		if row.Status == string(models.OutcomeSuccess) {
			successes++
			require.Equal(t, "fast answer", row.Response)
		} else {
			require.Equal(t, string(models.FailureCanceled), row.ErrorKind)
		}
	}
	require.Equal(t, 1, successes)
}

func TestDispatchNetworkFailureIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addProvider(t, "flaky")
	prompt := env.addPrompt(t, "please answer")

	env.transport.reply = func(context.Context, llm.Request) (string, error) {
		return "", errors.New("connection refused")
	}

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, models.OutcomeFailure, outcomes[0].Status)
	require.Equal(t, models.FailureNetwork, outcomes[0].FailureKind)
	require.Contains(t, outcomes[0].Detail, "connection refused")

	row, err := env.services.Results.Get(ctx, outcomes[0].ResultID)
	require.NoError(t, err)
	require.Equal(t, string(models.FailureNetwork), row.ErrorKind)
	require.Contains(t, row.Response, "connection refused")
}

func TestDispatchTruncatesLongResponses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.services.Settings.Set(ctx, models.SettingMaxResponseLength, "5"))

	env.addProvider(t, "verbose")
	prompt := env.addPrompt(t, "write a novel")

	env.transport.reply = func(context.Context, llm.Request) (string, error) {
		return "héllo wörld, chapter one", nil
	}

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, "héllo", outcomes[0].Response)

	row, err := env.services.Results.Get(ctx, outcomes[0].ResultID)
	require.NoError(t, err)
	require.Equal(t, "héllo", row.Response)

	// Raising the limit afterwards does not rewrite stored rows.
	require.NoError(t, env.services.Settings.Set(ctx, models.SettingMaxResponseLength, "10000"))
	row, err = env.services.Results.Get(ctx, outcomes[0].ResultID)
	require.NoError(t, err)
	require.Equal(t, "héllo", row.Response)
}

func TestDispatchObserverSeesEveryOutcome(t *testing.T) {
	var mu sync.Mutex
	var seen []models.DispatchOutcome
	observer := func(outcome models.DispatchOutcome) {
		mu.Lock()
		seen = append(seen, outcome)
		mu.Unlock()
	}

	env := newTestEnv(t, WithObserver(observer))
	ctx := context.Background()

	env.addProvider(t, "first")
	env.addProvider(t, "second")
	prompt := env.addPrompt(t, "observe me")

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	for _, outcome := range seen {
		// Observer fires after persistence, so the row ID is already set.
		require.NotZero(t, outcome.ResultID)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		text string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, "hello"},
	}
	for _, tc := range cases {
		if got := truncate(tc.text, tc.max); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.text, tc.max, got, tc.want)
		}
	}
}

func TestDispatchConcurrency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 8
	for i := 0; i < n; i++ {
		env.addProvider(t, fmt.Sprintf("p%02d", i))
	}
	prompt := env.addPrompt(t, "all at once")

	// Every call blocks until all n are in flight; a sequential engine
	// would deadlock here, so guard with a timeout.
	var ready sync.WaitGroup
	ready.Add(n)
	release := make(chan struct{})
	go func() {
		ready.Wait()
		close(release)
	}()

	env.transport.reply = func(callCtx context.Context, req llm.Request) (string, error) {
		ready.Done()
		select {
		case <-release:
			return "done", nil
		case <-time.After(5 * time.Second):
			return "", errors.New("providers were not called concurrently")
		}
	}

	outcomes, err := env.services.Dispatch.Dispatch(ctx, prompt.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, n)
	for _, outcome := range outcomes {
		require.Equal(t, models.OutcomeSuccess, outcome.Status)
	}
}
