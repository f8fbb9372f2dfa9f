package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chatlist/internal/llm"
	"chatlist/internal/models"
	"chatlist/internal/repositories"
)

// DispatchService fans one prompt out to every active provider, one
// concurrent call each, and records every outcome as its own result row.
type DispatchService interface {
	Dispatch(ctx context.Context, promptID uint) ([]models.DispatchOutcome, error)
}

// DispatchOption configures optional engine behavior.
type DispatchOption func(*dispatchService)

// WithObserver registers a callback invoked once per outcome as it resolves,
// before Dispatch returns. Callbacks run on the per-provider goroutine and
// must be safe for concurrent use.
func WithObserver(fn func(models.DispatchOutcome)) DispatchOption {
	return func(s *dispatchService) { s.observer = fn }
}

type dispatchService struct {
	prompts   repositories.PromptRepository
	results   repositories.ResultRepository
	providers ProviderService
	settings  SettingsService
	transport llm.Transport
	observer  func(models.DispatchOutcome)
}

func NewDispatchService(
	prompts repositories.PromptRepository,
	results repositories.ResultRepository,
	providers ProviderService,
	settings SettingsService,
	transport llm.Transport,
	opts ...DispatchOption,
) DispatchService {
	s := &dispatchService{
		prompts:   prompts,
		results:   results,
		providers: providers,
		settings:  settings,
		transport: transport,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch sends the prompt to all active providers concurrently and returns
// once every call has resolved. Zero active providers is a valid state and
// yields an empty outcome list. Per-provider failures never fail the batch;
// canceling ctx cancels still-running calls while already-persisted rows
// remain.
func (s *dispatchService) Dispatch(ctx context.Context, promptID uint) ([]models.DispatchOutcome, error) {
	prompt, err := s.prompts.GetByID(ctx, promptID)
	if err != nil {
		return nil, err
	}

	providers, err := s.providers.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return []models.DispatchOutcome{}, nil
	}

	// One policy snapshot shared by every call in this dispatch; a setting
	// change mid-dispatch does not affect in-flight calls.
	policy, err := s.settings.Policy(ctx)
	if err != nil {
		return nil, err
	}

	dispatchID := uuid.NewString()
	log.Info().
		Str("dispatch_id", dispatchID).
		Uint("prompt_id", prompt.ID).
		Int("providers", len(providers)).
		Dur("timeout", policy.Timeout).
		Msg("dispatching prompt")

	outcomeCh := make(chan models.DispatchOutcome, len(providers))
	var wg sync.WaitGroup
	for _, provider := range providers {
		wg.Add(1)
		go func(provider models.Provider) {
			defer wg.Done()
			outcome := s.callProvider(ctx, dispatchID, prompt, provider, policy)
			s.persist(ctx, prompt.ID, &outcome)
			if s.observer != nil {
				s.observer(outcome)
			}
			outcomeCh <- outcome
		}(provider)
	}
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]models.DispatchOutcome, 0, len(providers))
	for outcome := range outcomeCh {
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// callProvider runs one provider call under its own deadline. The deadline
// starts when the task begins and covers credential resolution and the
// network call alike, so every provider gets the same total budget.
func (s *dispatchService) callProvider(
	ctx context.Context,
	dispatchID string,
	prompt *models.Prompt,
	provider models.Provider,
	policy DispatchPolicy,
) models.DispatchOutcome {
	outcome := models.DispatchOutcome{
		DispatchID:   dispatchID,
		ProviderID:   provider.ID,
		ProviderName: provider.Name,
	}
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	apiKey, err := s.providers.ResolveCredential(&provider)
	if err != nil {
		outcome.Status = models.OutcomeFailure
		outcome.FailureKind = models.FailureMissingCredential
		outcome.Detail = err.Error()
		outcome.Elapsed = time.Since(start)
		log.Warn().
			Str("dispatch_id", dispatchID).
			Str("provider", provider.Name).
			Msg("credential missing, skipping network call")
		return outcome
	}

	response, err := s.transport.Send(callCtx, llm.Request{
		EndpointURL: provider.APIURL,
		Model:       provider.RequestModel(),
		APIKey:      apiKey,
		Prompt:      prompt.Text,
		TLSVerify:   policy.TLSVerify,
	})
	outcome.Elapsed = time.Since(start)

	if err != nil {
		outcome.Status = models.OutcomeFailure
		outcome.Detail = err.Error()
		switch {
		case errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded:
			outcome.FailureKind = models.FailureTimeout
		case errors.Is(err, context.Canceled) || callCtx.Err() == context.Canceled:
			outcome.FailureKind = models.FailureCanceled
		default:
			outcome.FailureKind = models.FailureNetwork
		}
		log.Warn().
			Str("dispatch_id", dispatchID).
			Str("provider", provider.Name).
			Str("kind", string(outcome.FailureKind)).
			Err(err).
			Msg("provider call failed")
		return outcome
	}

	outcome.Status = models.OutcomeSuccess
	outcome.Response = truncate(response, policy.MaxResponseLength)
	log.Info().
		Str("dispatch_id", dispatchID).
		Str("provider", provider.Name).
		Dur("elapsed", outcome.Elapsed).
		Int("response_chars", len(outcome.Response)).
		Msg("provider call succeeded")
	return outcome
}

// persist writes one outcome as its own result row. The write is detached
// from the dispatch context so that a caller canceling mid-dispatch does not
// drop outcomes that already resolved. A write failure is reported on the
// outcome and never blocks other providers.
func (s *dispatchService) persist(ctx context.Context, promptID uint, outcome *models.DispatchOutcome) {
	record := &models.Result{
		PromptID:  promptID,
		ModelID:   outcome.ProviderID,
		Response:  outcome.Response,
		Status:    string(outcome.Status),
		ErrorKind: string(outcome.FailureKind),
	}
	if outcome.Status == models.OutcomeFailure {
		record.Response = outcome.Detail
	}

	if err := s.results.Create(context.WithoutCancel(ctx), record); err != nil {
		outcome.WriteErr = err.Error()
		log.Error().
			Str("dispatch_id", outcome.DispatchID).
			Uint("provider_id", outcome.ProviderID).
			Err(err).
			Msg("failed to store dispatch outcome")
		return
	}
	outcome.ResultID = record.ID
}

// truncate caps the stored response at max characters, counting runes so a
// multi-byte response is not cut mid-character.
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
