package services

import (
	"context"
	"fmt"
	"strings"

	"chatlist/internal/models"
	"chatlist/internal/repositories"
	"chatlist/internal/secrets"
)

// ProviderService is the registry of configured model endpoints: which are
// eligible for dispatch and how to authenticate to each.
type ProviderService interface {
	Create(ctx context.Context, provider *models.Provider) (*models.Provider, error)
	Update(ctx context.Context, provider *models.Provider) error
	Get(ctx context.Context, id uint) (*models.Provider, error)
	List(ctx context.Context) ([]models.Provider, error)
	ListActive(ctx context.Context) ([]models.Provider, error)
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	ResolveCredential(provider *models.Provider) (string, error)
}

type providerService struct {
	repo     repositories.ProviderRepository
	resolver secrets.Resolver
}

func NewProviderService(repo repositories.ProviderRepository, resolver secrets.Resolver) ProviderService {
	return &providerService{repo: repo, resolver: resolver}
}

func (s *providerService) Create(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	if err := validateProvider(provider); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

func (s *providerService) Update(ctx context.Context, provider *models.Provider) error {
	if provider == nil || provider.ID == 0 {
		return fmt.Errorf("provider ID is required")
	}
	if err := validateProvider(provider); err != nil {
		return err
	}
	return s.repo.Update(ctx, provider)
}

func (s *providerService) Get(ctx context.Context, id uint) (*models.Provider, error) {
	if id == 0 {
		return nil, fmt.Errorf("provider ID is required")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *providerService) List(ctx context.Context) ([]models.Provider, error) {
	return s.repo.List(ctx)
}

func (s *providerService) ListActive(ctx context.Context) ([]models.Provider, error) {
	return s.repo.ListActive(ctx)
}

func (s *providerService) SetActive(ctx context.Context, id uint, active bool) error {
	if id == 0 {
		return fmt.Errorf("provider ID is required")
	}
	return s.repo.SetActive(ctx, id, active)
}

// Delete removes a provider with no stored results. A referenced provider
// surfaces models.ErrProviderInUse; deactivate it instead.
func (s *providerService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return fmt.Errorf("provider ID is required")
	}
	return s.repo.Delete(ctx, id)
}

// ResolveCredential looks up the provider's API key by its credential key.
// A missing secret returns secrets.ErrNotFound; no network call should be
// attempted in that case.
func (s *providerService) ResolveCredential(provider *models.Provider) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("provider is required")
	}
	key := strings.TrimSpace(provider.CredentialKey)
	if key == "" {
		return "", secrets.ErrNotFound
	}
	return s.resolver.Resolve(key)
}

func validateProvider(provider *models.Provider) error {
	if provider == nil {
		return fmt.Errorf("provider is required")
	}
	provider.Name = strings.TrimSpace(provider.Name)
	provider.APIURL = strings.TrimSpace(provider.APIURL)
	provider.CredentialKey = strings.TrimSpace(provider.CredentialKey)
	provider.ModelName = strings.TrimSpace(provider.ModelName)

	if provider.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if provider.APIURL == "" {
		return fmt.Errorf("provider API URL is required")
	}
	if provider.CredentialKey == "" {
		return fmt.Errorf("provider credential key is required")
	}
	return nil
}
