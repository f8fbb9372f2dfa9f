package services

import (
	"gorm.io/gorm"

	"chatlist/internal/llm"
	"chatlist/internal/repositories"
	"chatlist/internal/secrets"
)

// Services aggregates all domain services backed by the database, the secret
// resolver, and the outbound transport.
type Services struct {
	Settings  SettingsService
	Prompts   PromptService
	Providers ProviderService
	Results   ResultService
	Dispatch  DispatchService
	Export    ExportService
	Improver  ImproverService
}

// NewServices constructs the service container using repositories backed by
// db. The resolver and transport are the engine's two external
// collaborators; tests inject stubs for both.
func NewServices(db *gorm.DB, resolver secrets.Resolver, transport llm.Transport, opts ...DispatchOption) *Services {
	promptRepo := repositories.NewPromptRepository(db)
	providerRepo := repositories.NewProviderRepository(db)
	resultRepo := repositories.NewResultRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	settings := NewSettingsService(settingsRepo)
	prompts := NewPromptService(promptRepo)
	providers := NewProviderService(providerRepo, resolver)
	results := NewResultService(resultRepo)
	dispatch := NewDispatchService(promptRepo, resultRepo, providers, settings, transport, opts...)

	return &Services{
		Settings:  settings,
		Prompts:   prompts,
		Providers: providers,
		Results:   results,
		Dispatch:  dispatch,
		Export:    NewExportService(results, settings),
		Improver:  NewImproverService(providers, settings, transport),
	}
}
