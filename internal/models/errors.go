package models

import "errors"

// Structural errors surfaced synchronously by stores and services.
// Per-provider call failures are never returned as errors from a dispatch;
// they become failure outcomes instead.
var (
	ErrPromptNotFound   = errors.New("prompt not found")
	ErrProviderNotFound = errors.New("provider not found")
	ErrResultNotFound   = errors.New("result not found")

	// ErrProviderInUse blocks deletion of a provider that still has results
	// referencing it. Deactivate the provider instead.
	ErrProviderInUse = errors.New("provider has stored results and cannot be deleted")
)
