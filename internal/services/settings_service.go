package services

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"chatlist/internal/models"
	"chatlist/internal/repositories"
)

// Fallbacks used when a configured value is missing or unparsable. A bad
// value is logged and replaced, never propagated as a dispatch failure.
const (
	fallbackTimeout           = 30 * time.Second
	fallbackMaxResponseLength = 10000
	fallbackTLSVerify         = true
)

// DispatchPolicy is a point-in-time snapshot of the settings a dispatch
// applies to every provider call. Snapshotting once per dispatch keeps a
// mid-dispatch settings change from affecting in-flight calls.
type DispatchPolicy struct {
	Timeout           time.Duration
	MaxResponseLength int
	TLSVerify         bool
}

type SettingsService interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	Policy(ctx context.Context) (DispatchPolicy, error)
}

type settingsService struct {
	repo repositories.SettingsRepository
}

func NewSettingsService(repo repositories.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// Get returns the stored value, falling back to the seeded default for
// recognized keys and the empty string for unknown ones.
func (s *settingsService) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, key, defaultFor(key))
}

func (s *settingsService) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, key, value)
}

func (s *settingsService) All(ctx context.Context) (map[string]string, error) {
	return s.repo.All(ctx)
}

func (s *settingsService) Policy(ctx context.Context) (DispatchPolicy, error) {
	policy := DispatchPolicy{
		Timeout:           fallbackTimeout,
		MaxResponseLength: fallbackMaxResponseLength,
		TLSVerify:         fallbackTLSVerify,
	}

	raw, err := s.repo.Get(ctx, models.SettingDefaultTimeout, "")
	if err != nil {
		return policy, err
	}
	if seconds, convErr := strconv.Atoi(raw); convErr == nil && seconds > 0 {
		policy.Timeout = time.Duration(seconds) * time.Second
	} else if raw != "" {
		log.Warn().Str("key", models.SettingDefaultTimeout).Str("value", raw).
			Msg("invalid timeout setting, using fallback")
	}

	raw, err = s.repo.Get(ctx, models.SettingMaxResponseLength, "")
	if err != nil {
		return policy, err
	}
	if length, convErr := strconv.Atoi(raw); convErr == nil && length > 0 {
		policy.MaxResponseLength = length
	} else if raw != "" {
		log.Warn().Str("key", models.SettingMaxResponseLength).Str("value", raw).
			Msg("invalid max response length setting, using fallback")
	}

	raw, err = s.repo.Get(ctx, models.SettingTLSVerify, "")
	if err != nil {
		return policy, err
	}
	if verify, convErr := strconv.ParseBool(raw); convErr == nil {
		policy.TLSVerify = verify
	} else if raw != "" {
		log.Warn().Str("key", models.SettingTLSVerify).Str("value", raw).
			Msg("invalid tls verify setting, using fallback")
	}

	return policy, nil
}

func defaultFor(key string) string {
	for _, setting := range models.DefaultSettings() {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
