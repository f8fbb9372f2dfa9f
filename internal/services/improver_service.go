package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"

	"chatlist/internal/llm"
	"chatlist/internal/models"
)

// ErrImproverDisabled reports that the improver feature is switched off in
// settings.
var ErrImproverDisabled = errors.New("prompt improver is disabled")

// ErrImproverModelNotSet reports that no provider is configured to run
// improvement requests.
var ErrImproverModelNotSet = errors.New("prompt improver model is not configured")

// Improvement is the parsed output of one improvement request.
type Improvement struct {
	Improved     string            `json:"improved"`
	Alternatives []string          `json:"alternatives"`
	Adaptations  map[string]string `json:"adaptations"`
}

// ImproverService rewrites a user prompt through a configured provider,
// asking for a sharper version plus alternatives and task-specific
// adaptations.
type ImproverService interface {
	Improve(ctx context.Context, promptText string) (*Improvement, error)
}

type improverService struct {
	providers ProviderService
	settings  SettingsService
	transport llm.Transport
}

func NewImproverService(providers ProviderService, settings SettingsService, transport llm.Transport) ImproverService {
	return &improverService{providers: providers, settings: settings, transport: transport}
}

const improverInstructions = `You are an expert at improving prompts for AI models. Improve the following prompt, making it clearer, more specific, and more effective.

Original prompt:
%s

Reply strictly in this JSON format:
{
    "improved": "the improved prompt",
    "alternatives": ["first alternative", "second alternative", "third alternative"],
    "adaptations": {
        "code": "a version for programming tasks",
        "analysis": "a version for analytical tasks",
        "creative": "a version for creative tasks"
    }
}

If the original prompt is already good, you may keep it nearly unchanged, but still provide alternatives and adaptations.`

func (s *improverService) Improve(ctx context.Context, promptText string) (*Improvement, error) {
	promptText = strings.TrimSpace(promptText)
	if promptText == "" {
		return nil, fmt.Errorf("prompt text is required")
	}

	enabled, err := s.settings.Get(ctx, models.SettingPromptImproverEnabled)
	if err != nil {
		return nil, err
	}
	if on, convErr := strconv.ParseBool(enabled); convErr != nil || !on {
		return nil, ErrImproverDisabled
	}

	rawID, err := s.settings.Get(ctx, models.SettingPromptImproverModel)
	if err != nil {
		return nil, err
	}
	providerID, convErr := strconv.ParseUint(strings.TrimSpace(rawID), 10, 64)
	if convErr != nil || providerID == 0 {
		return nil, ErrImproverModelNotSet
	}

	provider, err := s.providers.Get(ctx, uint(providerID))
	if err != nil {
		return nil, err
	}
	apiKey, err := s.providers.ResolveCredential(provider)
	if err != nil {
		return nil, err
	}

	policy, err := s.settings.Policy(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	response, err := s.transport.Send(callCtx, llm.Request{
		EndpointURL: provider.APIURL,
		Model:       provider.RequestModel(),
		APIKey:      apiKey,
		Prompt:      fmt.Sprintf(improverInstructions, promptText),
		TLSVerify:   policy.TLSVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("improvement request: %w", err)
	}

	return parseImprovement(response)
}

var fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseImprovement extracts the improvement JSON from a model response.
// Models wrap JSON in markdown fences or prose and frequently emit broken
// JSON, so candidates go through jsonrepair before decoding; a response with
// no JSON at all is treated as a bare improved prompt.
func parseImprovement(response string) (*Improvement, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var candidates []string
	if match := fencedJSON.FindStringSubmatch(response); match != nil {
		candidates = append(candidates, match[1])
	}
	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		candidates = append(candidates, response[start:end+1])
	}

	for _, candidate := range candidates {
		improvement, err := decodeImprovement(candidate)
		if err == nil {
			return improvement, nil
		}
		log.Debug().Err(err).Msg("improvement candidate did not decode")
	}

	// No usable JSON: take the whole response as the improved prompt.
	return &Improvement{Improved: response}, nil
}

func decodeImprovement(candidate string) (*Improvement, error) {
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		repaired = candidate
	}

	var improvement Improvement
	if err := json.Unmarshal([]byte(repaired), &improvement); err != nil {
		return nil, err
	}
	return normalizeImprovement(&improvement)
}

func normalizeImprovement(improvement *Improvement) (*Improvement, error) {
	improvement.Improved = strings.TrimSpace(improvement.Improved)

	alternatives := make([]string, 0, len(improvement.Alternatives))
	for _, alt := range improvement.Alternatives {
		if alt = strings.TrimSpace(alt); alt != "" {
			alternatives = append(alternatives, alt)
		}
	}
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}
	improvement.Alternatives = alternatives

	adaptations := make(map[string]string)
	for _, key := range []string{"code", "analysis", "creative"} {
		if value := strings.TrimSpace(improvement.Adaptations[key]); value != "" {
			adaptations[key] = value
		}
	}
	improvement.Adaptations = adaptations

	if improvement.Improved == "" && len(improvement.Alternatives) == 0 && len(improvement.Adaptations) == 0 {
		return nil, fmt.Errorf("improvement payload is empty")
	}
	return improvement, nil
}
