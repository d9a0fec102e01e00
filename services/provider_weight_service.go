// services/provider_weight_service.go
package services

import "strings"

type providerWeightService struct {
	overrides map[string]float64
}

// NewProviderWeightService creates the market-weight lookup. Overrides from
// configuration take precedence over the built-in defaults; pass nil to use
// the defaults alone.
func NewProviderWeightService(overrides map[string]float64) ProviderWeightService {
	return &providerWeightService{overrides: overrides}
}

// Market-importance multiplier per provider family. The values reflect
// relative answer-surface reach, not model quality.
var providerWeights = map[string]float64{
	"openai":     1.00,
	"anthropic":  0.85,
	"gemini":     0.80,
	"perplexity": 0.65,
	"aioverview": 0.90,
}

const defaultProviderWeight = 0.50

func (s *providerWeightService) GetWeight(provider string) float64 {
	key := s.getProviderKey(provider)
	if s.overrides != nil {
		if weight, exists := s.overrides[key]; exists {
			return weight
		}
	}
	if weight, exists := providerWeights[key]; exists {
		return weight
	}
	return defaultProviderWeight
}

func (s *providerWeightService) getProviderKey(provider string) string {
	provider = strings.ToLower(provider)
	if strings.Contains(provider, "openai") || strings.Contains(provider, "gpt") || strings.Contains(provider, "chatgpt") {
		return "openai"
	}
	if strings.Contains(provider, "anthropic") || strings.Contains(provider, "claude") {
		return "anthropic"
	}
	if strings.Contains(provider, "gemini") || strings.Contains(provider, "google") {
		return "gemini"
	}
	if strings.Contains(provider, "perplexity") || strings.Contains(provider, "sonar") {
		return "perplexity"
	}
	if strings.Contains(provider, "overview") {
		return "aioverview"
	}
	return provider
}
