package llm

import (
	"fmt"
	"os"
	"sort"
)

// Provider names a supported LLM backend.
type Provider string

const (
	ProviderOpenAI  Provider = "openai"
	ProviderGemini  Provider = "gemini"
	ProviderOllama  Provider = "ollama"
	ProviderMistral Provider = "mistral"
)

// providerSpec describes how to reach one provider's OpenAI-compatible
// endpoint.
type providerSpec struct {
	defaultModel   string
	defaultBaseURL string
	apiKeyEnv      string
	baseURLEnv     string

	// keyOptional marks providers that run locally and accept any token.
	keyOptional bool
}

var providerSpecs = map[Provider]providerSpec{
	ProviderOpenAI: {
		defaultModel:   "gpt-4o",
		defaultBaseURL: "https://api.openai.com/v1",
		apiKeyEnv:      "OPENAI_API_KEY",
		baseURLEnv:     "OPENAI_BASE_URL",
	},
	ProviderGemini: {
		defaultModel:   "gemini-2.0-flash",
		defaultBaseURL: "https://generativelanguage.googleapis.com/v1beta/openai",
		apiKeyEnv:      "GEMINI_API_KEY",
		baseURLEnv:     "GEMINI_BASE_URL",
	},
	ProviderOllama: {
		defaultModel:   "llama3.1",
		defaultBaseURL: "http://localhost:11434/v1",
		apiKeyEnv:      "OLLAMA_API_KEY",
		baseURLEnv:     "OLLAMA_BASE_URL",
		keyOptional:    true,
	},
	ProviderMistral: {
		defaultModel:   "mistral-large-latest",
		defaultBaseURL: "https://api.mistral.ai/v1",
		apiKeyEnv:      "MISTRAL_API_KEY",
		baseURLEnv:     "MISTRAL_BASE_URL",
	},
}

// Providers lists the supported provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providerSpecs))
	for p := range providerSpecs {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}

// ClientOption configures provider client construction.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	apiKey  string
	baseURL string
}

// WithModel overrides the provider's default model.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAPIKey supplies a credential directly instead of reading the
// provider's environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *clientConfig) {
		if apiKey != "" {
			c.apiKey = apiKey
		}
	}
}

// WithBaseURL points the client at a custom OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewClient builds a completion client for the named provider. Credentials
// come from options first, then the provider's environment variable; only
// local providers may run without one.
func NewClient(provider Provider, opts ...ClientOption) (Client, error) {
	spec, ok := providerSpecs[provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q (supported: %v)", provider, Providers())
	}

	cfg := clientConfig{model: spec.defaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv(spec.apiKeyEnv)
	}
	if cfg.apiKey == "" {
		if !spec.keyOptional {
			return nil, fmt.Errorf("%s API key is required (set %s)", provider, spec.apiKeyEnv)
		}
		cfg.apiKey = "local"
	}

	if cfg.baseURL == "" {
		cfg.baseURL = os.Getenv(spec.baseURLEnv)
	}
	if cfg.baseURL == "" {
		cfg.baseURL = spec.defaultBaseURL
	}

	return newChatClient(provider, cfg), nil
}
