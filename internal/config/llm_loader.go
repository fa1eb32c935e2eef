package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/josephgoksu/TodoChat/internal/validation"
	"github.com/josephgoksu/TodoChat/types"
	"github.com/spf13/viper"
)

// Load unmarshals the whole configuration and validates it.
func Load() (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.Todoist.Token = ResolveTodoistToken()
	if cfg.Session.Dir == "" {
		cfg.Session.Dir = GetDataDir()
	}
	if err := validation.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadLLMConfig loads LLM configuration from Viper and Environment variables.
// It handles precedence: Explicit Viper Config > Environment Variables > Defaults.
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	if provider == "" {
		provider = llm.DefaultProvider
	}
	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = llm.DefaultModelForProvider(string(llmProvider))
	}

	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" && llmProvider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	timeout := llm.DefaultTimeout
	if secs := viper.GetInt("llm.timeoutSeconds"); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	// A missing key is reported by llm.NewChatModel; Ollama needs none.
	return llm.Config{
		Provider: llmProvider,
		Model:    model,
		APIKey:   ResolveAPIKey(llmProvider),
		BaseURL:  baseURL,
		Timeout:  timeout,
	}, nil
}

// ResolveAPIKey returns the best API key for the given provider using
// per-provider config keys, provider-specific env vars, then legacy config.
func ResolveAPIKey(provider llm.Provider) string {
	// 1) Per-provider config key (llm.apiKeys.<provider>)
	if key := keyFromViper(fmt.Sprintf("llm.apiKeys.%s", provider)); key != "" {
		return key
	}

	envKey := providerEnvKey(provider)

	// OpenAI: allow legacy key; others: ignore legacy to avoid wrong-key usage.
	if provider == llm.ProviderOpenAI {
		if legacy := keyFromViper("llm.apiKey"); legacy != "" {
			return legacy
		}
	}
	return envKey
}

// ResolveTodoistToken returns todoist.token, falling back to TODOIST_API_TOKEN.
func ResolveTodoistToken() string {
	if token := keyFromViper("todoist.token"); token != "" {
		return token
	}
	return strings.TrimSpace(os.Getenv(TodoistTokenEnv))
}

func keyFromViper(path string) string {
	if viper.IsSet(path) {
		return strings.TrimSpace(viper.GetString(path))
	}
	return ""
}

func providerEnvKey(provider llm.Provider) string {
	name := llm.EnvKeyForProvider(string(provider))
	if name == "" {
		return ""
	}
	key := strings.TrimSpace(os.Getenv(name))
	if key == "" && provider == llm.ProviderGemini {
		key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	return key
}
