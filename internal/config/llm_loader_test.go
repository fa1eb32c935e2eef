package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViperForTest(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", TodoistTokenEnv, "XDG_DATA_HOME"} {
		t.Setenv(env, "")
	}
}

func TestLoadLLMConfig_Defaults(t *testing.T) {
	resetViperForTest(t)
	SetDefaults()
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.Provider(llm.ProviderOpenAI), cfg.Provider)
	assert.Equal(t, llm.DefaultModelForProvider(llm.ProviderOpenAI), cfg.Model)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, llm.DefaultTimeout, cfg.Timeout)
}

func TestLoadLLMConfig_Ollama(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "ollama")
	viper.Set("llm.timeoutSeconds", 90)

	cfg, err := LoadLLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultOllamaURL, cfg.BaseURL)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}

func TestLoadLLMConfig_InvalidProvider(t *testing.T) {
	resetViperForTest(t)
	viper.Set("llm.provider", "bedrock")

	_, err := LoadLLMConfig()
	assert.ErrorContains(t, err, "invalid provider")
}

func TestResolveAPIKey_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		setup    func(t *testing.T)
		want     string
	}{
		{
			name:     "per-provider key wins",
			provider: llm.ProviderOpenAI,
			setup: func(t *testing.T) {
				viper.Set("llm.apiKeys.openai", " sk-config ")
				viper.Set("llm.apiKey", "sk-legacy")
				t.Setenv("OPENAI_API_KEY", "sk-env")
			},
			want: "sk-config",
		},
		{
			name:     "openai legacy key before env",
			provider: llm.ProviderOpenAI,
			setup: func(t *testing.T) {
				viper.Set("llm.apiKey", "sk-legacy")
				t.Setenv("OPENAI_API_KEY", "sk-env")
			},
			want: "sk-legacy",
		},
		{
			name:     "legacy key ignored for anthropic",
			provider: llm.ProviderAnthropic,
			setup: func(t *testing.T) {
				viper.Set("llm.apiKey", "sk-legacy")
				t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
			},
			want: "sk-ant",
		},
		{
			name:     "gemini falls back to GOOGLE_API_KEY",
			provider: llm.ProviderGemini,
			setup: func(t *testing.T) {
				t.Setenv("GOOGLE_API_KEY", "g-key")
			},
			want: "g-key",
		},
		{
			name:     "ollama has no key",
			provider: llm.ProviderOllama,
			setup:    func(t *testing.T) { t.Setenv("OPENAI_API_KEY", "sk-env") },
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViperForTest(t)
			tt.setup(t)
			assert.Equal(t, tt.want, ResolveAPIKey(tt.provider))
		})
	}
}

func TestResolveTodoistToken(t *testing.T) {
	resetViperForTest(t)
	t.Setenv(TodoistTokenEnv, "env-token")
	assert.Equal(t, "env-token", ResolveTodoistToken())

	viper.Set("todoist.token", "config-token")
	assert.Equal(t, "config-token", ResolveTodoistToken())
}

func TestLoad(t *testing.T) {
	resetViperForTest(t)
	SetDefaults()
	dir := t.TempDir()
	viper.Set("session.dir", dir)
	t.Setenv(TodoistTokenEnv, "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Todoist.Token)
	assert.Equal(t, "rest", cfg.Todoist.Backend)
	assert.Equal(t, 500, cfg.Todoist.MinIntervalMs)
	assert.Equal(t, DefaultSessionKey, cfg.Session.Key)
	assert.Equal(t, dir, cfg.Session.Dir)
	assert.InDelta(t, 0.7, cfg.Intent.Threshold, 1e-9)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	resetViperForTest(t)
	SetDefaults()
	viper.Set("session.dir", t.TempDir())

	viper.Set("intent.threshold", 1.5)
	_, err := Load()
	assert.ErrorContains(t, err, "invalid config")

	viper.Set("intent.threshold", 0.7)
	viper.Set("todoist.backend", "proxy")
	_, err = Load()
	assert.Error(t, err, "proxy backend without proxyURL")

	viper.Set("todoist.proxyURL", "http://localhost:3000/api/todoist")
	_, err = Load()
	assert.NoError(t, err)
}

func TestGetDataDir(t *testing.T) {
	resetViperForTest(t)
	orig := GetGlobalConfigDir
	t.Cleanup(func() { GetGlobalConfigDir = orig })
	GetGlobalConfigDir = func() (string, error) { return "/home/u/.todochat", nil }

	assert.Equal(t, filepath.Join("/home/u/.todochat", "data"), GetDataDir())

	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "todochat"), GetDataDir())

	viper.Set("session.dir", "/explicit")
	assert.Equal(t, "/explicit", GetDataDir())
	assert.Equal(t, filepath.Join("/explicit", "crashes"), GetCrashLogDir())
}
