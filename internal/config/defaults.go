// Package config resolves TodoChat configuration from viper (flags, config
// file, TODOCHAT_* environment) and the provider-specific environment variables.
package config

import (
	"github.com/josephgoksu/TodoChat/internal/conversation"
	"github.com/josephgoksu/TodoChat/internal/intent"
	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TODOCHAT_LOG_LEVEL.
const EnvPrefix = "TODOCHAT"

// DefaultSessionKey is the key the conversation context is stored under.
const DefaultSessionKey = "todochat:conversation"

// TodoistTokenEnv is the conventional environment variable for the Todoist API token.
const TodoistTokenEnv = "TODOIST_API_TOKEN"

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("llm.provider", llm.DefaultProvider)
	viper.SetDefault("llm.mode", "eino")
	viper.SetDefault("llm.timeoutSeconds", int(llm.DefaultTimeout.Seconds()))

	viper.SetDefault("todoist.backend", "rest")
	viper.SetDefault("todoist.baseURL", todoist.DefaultBaseURL)
	viper.SetDefault("todoist.minIntervalMs", int(todoist.DefaultMinInterval.Milliseconds()))
	viper.SetDefault("todoist.timeoutSeconds", 15)

	viper.SetDefault("intent.mode", "llm")
	viper.SetDefault("intent.threshold", intent.DefaultThreshold)
	viper.SetDefault("intent.contextMessages", intent.DefaultContextMessages)

	viper.SetDefault("session.store", "file")
	viper.SetDefault("session.key", DefaultSessionKey)
	viper.SetDefault("session.maxMessages", conversation.DefaultMaxMessages)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stderr")
}
