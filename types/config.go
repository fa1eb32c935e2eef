/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose bool          `mapstructure:"verbose" yaml:"verbose"`
	Config  string        `mapstructure:"config" yaml:"config,omitempty"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Todoist TodoistConfig `mapstructure:"todoist" yaml:"todoist"`
	Intent  IntentConfig  `mapstructure:"intent" yaml:"intent"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LLMConfig holds configuration for the intent LLM
type LLMConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	Model    string `mapstructure:"model" yaml:"model"`
	APIKey   string `mapstructure:"apiKey" yaml:"apiKey,omitempty"`
	BaseURL  string `mapstructure:"baseURL" yaml:"baseURL,omitempty"`
	// Mode selects the transport: "eino" talks to the provider directly, "proxy" posts to ProxyURL.
	Mode           string `mapstructure:"mode" yaml:"mode" validate:"required,oneof=eino proxy"`
	ProxyURL       string `mapstructure:"proxyURL" yaml:"proxyURL,omitempty" validate:"required_if=Mode proxy,omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds" validate:"omitempty,min=5,max=600"`
}

// TodoistConfig holds task store settings
type TodoistConfig struct {
	Token   string `mapstructure:"token" yaml:"token,omitempty"`
	BaseURL string `mapstructure:"baseURL" yaml:"baseURL" validate:"omitempty,url"`
	// Backend is "rest" for the Todoist REST API or "proxy" for an envelope-speaking proxy.
	Backend        string `mapstructure:"backend" yaml:"backend" validate:"required,oneof=rest proxy"`
	ProxyURL       string `mapstructure:"proxyURL" yaml:"proxyURL,omitempty" validate:"required_if=Backend proxy,omitempty,url"`
	MinIntervalMs  int    `mapstructure:"minIntervalMs" yaml:"minIntervalMs" validate:"min=0,max=60000"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds" validate:"omitempty,min=1,max=300"`
}

// IntentConfig controls intent recognition
type IntentConfig struct {
	Mode            string  `mapstructure:"mode" yaml:"mode" validate:"required,oneof=llm heuristic"`
	Threshold       float64 `mapstructure:"threshold" yaml:"threshold" validate:"min=0,max=1"`
	ContextMessages int     `mapstructure:"contextMessages" yaml:"contextMessages" validate:"min=0,max=50"`
}

// SessionConfig controls conversation persistence
type SessionConfig struct {
	Store       string `mapstructure:"store" yaml:"store" validate:"required,oneof=memory file sqlite redis"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	RedisURL    string `mapstructure:"redisURL" yaml:"redisURL,omitempty" validate:"required_if=Store redis"`
	Key         string `mapstructure:"key" yaml:"key" validate:"required"`
	MaxMessages int    `mapstructure:"maxMessages" yaml:"maxMessages" validate:"min=1,max=1000"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	// Output is stdout, stderr or a file path.
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr,omitempty"`
}
