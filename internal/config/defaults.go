package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero
// values. Missing keys are left at their default values.
type Config struct {
	Provider  ProviderConfig  `json:"provider"`
	Assistant AssistantConfig `json:"assistant"`
	Workspace WorkspaceConfig `json:"workspace"`
}

type ProviderConfig struct {
	// Name selects the backend: "gemini" or "openai".
	Name string `json:"name"`

	// Model is the provider-specific model identifier.
	Model string `json:"model"`

	// BaseURL overrides the API endpoint (OpenAI-compatible backends).
	BaseURL string `json:"base_url"`
}

type AssistantConfig struct {
	SystemPrompt     string `json:"system_prompt"`
	EnableMemory     bool   `json:"enable_memory"`
	SummarizeHistory bool   `json:"summarize_history"`
	Stream           bool   `json:"stream"`

	// ContextLimit caps the trailing history messages per round, 0 = all.
	ContextLimit int `json:"context_limit"`

	// MaxSteps bounds the generation loop, 0 = orchestrator default.
	MaxSteps int `json:"max_steps"`
}

type WorkspaceConfig struct {
	// Root is the base directory for per-conversation sandboxes.
	Root string `json:"root"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:  "gemini",
			Model: "gemini-2.0-flash-exp",
		},
		Assistant: AssistantConfig{
			SystemPrompt: "You are a helpful assistant.",
			Stream:       true,
		},
		Workspace: WorkspaceConfig{
			Root: "",
		},
	}
}
