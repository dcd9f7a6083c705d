package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider.Name {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Sprintf("provider.name must be \"gemini\" or \"openai\", got %q", c.Provider.Name))
	}
	if c.Provider.Model == "" {
		errs = append(errs, "provider.model must not be empty")
	}

	if c.Assistant.ContextLimit < 0 {
		errs = append(errs, "assistant.context_limit must be >= 0")
	}
	if c.Assistant.MaxSteps < 0 {
		errs = append(errs, "assistant.max_steps must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
