package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateProvider validates the model provider name
func (v *Validator) ValidateProvider(provider string) error {
	validProviders := []string{"ollama", "openai", "anthropic"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid llm provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateURL validates an absolute http(s) URL
func (v *Validator) ValidateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}

	return nil
}

// ValidateModel validates a model name
func (v *Validator) ValidateModel(model string) error {
	if model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	return nil
}

// ValidateTimeout validates a timeout in seconds
func (v *Validator) ValidateTimeout(field string, seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%s must be positive, got %d", field, seconds)
	}
	if seconds > 600 {
		return fmt.Errorf("%s too large (max 600 seconds), got %d", field, seconds)
	}
	return nil
}

// ValidatePort validates a TCP port
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateToolPath validates a tool endpoint path segment
func (v *Validator) ValidateToolPath(field, path string) error {
	path = strings.Trim(path, "/")
	if path == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if strings.ContainsAny(path, " ?#{}") {
		return fmt.Errorf("%s contains invalid characters: %q", field, path)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig validates the whole configuration and returns every problem found
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	// Validate model endpoint
	if err := v.ValidateProvider(cfg.LLM.Provider); err != nil {
		errors = append(errors, err)
	}
	if cfg.LLM.Provider == "ollama" || cfg.LLM.BaseURL != "" {
		if err := v.ValidateURL("llm.base_url", cfg.LLM.BaseURL); err != nil {
			errors = append(errors, err)
		}
	}
	if cfg.LLM.Provider != "ollama" && cfg.LLM.APIKey == "" {
		errors = append(errors, fmt.Errorf("llm.api_key is required for provider %s", cfg.LLM.Provider))
	}
	if err := v.ValidateModel(cfg.LLM.Model); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateTimeout("llm.timeout", cfg.LLM.Timeout); err != nil {
		errors = append(errors, err)
	}

	// Validate server
	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateURL("server.local_base", cfg.Server.LocalBase); err != nil {
		errors = append(errors, err)
	}
	if cfg.Server.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Errorf("server.rate_limit_per_minute must not be negative, got %d", cfg.Server.RateLimitPerMinute))
	}

	// Validate tools
	if err := v.ValidateToolPath("tools.post_path", cfg.Tools.PostPath); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateToolPath("tools.comments_path", cfg.Tools.CommentsPath); err != nil {
		errors = append(errors, err)
	}
	if strings.Trim(cfg.Tools.PostPath, "/") != "" &&
		strings.Trim(cfg.Tools.PostPath, "/") == strings.Trim(cfg.Tools.CommentsPath, "/") {
		errors = append(errors, fmt.Errorf("tools.post_path and tools.comments_path must differ, both are %q", strings.Trim(cfg.Tools.PostPath, "/")))
	}
	if err := v.ValidateTimeout("tools.timeout", cfg.Tools.Timeout); err != nil {
		errors = append(errors, err)
	}

	// Validate adapters
	if err := v.ValidateURL("adapters.jsonplaceholder_base_url", cfg.Adapters.JSONPlaceholderBaseURL); err != nil {
		errors = append(errors, err)
	}
	if cfg.Adapters.BookingURL != "" {
		if err := v.ValidateURL("adapters.booking_url", cfg.Adapters.BookingURL); err != nil {
			errors = append(errors, err)
		}
	}
	if err := v.ValidateTimeout("adapters.timeout", cfg.Adapters.Timeout); err != nil {
		errors = append(errors, err)
	}

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
