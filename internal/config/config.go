package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSystemPrompt describes the two built-in tools and the required
// output shape. It is used when no prompt is configured.
const DefaultSystemPrompt = `You have two tools you can call:
1) post_call - Fetch a post. Args schema: {"post_id": <integer>}.
2) comments_call - Fetch comments for a post. Args schema: {"post_id": <integer>}.

When the user asks for information:
- Output *only* valid JSON with exactly keys "tool" and "args".
- "tool" must be either "post_call" or "comments_call".
- "args" must follow the schema above.

Do not output any extra text, only the JSON.`

// Config represents the main mcpgate configuration
type Config struct {
	// Model endpoint
	LLM LLMConfig `json:"llm" mapstructure:"llm"`

	// HTTP server and self-dispatch address
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Tool endpoints
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Leaf adapters
	Adapters AdaptersConfig `json:"adapters" mapstructure:"adapters"`

	// System prompt
	Prompt PromptConfig `json:"prompt" mapstructure:"prompt"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Tracing
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`

	// Directory holding the PID file, default $HOME/.mcpgate
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// LLMConfig holds model endpoint configuration
type LLMConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // ollama, openai, anthropic
	BaseURL  string `json:"base_url" mapstructure:"base_url"`
	Model    string `json:"model" mapstructure:"model"`
	APIKey   string `json:"api_key" mapstructure:"api_key"`
	Timeout  int    `json:"timeout" mapstructure:"timeout"` // seconds
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	LocalBase          string `json:"local_base" mapstructure:"local_base"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	ShutdownTimeout    int    `json:"shutdown_timeout" mapstructure:"shutdown_timeout"` // seconds
}

// ToolsConfig holds tool endpoint paths and the dispatch timeout
type ToolsConfig struct {
	PostPath     string `json:"post_path" mapstructure:"post_path"`
	CommentsPath string `json:"comments_path" mapstructure:"comments_path"`
	Timeout      int    `json:"timeout" mapstructure:"timeout"` // seconds
}

// AdaptersConfig holds upstream addresses of the leaf adapters
type AdaptersConfig struct {
	JSONPlaceholderBaseURL string `json:"jsonplaceholder_base_url" mapstructure:"jsonplaceholder_base_url"`
	BookingURL             string `json:"booking_url" mapstructure:"booking_url"`
	Timeout                int    `json:"timeout" mapstructure:"timeout"` // seconds
}

// PromptConfig selects the system prompt. System wins over File.
type PromptConfig struct {
	System string `json:"system" mapstructure:"system"`
	File   string `json:"file" mapstructure:"file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://host.docker.internal:11434",
			Model:    "mistral",
			Timeout:  60,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			LocalBase:          "http://127.0.0.1:8080",
			RateLimitPerMinute: 60,
			ShutdownTimeout:    30,
		},
		Tools: ToolsConfig{
			PostPath:     "post-call",
			CommentsPath: "comments-call",
			Timeout:      30,
		},
		Adapters: AdaptersConfig{
			JSONPlaceholderBaseURL: "https://jsonplaceholder.typicode.com",
			BookingURL:             "",
			Timeout:                5,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Tracing: TracingConfig{
			Enabled:     true,
			ServiceName: "mcp-server",
		},
	}
}

// TimeoutDuration returns the model call timeout
func (c LLMConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TimeoutDuration returns the tool dispatch timeout
func (c ToolsConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TimeoutDuration returns the upstream timeout of the leaf adapters
func (c AdaptersConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// ShutdownTimeoutDuration returns the graceful shutdown timeout
func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PIDFile returns the path of the service PID file
func (c *Config) PIDFile() string {
	dir := c.DataDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "mcpgate.pid")
		}
		dir = filepath.Join(home, ".mcpgate")
	}
	return filepath.Join(dir, "mcpgate.pid")
}

// ToolPaths returns the canonical tool name to endpoint path table.
func (c *Config) ToolPaths() map[string]string {
	return map[string]string{
		"post_call":     strings.Trim(c.Tools.PostPath, "/"),
		"comments_call": strings.Trim(c.Tools.CommentsPath, "/"),
	}
}

// SystemPrompt returns the configured system prompt, the contents of the
// prompt file, or DefaultSystemPrompt when neither is usable.
func (c *Config) SystemPrompt() string {
	if s := strings.TrimSpace(c.Prompt.System); s != "" {
		return s
	}
	if c.Prompt.File != "" {
		data, err := os.ReadFile(c.Prompt.File)
		if err == nil {
			if s := strings.TrimSpace(string(data)); s != "" {
				return s
			}
		}
	}
	return DefaultSystemPrompt
}

// String returns a JSON representation of the config with secrets masked
func (c *Config) String() string {
	masked := *c
	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = "********"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
