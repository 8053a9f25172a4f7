package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WorldConfig identifies the bot bridge endpoint and the identity the agent
// presents during the hello handshake.
type WorldConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username"`
	ProtocolVersion string `yaml:"protocol_version"`
}

// LLMConfig selects the language-model backend used by the command parser.
// The credential itself is never stored here; it comes from the environment
// (GEMINI_API_KEY) and its presence is a hard startup precondition for the
// gemini backend.
type LLMConfig struct {
	Backend     string  `yaml:"backend"` // "gemini" or "ollama"
	Model       string  `yaml:"model"`
	OllamaHost  string  `yaml:"ollama_host"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	TimeoutMs   int     `yaml:"timeout_ms"`
}

type Config struct {
	World WorldConfig `yaml:"world"`
	LLM   LLMConfig   `yaml:"llm"`
	// LogFile is where the runtime log goes. Defaults to agent.log.
	LogFile string `yaml:"log_file"`
}

const (
	defaultPort       = 8765
	defaultUsername   = "blockmate"
	defaultProtocol   = "1.0"
	defaultMaxTokens  = 1024
	defaultTimeoutMs  = 20000
	defaultLogFile    = "agent.log"
	defaultLLMBackend = "gemini"
)

// Load reads the YAML config file and fills in defaults for anything the
// file leaves out. A missing file is not an error: the defaults alone are a
// runnable configuration for a local bridge.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.World.Host == "" {
		c.World.Host = "localhost"
	}
	if c.World.Port == 0 {
		c.World.Port = defaultPort
	}
	if c.World.Username == "" {
		c.World.Username = defaultUsername
	}
	if c.World.ProtocolVersion == "" {
		c.World.ProtocolVersion = defaultProtocol
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = defaultLLMBackend
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.LLM.TimeoutMs == 0 {
		c.LLM.TimeoutMs = defaultTimeoutMs
	}
	if c.LogFile == "" {
		c.LogFile = defaultLogFile
	}
}

// Validate guards startup before any collaborator is initialized.
func (c *Config) Validate() error {
	if c.World.Host == "" {
		return fmt.Errorf("world.host must not be empty")
	}
	if c.World.Port <= 0 || c.World.Port > 65535 {
		return fmt.Errorf("world.port %d is out of range", c.World.Port)
	}
	switch c.LLM.Backend {
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set (required for the gemini backend)")
		}
	case "ollama":
		// Local backend, no credential required.
	default:
		return fmt.Errorf("unsupported LLM backend: %s", c.LLM.Backend)
	}
	return nil
}
