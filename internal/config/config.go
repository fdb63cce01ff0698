// Package config manages YAML-based configuration, CLI flags, and environment overrides.
package config

import (
	"flag"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/CageChen/codehub/internal/assistant"
	"github.com/CageChen/codehub/internal/logging"
)

// Config holds all configuration options for CodeHub
type Config struct {
	Port int `yaml:"port"`
	// Root is the workspace directory. Empty keeps the workspace in memory.
	Root string `yaml:"root,omitempty"`
	// GitRef serves Root read-only from this branch, tag or commit.
	GitRef  string   `yaml:"git_ref,omitempty"`
	Watch   bool     `yaml:"watch"`
	Open    bool     `yaml:"open"`
	Theme   string   `yaml:"theme"`
	Exclude []string `yaml:"exclude"`

	Log       logging.Config   `yaml:"log"`
	Assistant assistant.Config `yaml:"assistant"`

	// Internal: path to config file for saving
	configPath string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:    8080,
		Theme:   "dark",
		Watch:   true,
		Exclude: []string{"node_modules", ".git", ".svn"},
		Log:     logging.Config{Level: "info", Format: "console"},
		Assistant: assistant.Config{
			Temperature: 0.7,
			MaxTokens:   16000,
		},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/codehub"
	}
	return filepath.Join(home, ".config", "codehub")
}

// GetConfigPath returns the full path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from file, command line flags and environment.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command line arguments.
func LoadArgs(args []string) (*Config, error) {
	cfg := DefaultConfig()

	// Filter out 'serve' subcommand if present (for `codehub serve --root`)
	if len(args) > 0 && args[0] == "serve" {
		args = args[1:]
	}

	fs := flag.NewFlagSet("codehub", flag.ContinueOnError)
	root := fs.String("root", "", "Workspace root directory (empty: in-memory workspace)")
	port := fs.Int("port", 0, "HTTP server port")
	gitRef := fs.String("git-ref", "", "Serve the root read-only from this git ref")
	theme := fs.String("theme", "", "Default theme (light/dark)")
	watch := fs.Bool("watch", true, "Watch the root directory for changes")
	open := fs.Bool("open", false, "Open browser on startup")
	logLevel := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	configFile := fs.String("config", "", "Configuration file path")

	fs.StringVar(root, "r", "", "Workspace root directory (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Determine config file path
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		// Try ~/.config/codehub/config.yaml first
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("codehub.yaml"); err == nil {
			// Fall back to local codehub.yaml
			cfgPath = "codehub.yaml"
		}
	}

	// Load from config file if found
	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only return error if user explicitly specified config file
			return nil, err
		}
		cfg.configPath = cfgPath
	} else {
		// Set default config path for saving
		cfg.configPath = GetConfigPath()
	}

	// Command line flags override config file (only if explicitly set)
	if *root != "" {
		cfg.Root = *root
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *gitRef != "" {
		cfg.GitRef = *gitRef
	}
	if *theme != "" {
		cfg.Theme = *theme
	}
	if set["watch"] {
		cfg.Watch = *watch
	}
	if set["open"] {
		cfg.Open = *open
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	cfg.applyEnv()
	cfg.resolveRoot()

	return cfg, nil
}

// applyEnv lets the environment supply assistant credentials.
func (c *Config) applyEnv() {
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		c.Assistant.BaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		c.Assistant.Model = v
	}
}

// resolveRoot makes Root absolute.
func (c *Config) resolveRoot() {
	if c.Root == "" {
		return
	}
	if abs, err := filepath.Abs(c.Root); err == nil {
		c.Root = abs
	}
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Save saves the current configuration to the config file. The assistant
// API key is never written.
func (c *Config) Save() error {
	// Ensure config directory exists
	configDir := filepath.Dir(c.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	saveConfig := *c
	saveConfig.Assistant.APIKey = ""

	data, err := yaml.Marshal(&saveConfig)
	if err != nil {
		return err
	}

	return os.WriteFile(c.configPath, data, 0600)
}

// GetConfigFilePath returns the path to the config file
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}

// InMemory reports whether the workspace has no backing directory.
func (c *Config) InMemory() bool {
	return c.Root == ""
}

// ReadOnly reports whether the workspace is served from a git ref.
func (c *Config) ReadOnly() bool {
	return c.Root != "" && c.GitRef != ""
}
