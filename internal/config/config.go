package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory when
// no explicit path is given.
const DefaultFile = ".pystrict.yaml"

// Config holds the run options, file-loadable so a project can pin them.
type Config struct {
	// Recursive enables descending into subdirectories of directory targets.
	Recursive bool `yaml:"recursive"`
	// RefactorAttempts is the per-file cap of check-and-fix passes. Zero
	// means check only, never rewrite.
	RefactorAttempts int `yaml:"refactor_attempts"`
	// Autoformat runs the external formatter over every clean file.
	Autoformat bool `yaml:"autoformat"`
	// Formatter is the formatter command and its leading arguments; the
	// file path is appended.
	Formatter []string `yaml:"formatter"`
	// CustomModules lists module name prefixes treated as first-party when
	// grouping imports.
	CustomModules []string `yaml:"custom_modules"`
	// PrintTree dumps the parsed node outline of each file.
	PrintTree bool `yaml:"print_tree"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Formatter: []string{"black"},
	}
}

// Load builds the configuration: built-in defaults, then the YAML file,
// then environment variable overrides. A missing default file is fine; an
// explicitly named file must exist.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case explicit || !os.IsNotExist(err):
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if modules := os.Getenv("PYSTRICT_CUSTOM_MODULES"); modules != "" {
		cfg.CustomModules = splitList(modules)
	}
	if formatter := os.Getenv("PYSTRICT_FORMATTER"); formatter != "" {
		cfg.Formatter = strings.Fields(formatter)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects option values the runner cannot act on.
func (c *Config) Validate() error {
	if c.RefactorAttempts < 0 {
		return fmt.Errorf("refactor_attempts must not be negative, got %d", c.RefactorAttempts)
	}
	if c.Autoformat && len(c.Formatter) == 0 {
		return fmt.Errorf("autoformat requires a formatter command")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
