package cli

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config carries the launcher's settings. Everything is environment driven;
// the launcher itself accepts no flags or arguments.
type Config struct {
	// VenvDir is where the virtual environment lives, relative to the
	// working directory unless absolute. Empty selects the conventional
	// .venv directory.
	VenvDir string `env:"PHONE_AGENT_VENV"`
	// ADBPath overrides the adb binary, either a bare name or a full path.
	ADBPath string `env:"PHONE_AGENT_ADB"`
	// BaseURL, Model, and APIKey describe the model service the agent will
	// talk to. The defaults match a local vLLM deployment.
	BaseURL string `env:"PHONE_AGENT_BASE_URL" envDefault:"http://localhost:8000/v1"`
	Model   string `env:"PHONE_AGENT_MODEL" envDefault:"autoglm-phone-9b"`
	APIKey  string `env:"PHONE_AGENT_API_KEY" envDefault:"EMPTY"`
	// LogLevel selects the diagnostic verbosity on stderr.
	LogLevel string `env:"PHONE_AGENT_LOG_LEVEL" envDefault:"warn"`
	// NoColor forces plain output even on a terminal.
	NoColor bool `env:"PHONE_AGENT_NO_COLOR" envDefault:"false"`
}

// LoadConfig reads the launcher configuration from the environment. The
// NO_COLOR convention is honored alongside the launcher's own variable.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment configuration: %w", err)
	}
	if !cfg.NoColor && os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return cfg, nil
}
