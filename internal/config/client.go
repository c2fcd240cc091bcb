package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the authctl command line client.
type ClientConfig struct {
	Server             string
	TokenFile          string
	IdleTimeoutSeconds int
	IdlePromptSeconds  int
	HTTPTimeoutSeconds int
}

// LoadClient reads client settings from the environment.
func LoadClient() ClientConfig {
	_ = godotenv.Load()

	return ClientConfig{
		Server:             getEnv("AUTHCTL_SERVER", "http://localhost:8080"),
		TokenFile:          getEnv("AUTHCTL_TOKEN_FILE", defaultTokenFile()),
		IdleTimeoutSeconds: getEnvAsInt("AUTHCTL_IDLE_TIMEOUT_SECONDS", 3600),
		IdlePromptSeconds:  getEnvAsInt("AUTHCTL_IDLE_PROMPT_SECONDS", 15),
		HTTPTimeoutSeconds: getEnvAsInt("AUTHCTL_HTTP_TIMEOUT_SECONDS", 10),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".authctl-token"
	}
	return filepath.Join(dir, "todo-auth", "token")
}

// IdleTimeout is the inactivity period before logout.
func (c ClientConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

// IdlePrompt is how long before the timeout the warning shows.
func (c ClientConfig) IdlePrompt() time.Duration {
	return time.Duration(c.IdlePromptSeconds) * time.Second
}

// HTTPTimeout bounds each API call.
func (c ClientConfig) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
