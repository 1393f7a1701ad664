package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where acodeaday stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your acodeaday instance.
	InstanceURL string
	// Secret signs the JWT access tokens.
	Secret string

	// Auth configuration (single-user deployment)
	AuthUsername string // ACODEADAY_AUTH_USERNAME (default: admin)
	AuthPassword string // ACODEADAY_AUTH_PASSWORD; plain text or bcrypt hash

	// Judge0 configuration
	Judge0URL string // ACODEADAY_JUDGE0_URL (default: http://localhost:2358)

	// AI configuration (OpenAI-compatible chat endpoint)
	AIEnabled    bool   // ACODEADAY_AI_ENABLED
	AIBaseURL    string // ACODEADAY_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey     string // ACODEADAY_AI_API_KEY
	AIChatModel  string // ACODEADAY_AI_CHAT_MODEL (default: gpt-4o-mini)
	AIChatModels string // ACODEADAY_AI_CHAT_MODELS, comma-separated list offered to clients
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the chat assistant is enabled and an API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && p.AIAPIKey != ""
}

// ChatModels returns the configured model list, falling back to the default chat model.
func (p *Profile) ChatModels() []string {
	models := []string{}
	for _, m := range strings.Split(p.AIChatModels, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		return []string{p.AIChatModel}
	}
	return models
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from ACODEADAY_* environment variables.
func (p *Profile) FromEnv() {
	p.AuthUsername = getEnvOrDefault("ACODEADAY_AUTH_USERNAME", "admin")
	p.AuthPassword = os.Getenv("ACODEADAY_AUTH_PASSWORD")

	p.Judge0URL = getEnvOrDefault("ACODEADAY_JUDGE0_URL", "http://localhost:2358")

	p.AIEnabled = os.Getenv("ACODEADAY_AI_ENABLED") == "true"
	p.AIBaseURL = getEnvOrDefault("ACODEADAY_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIAPIKey = os.Getenv("ACODEADAY_AI_API_KEY")
	p.AIChatModel = getEnvOrDefault("ACODEADAY_AI_CHAT_MODEL", "gpt-4o-mini")
	p.AIChatModels = os.Getenv("ACODEADAY_AI_CHAT_MODELS")

	if secret := os.Getenv("ACODEADAY_SECRET"); secret != "" {
		p.Secret = secret
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "acodeaday")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/acodeaday"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("acodeaday_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
