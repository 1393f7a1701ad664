package profile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ACODEADAY_AUTH_USERNAME",
		"ACODEADAY_AUTH_PASSWORD",
		"ACODEADAY_JUDGE0_URL",
		"ACODEADAY_AI_ENABLED",
		"ACODEADAY_AI_BASE_URL",
		"ACODEADAY_AI_API_KEY",
		"ACODEADAY_AI_CHAT_MODEL",
		"ACODEADAY_AI_CHAT_MODELS",
		"ACODEADAY_SECRET",
	} {
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars(t)

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "admin", p.AuthUsername)
	assert.Equal(t, "", p.AuthPassword)
	assert.Equal(t, "http://localhost:2358", p.Judge0URL)
	assert.False(t, p.AIEnabled)
	assert.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
	assert.Equal(t, "gpt-4o-mini", p.AIChatModel)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ACODEADAY_AUTH_USERNAME", "alex")
	t.Setenv("ACODEADAY_JUDGE0_URL", "http://judge:2358")
	t.Setenv("ACODEADAY_AI_ENABLED", "true")
	t.Setenv("ACODEADAY_AI_API_KEY", "sk-test")
	t.Setenv("ACODEADAY_AI_CHAT_MODELS", "gpt-4o-mini, gpt-4o")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "alex", p.AuthUsername)
	assert.Equal(t, "http://judge:2358", p.Judge0URL)
	assert.True(t, p.IsAIEnabled())
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o"}, p.ChatModels())
}

func TestIsAIEnabledRequiresKey(t *testing.T) {
	p := &Profile{AIEnabled: true}
	assert.False(t, p.IsAIEnabled())
	p.AIAPIKey = "sk-test"
	assert.True(t, p.IsAIEnabled())
}

func TestValidateDefaultsSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite"}
	require.NoError(t, p.Validate())
	assert.Contains(t, p.DSN, "acodeaday_dev.db")
}

func TestValidateNormalizesMode(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "bogus", Data: dir, Driver: "sqlite"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}
