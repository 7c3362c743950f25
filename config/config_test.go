package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesDeployment(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ProviderGroq, cfg.Model.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model.Name)
	assert.InDelta(t, 0.3, cfg.Model.Temperature, 1e-9)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Agents.MaxIterations)
	assert.True(t, cfg.Agents.AllowDelegation)
	assert.Equal(t, "new-blog-post.md", cfg.OutputPath)
	assert.Equal(t, "AI in healthcare", cfg.Topic)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("CREW_MODEL", "llama")
	t.Setenv("CREW_EMPTY", "")

	assert.Equal(t, "llama", ExpandEnv("${CREW_MODEL}"))
	assert.Equal(t, "fallback", ExpandEnv("${CREW_EMPTY:-fallback}"))
	assert.Equal(t, "llama", ExpandEnv("${CREW_MODEL:-fallback}"))
	assert.Equal(t, "", ExpandEnv("${CREW_UNSET_VARIABLE}"))
	assert.Equal(t, "price $5 {topic}", ExpandEnv("price $5 {topic}"))
}

func TestParse_OverridesDefaultsAndExpands(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-secret")
	t.Setenv("SERPER_API_KEY", "serper-secret")
	t.Setenv("CREW_TOPIC", "quantum computing")

	cfg, err := Parse([]byte(`
topic: ${CREW_TOPIC}
output_path: ${CREW_OUTPUT:-out/post.md}
agents:
  max_iterations: 5
  call_timeout: 30s
retry:
  initial_backoff: 250ms
logging:
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "quantum computing", cfg.Topic)
	assert.Equal(t, "out/post.md", cfg.OutputPath)
	assert.Equal(t, 5, cfg.Agents.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Agents.CallTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, 2, cfg.Retry.MaxRetries, "unset keys keep defaults")
	assert.InDelta(t, 2.0, cfg.Retry.Multiplier, 1e-9, "backoff stays exponential by default")
	assert.Equal(t, "groq-secret", cfg.Model.APIKey)
	assert.Equal(t, "serper-secret", cfg.Search.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  provider: anthropic\n  name: claude-3-5-sonnet-20241022\n  api_key: k\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, "k", cfg.Model.APIKey)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "gemini"
	cfg.Model.APIKey = ""
	cfg.Search.MaxResults = 0
	cfg.Search.APIKey = ""
	cfg.Agents.MaxIterations = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"model.provider", "model.api_key", "search.max_results", "search.api_key", "agents.max_iterations", "logging.format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, LoadEnvFiles(), "missing files are ignored")

	require.NoError(t, os.WriteFile(".env", []byte("CREW_DOTENV_TEST=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CREW_DOTENV_TEST") })
	require.NoError(t, LoadEnvFiles())
	assert.Equal(t, "from-dotenv", os.Getenv("CREW_DOTENV_TEST"))
}
