package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "glm", cfg.LLM.Provider)
	assert.InDelta(t, 5.0, cfg.LLM.RPS, 0.001)
	assert.Equal(t, 5, cfg.LLM.Burst)
	assert.Equal(t, "https://open.bigmodel.cn/api/paas/v4", cfg.GLM.BaseURL)
	assert.Equal(t, "glm-4", cfg.GLM.Model)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, "rules", cfg.Analyzer.Mode)
	assert.Equal(t, 5, cfg.Analyzer.Workers)
	assert.Equal(t, 3, cfg.Analyzer.QuestionsPerSegment)
	assert.Equal(t, 3, cfg.Analyzer.AnswersPerQuestion)
	assert.Equal(t, 10000, cfg.Analyzer.PageTextLimit)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
analyzer:
  mode: model
  workers: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "model", cfg.Analyzer.Mode)
	assert.Equal(t, 10, cfg.Analyzer.Workers)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Analyzer.QuestionsPerSegment)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BRANDSCOPE_STORE_DRIVER", "postgres")
	t.Setenv("BRANDSCOPE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BRANDSCOPE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/test"
	cfg.LLM.Provider = "glm"
	cfg.GLM.Key = "glm-key"
	cfg.Analyzer.Mode = "rules"
	cfg.Analyzer.Workers = 5
	cfg.Analyzer.QuestionsPerSegment = 3
	cfg.Analyzer.AnswersPerQuestion = 3
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateAnalyze_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateAnalyze_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.GLM.Key = ""

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "glm.key is required")
}

func TestValidateAnalyze_SQLiteNeedsNoURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = ""

	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateAnalyze_AnthropicProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = "anthropic"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidateAnalyze_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.LLM.Provider = "openai"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider must be glm or anthropic")
}

func TestValidateAnalyze_BadMode(t *testing.T) {
	cfg := validDefaults()
	cfg.Analyzer.Mode = "hybrid"

	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer.mode must be rules or model")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Analyzer.Workers = 0
	err := cfg.Validate("analyze")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "analyzer.workers must be between 1 and 50")

	cfg.Analyzer.Workers = 51
	err = cfg.Validate("analyze")
	assert.Error(t, err)

	cfg.Analyzer.Workers = 50
	assert.NoError(t, cfg.Validate("analyze"))
}
