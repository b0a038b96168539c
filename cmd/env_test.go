package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brandscope/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Provider: "glm", RPS: 5, Burst: 5},
		GLM: config.GLMConfig{
			Key:     "test-key",
			BaseURL: "https://open.bigmodel.cn/api/paas/v4",
			Model:   "glm-4",
		},
		Anthropic: config.AnthropicConfig{Key: "test-key", Model: "claude-haiku-4-5-20251001"},
	}
}

func TestNewCompletionClient_GLM(t *testing.T) {
	client, err := newCompletionClient(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewCompletionClient_Anthropic(t *testing.T) {
	c := testConfig()
	c.LLM.Provider = "anthropic"

	client, err := newCompletionClient(c)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewCompletionClient_UnknownProvider(t *testing.T) {
	c := testConfig()
	c.LLM.Provider = "oracle"

	_, err := newCompletionClient(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}

func TestLoadMapping_Default(t *testing.T) {
	m, err := loadMapping("")
	require.NoError(t, err)
	assert.NotEmpty(t, m.Categories())
}

func TestLoadMapping_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	data := `categories:
  - name: 美妆
    patterns: ["美妆|化妆品|cosmetics"]
    segments:
      - name: 护肤爱好者
        patterns: ["护肤|skincare"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	m, err := loadMapping(path)
	require.NoError(t, err)
	require.Len(t, m.Categories(), 1)
	assert.Equal(t, "美妆", m.Categories()[0].Name)
}

func TestLoadMapping_MissingFile(t *testing.T) {
	_, err := loadMapping(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidURL(t *testing.T) {
	assert.True(t, validURL("https://shop.example.com"))
	assert.True(t, validURL("http://shop.example.com"))
	assert.False(t, validURL("ftp://shop.example.com"))
	assert.False(t, validURL("shop.example.com"))
	assert.False(t, validURL(""))
}

func TestAnalyzePreRun_RejectsNonHTTPURL(t *testing.T) {
	old := analyzeURL
	analyzeURL = "ftp://shop.example.com"
	t.Cleanup(func() { analyzeURL = old })

	err := analyzeCmd.PersistentPreRunE(analyzeCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http:// or https://")
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "results", "serve", "migrate"} {
		assert.True(t, names[want], "command %s not registered", want)
	}
}

func TestAnalyzeStageSubcommands(t *testing.T) {
	var analyze map[string]bool
	for _, c := range rootCmd.Commands() {
		if c.Name() == "analyze" {
			analyze = make(map[string]bool)
			for _, sub := range c.Commands() {
				analyze[sub.Name()] = true
			}
		}
	}
	require.NotNil(t, analyze)
	for _, want := range []string{"categories", "segments", "questions", "answers", "brands"} {
		assert.True(t, analyze[want], "stage subcommand %s not registered", want)
	}
}
