package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log:
  level: ERROR
defaults:
  priority: 50
facts:
  temperature: 35
  raining: false
rules:
  - name: heat-alert
    description: temperature is above 30
    priority: 1
    condition: temperature > 30
    facts: [temperature]
  - name: rain-alert
    description: it is raining
    priority: 1
    language: expr
    condition: raining
  - name: humidity-alert
    condition: humidity > 80
    facts: [humidity]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "easyrules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadApp(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	a, err := loadApp(writeConfig(t, testConfig))

	require.NoError(t, err)
	assert.Equal(t, 3, a.registry.Len())
	assert.Equal(t, 2, a.facts.Len())

	humidity, err := a.registry.Get("humidity-alert")
	require.NoError(t, err)
	assert.Equal(t, 50, humidity.Priority())
	assert.Equal(t, "description", humidity.Description())
}

func TestLoadAppErrors(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")

	tests := []struct {
		name   string
		config string
		errSub string
	}{
		{
			name:   "compile error",
			config: "rules:\n  - name: broken\n    condition: 'temperature >'\n    facts: [temperature]\n",
			errSub: "rules[0]",
		},
		{
			name:   "duplicate names",
			config: "rules:\n  - name: a\n    condition: 'true'\n  - name: a\n    condition: 'false'\n",
			errSub: "duplicate rule name",
		},
		{
			name:   "invalid level",
			config: "log:\n  level: LOUD\n",
			errSub: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadApp(writeConfig(t, tt.config))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}

	_, err := loadApp(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "list", "--config", writeConfig(t, testConfig))

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5, stdout)
	assert.True(t, strings.HasPrefix(lines[0], "PRIORITY"))
	assert.Contains(t, lines[1], "heat-alert")
	assert.Contains(t, lines[2], "rain-alert")
	assert.Contains(t, lines[3], "humidity-alert")
	assert.Equal(t, "warning: priority 1 shared by heat-alert, rain-alert", lines[4])
}

func TestCheckCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "check", "-c", writeConfig(t, testConfig))

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4, stdout)

	assert.Contains(t, lines[1], "heat-alert")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "true"), lines[1])
	assert.Contains(t, lines[2], "rain-alert")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "false"), lines[2])
	assert.Contains(t, lines[3], "humidity-alert")
	assert.Contains(t, lines[3], "error:")
}

func TestCommandWithoutConfig(t *testing.T) {
	stdout, _, err := runCommand(t, "list")

	require.NoError(t, err)
	assert.Equal(t, "PRIORITY  NAME  DESCRIPTION", strings.TrimSpace(stdout))
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := runCommand(t, "fire")
	assert.Error(t, err)
}
