package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateJSONToYAML(t *testing.T) {
	tests := map[string]struct {
		json        string
		existing    string
		dryRun      bool
		wantSuccess bool
		wantMessage string
		wantYAML    bool
	}{
		"migrates": {
			json:        `{"pagename": "Notes", "tags": {"semver_only": true}}`,
			wantSuccess: true,
			wantMessage: "Migrated",
			wantYAML:    true,
		},
		"dry run writes nothing": {
			json:        `{"pagename": "Notes"}`,
			dryRun:      true,
			wantSuccess: true,
			wantMessage: "Would migrate",
		},
		"existing yaml is kept": {
			json:        `{"pagename": "Notes"}`,
			existing:    "pagename: Kept\n",
			wantMessage: "already exists",
		},
		"no json": {
			wantMessage: "No JSON config found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			jsonPath := filepath.Join(dir, ".changelog2html.json")
			yamlPath := filepath.Join(dir, ".changelog2html.yml")
			if tt.json != "" {
				writeFile(t, jsonPath, tt.json)
			}
			if tt.existing != "" {
				writeFile(t, yamlPath, tt.existing)
			}

			result, err := MigrateJSONToYAML(jsonPath, yamlPath, tt.dryRun)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Contains(t, result.Message, tt.wantMessage)

			data, readErr := os.ReadFile(yamlPath)
			switch {
			case tt.wantYAML:
				require.NoError(t, readErr)
				assert.Contains(t, string(data), "pagename: Notes")
				assert.Contains(t, string(data), "semver_only: true")
				require.NoError(t, ValidateYAMLSyntax(yamlPath))
			case tt.existing != "":
				assert.Equal(t, tt.existing, string(data))
			default:
				assert.True(t, os.IsNotExist(readErr))
			}
		})
	}
}

func TestMigrateJSONToYAML_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, filepath.Join(dir, "c.json"), "{not json")
	_, err := MigrateJSONToYAML(jsonPath, filepath.Join(dir, "c.yml"), false)
	assert.Error(t, err)
}

func TestRemoveLegacyConfig(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, filepath.Join(dir, "c.json"), "{}")

	require.NoError(t, RemoveLegacyConfig(jsonPath, true))
	assert.FileExists(t, jsonPath)

	require.NoError(t, RemoveLegacyConfig(jsonPath, false))
	assert.NoFileExists(t, jsonPath)
	assert.FileExists(t, jsonPath+".bak")

	assert.NoError(t, RemoveLegacyConfig(jsonPath, false), "missing file is not an error")
}
