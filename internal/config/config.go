// changelog2html - Changelog fragments grouped by release tag
// Author: Ariel Frischer
// Source: https://github.com/ariel-frischer/changelog2html

// Package config provides hierarchical configuration management for changelog2html using koanf.
// Configuration is loaded with priority: environment variables > project config (.changelog2html.yml)
// > user config (~/.config/changelog2html/config.yml) > defaults. Command-line flags are applied on
// top by the cli package. A legacy JSON project config is still read, with a migration warning.
package config

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "CHANGELOG2HTML_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the changelog2html configuration
type Configuration struct {
	// PageName is handed to templates as .PageName.
	PageName string `koanf:"pagename" validate:"required"`
	// Format selects the output: html, json, yaml or markdown.
	Format string `koanf:"format" validate:"oneof=html json yaml markdown"`
	// Workers bounds concurrent attribution. 0 uses one worker per CPU.
	Workers  int    `koanf:"workers" validate:"min=0,max=256"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error none"`
	// PendingPosition places the pending group first (newest) or last.
	PendingPosition   string `koanf:"pending_position" validate:"oneof=first last"`
	MaxDiscoveryDepth int    `koanf:"max_discovery_depth" validate:"min=1,max=256"`

	Tags      TagsConfig      `koanf:"tags"`
	Fragments FragmentsConfig `koanf:"fragments"`
	Watch     WatchConfig     `koanf:"watch"`
}

// TagsConfig controls which tags count as releases.
type TagsConfig struct {
	// SemverOnly ignores tags whose names are not semantic versions.
	SemverOnly bool `koanf:"semver_only"`
}

// FragmentsConfig controls fragment discovery.
type FragmentsConfig struct {
	// Ignore lists file name patterns (doublestar syntax) never treated as fragments.
	Ignore []string `koanf:"ignore"`
}

// WatchConfig configures --watch.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce" validate:"min=0"`
}

// PendingLast reports whether the pending group goes at the end.
func (c *Configuration) PendingLast() bool {
	return c.PendingPosition == "last"
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ConfigFile, when set, replaces the project config lookup. It must exist.
	ConfigFile string
	// ProjectConfigPath overrides the project config path (default: .changelog2html.yml)
	ProjectConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
// Priority: Environment variables > Project config > User config > Defaults
//
// Config paths:
//   - User config: ~/.config/changelog2html/config.yml (XDG compliant)
//   - Project config: .changelog2html.yml
//
// Legacy JSON config path (deprecated, triggers migration warning):
//   - Project config: .changelog2html.json
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k, err := loadKoanf(opts, nil)
	if err != nil {
		return nil, err
	}
	return finalizeConfig(k)
}

// LoadWithSources loads configuration like LoadWithOptions and also reports,
// for every key, the layer that last set it.
func LoadWithSources(opts LoadOptions) (*Configuration, map[string]ConfigSource, error) {
	_, cfg, sources, err := loadTracked(opts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, sources, nil
}

// Setting is one effective configuration value and where it came from.
type Setting struct {
	Key    string       `json:"key" yaml:"key"`
	Value  interface{}  `json:"value" yaml:"value"`
	Source ConfigSource `json:"source" yaml:"source"`
}

// Effective loads and validates the configuration and returns every key,
// sorted, with its merged value and source.
func Effective(opts LoadOptions) ([]Setting, error) {
	k, _, sources, err := loadTracked(opts)
	if err != nil {
		return nil, err
	}

	keys := k.Keys()
	sort.Strings(keys)
	settings := make([]Setting, 0, len(keys))
	for _, key := range keys {
		settings = append(settings, Setting{Key: key, Value: k.Get(key), Source: sources[key]})
	}
	return settings, nil
}

func loadTracked(opts LoadOptions) (*koanf.Koanf, *Configuration, map[string]ConfigSource, error) {
	sources := make(map[string]ConfigSource)
	k, err := loadKoanf(opts, func(layer *koanf.Koanf, src ConfigSource) {
		for _, key := range layer.Keys() {
			sources[key] = src
		}
	})
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := finalizeConfig(k)
	if err != nil {
		return nil, nil, nil, err
	}
	return k, cfg, sources, nil
}

// loadKoanf merges every source into a koanf instance without unmarshalling.
// Each layer is loaded into its own instance first so record can see exactly
// which keys it sets.
func loadKoanf(opts LoadOptions, record func(layer *koanf.Koanf, src ConfigSource)) (*koanf.Koanf, error) {
	warningWriter := getWarningWriter(opts.WarningWriter)

	layers := []struct {
		src  ConfigSource
		load func(*koanf.Koanf) error
	}{
		{SourceDefault, func(l *koanf.Koanf) error { loadDefaults(l); return nil }},
		{SourceUser, loadUserConfig},
		{SourceProject, func(l *koanf.Koanf) error {
			if opts.ConfigFile != "" {
				return loadExplicitConfig(l, opts.ConfigFile)
			}
			return loadProjectConfig(l, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings)
		}},
		{SourceEnv, loadEnvironmentConfig},
	}

	k := koanf.New(".")
	for _, layer := range layers {
		l := koanf.New(".")
		if err := layer.load(l); err != nil {
			return nil, err
		}
		if record != nil {
			record(l, layer.src)
		}
		if err := k.Merge(l); err != nil {
			return nil, fmt.Errorf("merging %s config: %w", layer.src, err)
		}
	}
	return k, nil
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadUserConfig loads the user-level YAML config when present.
func loadUserConfig(k *koanf.Koanf) error {
	userYAMLPath, _ := UserConfigPath()
	if !fileExists(userYAMLPath) {
		return nil
	}
	if err := loadYAMLConfig(k, userYAMLPath, "user"); err != nil {
		return fmt.Errorf("loading user YAML config: %w", err)
	}
	return nil
}

// loadProjectConfig loads project-level config (YAML preferred, legacy JSON supported).
// Supports custom path override (for testing). The legacy JSON file sits next to the
// YAML path with a .json extension. Warns if both exist (YAML used, JSON ignored) or
// if only legacy JSON exists.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	projectYAMLPath := ProjectConfigPath()
	if customPath != "" {
		projectYAMLPath = customPath
	}
	legacyProjectPath := legacyPathFor(projectYAMLPath)

	projectYAMLExists := fileExists(projectYAMLPath)
	legacyProjectExists := fileExists(legacyProjectPath)

	if projectYAMLExists {
		if err := loadYAMLConfig(k, projectYAMLPath, "project"); err != nil {
			return fmt.Errorf("loading project YAML config: %w", err)
		}
		warnLegacyExists(warningWriter, legacyProjectPath, projectYAMLPath, legacyProjectExists, skipWarnings)
	} else if legacyProjectExists {
		if err := loadLegacyJSONConfig(k, legacyProjectPath, warningWriter, skipWarnings); err != nil {
			return fmt.Errorf("loading legacy project JSON config: %w", err)
		}
	}
	return nil
}

// loadExplicitConfig loads a --config file, picking the parser from its extension.
func loadExplicitConfig(k *koanf.Koanf, path string) error {
	if !fileExists(path) {
		return fmt.Errorf("config file %s does not exist", path)
	}
	if strings.HasSuffix(path, ".json") {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load config %s: %w", path, err)
		}
		return nil
	}
	return loadYAMLConfig(k, path, "explicit")
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := ValidateYAMLSyntax(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadLegacyJSONConfig loads legacy JSON and warns about migration
func loadLegacyJSONConfig(k *koanf.Koanf, path string, warningWriter io.Writer, skipWarnings bool) error {
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load legacy project config %s: %w", path, err)
	}
	if !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", path)
		fmt.Fprintf(warningWriter, "  Run 'changelog2html config migrate' to migrate to YAML format.\n\n")
	}
	return nil
}

// warnLegacyExists warns if legacy JSON exists alongside new YAML
func warnLegacyExists(warningWriter io.Writer, legacyPath, yamlPath string, legacyExists, skipWarnings bool) {
	if legacyExists && !skipWarnings {
		fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
		fmt.Fprintf(warningWriter, "  Run 'changelog2html config migrate' to remove the legacy file.\n\n")
	}
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// sections are the nested config tables; their env names use one
// underscore where the key path has a dot.
var sections = []string{"tags", "fragments", "watch"}

// envTransform converts environment variables to config keys and values.
// Example: CHANGELOG2HTML_TAGS_SEMVER_ONLY -> tags.semver_only
// List values are comma separated.
func envTransform(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			key = s + "." + strings.TrimPrefix(key, s+"_")
			break
		}
	}

	if key == "fragments.ignore" {
		var patterns []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		return key, patterns
	}
	return key, value
}
