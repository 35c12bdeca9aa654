package config

import "time"

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# changelog2html Configuration
# Values here are overridden by CHANGELOG2HTML_* environment variables and command-line flags.

# Output settings
pagename: Changelog                   # Passed to templates as .PageName
format: html                          # html | json | yaml | markdown
pending_position: first               # first | last: where unreleased fragments appear

# Run settings
workers: 0                            # Concurrent attribution workers (0 = one per CPU)
log_level: warn                       # debug | info | warn | error | none
max_discovery_depth: 16               # Parent directories searched for the repository

# Tag settings
tags:
  semver_only: false                  # Ignore tags that are not semantic versions

# Fragment discovery
fragments:
  ignore:                             # File name patterns never treated as fragments
    - ".*"
    - "README*"

# Watch mode (render --watch)
watch:
  debounce: 300ms                     # Quiet period before rebuilding after a change
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"pagename": "Changelog",
		"format":   "html",
		// pending_position: "first" keeps the pending group dated "now", which sorts
		// ahead of every release. "last" moves it after the oldest release.
		"pending_position":    "first",
		"workers":             0,
		"log_level":           "warn",
		"max_discovery_depth": 16,
		"tags.semver_only":    false,
		"fragments.ignore":    []string{".*", "README*"},
		"watch.debounce":      (300 * time.Millisecond).String(),
	}
}
