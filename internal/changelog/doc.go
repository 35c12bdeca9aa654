// Package changelog turns attributed fragments into a changelog document.
//
// This package implements:
//   - Grouping attributed fragments into per-release version groups
//   - Ordering groups newest first, with a "pending" group for unreleased work
//   - Rendering the document through an html/template or as JSON/YAML
//   - A colored terminal summary of the groups
//
// The grouping step is a pure fold over per-file results; reading files and
// resolving commits happen before it, in the pipeline.
package changelog
