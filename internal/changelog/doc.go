// Package changelog derives a release history from git tags and renders it
// as a CHANGES.md document.
//
// This package implements:
//   - Tag sequencing: the tags reachable from HEAD, ordered oldest first
//   - Commit filtering: dropping merges, version bumps and changelog updates
//   - Rendering: one section per release, newest first, in Markdown or YAML
//   - Summary output of the pending release for CI announcements
//
// All history access goes through a Source, normally a *git.Source.
package changelog
