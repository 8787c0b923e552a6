// Package workspace manages workspace directories for builds, supporting both
// ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g., bengal-build-20251214-122336)
// suitable for one-time builds, cleaning up completely after use.
//
// Persistent mode uses a fixed directory path (e.g., /srv/bengal/staging) that
// persists across builds.
package workspace
