// Package driving provides interfaces for inbound adapters (primary ports).
// The CLI and any future API layer drive the core through these.
package driving
