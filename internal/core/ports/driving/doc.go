// Package driving provides interfaces for primary/inbound ports: the
// operations forage exposes to the CLI and other callers.
package driving
