// Package driving provides interfaces for primary/inbound ports.
// The CLI layer depends on these to invoke core services.
package driving
