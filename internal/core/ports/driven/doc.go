// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
//
// Business logic in internal/core/services depends only on these
// interfaces; concrete backends are selected at startup by the CLI
// wiring. Nothing in the services layer branches on backend identity.
package driven
