// Package services contains the core business logic: the search
// coordinator over the two storage backends, the bulk ingestion
// pipeline and the compound read facade. Services depend only on the
// driven ports; concrete backends are injected at startup.
package services
