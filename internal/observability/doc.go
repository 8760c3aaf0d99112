// Package observability provides the diagnostic logger, the session event log
// (JSON Lines), Prometheus metrics, and alerts evaluated over the event log.
package observability
