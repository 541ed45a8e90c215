// Package daemon wires the long-running ConvoLens services together: the
// state store, the delivery queue and worker pool, the progress hub, and
// the HTTP API. A file lock enforces single-instance execution, and a
// background sweeper purges expired store rows on a fixed cadence.
package daemon
