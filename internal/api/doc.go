// Package api defines the transport DTOs shared by the HTTP server, the
// IPC surface, and the CLI. Conversions in this package are one-way:
// domain records come in, wire-friendly structs go out.
package api
