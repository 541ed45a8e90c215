// Package ipc exposes daemon control over JSON-RPC on a Unix domain
// socket. The CLI uses it for out-of-band operations the HTTP API does
// not carry: daemon status, shutdown, and manual retention sweeps.
package ipc
