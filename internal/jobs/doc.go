// Package jobs defines the persisted record types for conversation
// analysis work and a typed catalog over the state store.
//
// Four record families live in the store: conversation jobs keyed by
// subject key, task-to-subject mappings keyed by task id, analysis
// reports keyed by task id, and progress snapshots keyed by subject
// key. Every record carries the same retention window; expired records
// read as absent.
package jobs
