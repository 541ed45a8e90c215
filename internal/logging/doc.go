// Package logging constructs the application's slog loggers and provides
// shared attribute helpers.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for machine consumption. Standardized field names keep
// subject keys, task identifiers, and stage names consistent across every
// component, and ContextFields lifts the same identifiers out of request
// contexts so call sites do not repeat them.
package logging
