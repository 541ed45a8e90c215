// Package config loads, normalizes, and validates ConvoLens configuration.
//
// Configuration is TOML with one section per subsystem. Load resolves the
// file from an explicit path, ~/.config/convolens/config.toml, or a
// project-local convolens.toml, layers it over Default(), expands paths,
// and validates the result. A commented sample is embedded for
// `convolens config init`.
package config
