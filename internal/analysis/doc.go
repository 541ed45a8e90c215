// Package analysis implements the built-in conversation analysis
// stages: speaker statistics, emotional tone, persuasion scoring,
// rhetorical tactic detection, and the speaker influence graph. All
// stages are heuristic, driven by compiled pattern tables and word
// lexicons, and run independently of each other.
package analysis
