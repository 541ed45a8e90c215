// Package services defines the shared error taxonomy and context carriers
// used across the analysis pipeline.
//
// Errors are tagged with sentinel markers (validation, not found, conflict,
// stage, fatal, unavailable) so transport layers can classify failures with
// errors.Is without inspecting message text. Context helpers annotate
// request contexts with the subject key, task identifier, stage name, and
// correlation id consumed by structured logging.
package services
