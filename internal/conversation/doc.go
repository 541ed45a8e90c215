// Package conversation turns uploaded transcript files into a uniform
// message sequence. Three upload formats are accepted: JSON message
// arrays (including transcript and chat-log wrappers), speaker-tagged
// plain text, and CSV with or without a header row.
package conversation
