// Package language normalizes the language hints found in transcript
// metadata. Uploads carry whatever the source tool emitted: ISO 639-1
// or 639-2 codes, BCP 47 tags, or full language names. Everything is
// reduced to an ISO 639-1 code before analysis so stage heuristics can
// key off a single form.
package language
