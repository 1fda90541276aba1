// Package videoid parses user-supplied content references into canonical
// video identifiers.
//
// A reference may be a bare 11-character ID or any of the common URL shapes
// (watch, short-link, shorts, embed, live). Resolution is pure string work:
// malformed input fails with a validation error before any network or quota
// cost. After resolution, identifiers compare by exact match.
package videoid
