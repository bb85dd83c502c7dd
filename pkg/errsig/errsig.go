// Package errsig derives stable error signatures used to group historical
// resolutions of the same underlying fault.
package errsig

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Normalization regexes compiled once at package init.
var (
	reHexAddr    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	reUUID       = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	reNumber     = regexp.MustCompile(`\b\d+\b`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Derive computes the error signature for a log's identifying fields.
// The same inputs always produce the same signature: the derivation uses the
// classification plus the normalized code location, falling back to
// filename:function and finally to the normalized message when no location
// is known.
func Derive(errorType, culprit, filename, function, message string) string {
	location := Normalize(culprit)
	if location == "" {
		location = Normalize(filename + ":" + function)
	}
	if location == ":" || location == "" {
		location = Normalize(message)
	}

	sum := sha256.Sum256([]byte(strings.ToLower(errorType) + "\n" + location))
	return fmt.Sprintf("%x", sum)
}

// Normalize strips volatile tokens (addresses, uuids, bare numbers) and
// collapses whitespace so re-computation is stable across occurrences.
func Normalize(s string) string {
	s = reHexAddr.ReplaceAllString(s, "0xADDR")
	s = reUUID.ReplaceAllString(s, "UUID")
	s = reNumber.ReplaceAllString(s, "N")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(s))
	return truncate(s, 500)
}

// truncate shortens s to maxBytes without splitting UTF-8 runes.
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
