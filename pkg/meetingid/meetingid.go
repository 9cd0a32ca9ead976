// Package meetingid derives stable meeting identifiers and the line-item
// tags that embed them.
//
// An identifier is a pure function of (participant email, start timestamp,
// meeting title): the same triple always hashes to the same ID across runs.
// The ID is embedded in emitted invoice line-item descriptions inside an
// [ID:<id>] tag, and on subsequent runs the status resolver scans existing
// line items for it. The tag format is therefore a compatibility surface:
// changing it orphans every previously emitted line item.
package meetingid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// DefaultLength is the number of hex characters kept from the hash.
// 12 hex chars (48 bits) keeps collisions implausible at the scale of one
// consultant's calendar while staying short enough to read in a dashboard.
const DefaultLength = 12

var tagPattern = regexp.MustCompile(`\[ID:([0-9a-f]+)\]`)

// Identity returns the meeting identifier for the given participant email,
// raw start timestamp, and title, truncated to DefaultLength characters.
func Identity(participantEmail, startTimestamp, title string) string {
	return IdentityN(participantEmail, startTimestamp, title, DefaultLength)
}

// IdentityN is Identity with an explicit truncation length. Lengths outside
// [4, 64] are clamped; a too-short ID defeats the idempotency check and a
// longer one cannot exist for a single SHA-256.
func IdentityN(participantEmail, startTimestamp, title string, length int) string {
	if length < 4 {
		length = 4
	}
	if length > 64 {
		length = 64
	}
	sum := sha256.Sum256([]byte(participantEmail + "|" + startTimestamp + "|" + title))
	return hex.EncodeToString(sum[:])[:length]
}

// Tag wraps an identifier in the bracketed form embedded in line-item
// descriptions.
func Tag(id string) string {
	return fmt.Sprintf("[ID:%s]", id)
}

// FindTag extracts the first embedded meeting identifier from a line-item
// description. Returns false if the text carries no tag.
func FindTag(s string) (string, bool) {
	m := tagPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
