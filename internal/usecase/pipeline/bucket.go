package pipeline

import "unicode/utf16"

// Variant is a single experiment arm with its share of traffic.
type Variant struct {
	// Name identifies the arm in logs and diagnostics.
	Name string
	// TrafficPercentage is the arm's share of the 100 hash buckets.
	// Declaration order matters: buckets are assigned cumulatively.
	TrafficPercentage int
}

// SelectVariant deterministically assigns a subject to an experiment arm.
//
// The bucket is derived from a 32-bit signed rolling hash over the subject
// id's UTF-16 code units (h = h*31 + unit with two's-complement wraparound),
// reproducing the widespread `(h << 5) - h + charCodeAt` idiom bit-exactly so
// that independent re-implementations agree on bucket membership. Variants
// are walked in declaration order accumulating traffic percentage; the first
// arm whose cumulative share exceeds the bucket wins. An empty variant list,
// percentages summing below the bucket, or enabled=false all select the
// default name. The function is pure: no clock, no randomness.
func SelectVariant(subjectID string, variants []Variant, defaultName string, enabled bool) string {
	if !enabled || len(variants) == 0 {
		return defaultName
	}

	bucket := subjectBucket(subjectID)

	cumulative := 0
	for _, v := range variants {
		cumulative += v.TrafficPercentage
		if cumulative > bucket {
			return v.Name
		}
	}
	return defaultName
}

// subjectBucket maps a subject id onto [0,100).
func subjectBucket(subjectID string) int {
	var h int32
	for _, unit := range utf16.Encode([]rune(subjectID)) {
		h = h*31 + int32(unit)
	}

	b := int64(h)
	if b < 0 {
		b = -b
	}
	return int(b % 100)
}
