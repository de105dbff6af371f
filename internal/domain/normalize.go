package domain

import (
	"strings"
	"unicode"
)

// CleanTags splits value on commas, trims every fragment, drops empty and "N/A"
// fragments and joins the survivors with ", ".
func CleanTags(value string) string {
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ",")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, NotAvailable) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ", ")
}

// StripNonASCII removes every rune outside 7-bit ASCII and collapses the
// whitespace left behind. Empty input, or input with nothing left, yields "N/A".
func StripNonASCII(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return NotAvailable
	}
	return out
}

// JoinTags joins a tag list into its stored form, skipping blank entries.
func JoinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, ",")
}

// SplitTags is the inverse of JoinTags and also reads CleanTags output.
// It never returns empty elements.
func SplitTags(stored string) []string {
	out := []string{}
	for _, t := range strings.Split(stored, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
