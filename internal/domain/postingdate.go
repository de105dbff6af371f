package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var digitsRe = regexp.MustCompile(`\d+`)

// relativeUnits is checked in order; the first marker found in the input wins.
// "3 months ago" therefore resolves as hours because of the "h" in "months".
var relativeUnits = []struct {
	marker string
	unit   time.Duration
}{
	{"h", time.Hour},
	{"d", 24 * time.Hour},
	{"w", 7 * 24 * time.Hour},
	{"m", 30 * 24 * time.Hour},
}

// ResolvePostingDate turns strings like "10h ago", "12d ago", "2w ago" or
// "3m ago" into an absolute UTC time relative to now.
// defaulted is true when the input could not be resolved and now was returned.
func ResolvePostingDate(raw string, now time.Time) (resolved time.Time, defaulted bool) {
	now = now.UTC()
	if raw == "" || raw == NotAvailable {
		return now, true
	}
	s := strings.ToLower(strings.TrimSpace(raw))

	for _, u := range relativeUnits {
		if !strings.Contains(s, u.marker) {
			continue
		}
		n, err := strconv.Atoi(digitsRe.FindString(s))
		if err != nil {
			return now, true
		}
		d := time.Duration(n) * u.unit
		if n != 0 && d/time.Duration(n) != u.unit {
			return now, true
		}
		return now.Add(-d), false
	}
	return now, true
}
