package teetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// Normalize turns "9:00", "09:00:00", "9:00 AM" or "2:30pm" into "HH:MM".
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("unrecognised tee time %q", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	suffix := strings.ToUpper(strings.TrimSpace(s[strings.Index(s, m[0])+len(m[0]):]))
	switch {
	case strings.HasPrefix(suffix, "PM") && hour < 12:
		hour += 12
	case strings.HasPrefix(suffix, "AM") && hour == 12:
		hour = 0
	}

	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("tee time %q out of range", raw)
	}
	return Format(hour*60 + minute), nil
}

// Minutes parses an "HH:MM" clock into minutes since midnight.
func Minutes(clock string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Format renders minutes since midnight as "HH:MM".
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseWeekday matches a weekday name ignoring case and surrounding space.
// Three letter abbreviations are accepted.
func ParseWeekday(name string) (time.Weekday, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) == 3 && strings.HasPrefix(full, n)) {
			return d, true
		}
	}
	return 0, false
}
