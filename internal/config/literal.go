package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ParseSize parses a size literal like "3G", "512M", "1.5 GiB" or "2048".
//
// Bare single-letter units are binary multiples (G = GiB), matching how the
// legacy cleanup configs were written; everything else is handed to humanize
// as-is.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size literal")
	}
	if len(s) > 1 {
		switch last := s[len(s)-1]; last {
		case 'K', 'M', 'G', 'T', 'k', 'm', 'g', 't':
			s = s[:len(s)-1] + strings.ToUpper(string(last)) + "iB"
		}
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size literal %q: %w", s, err)
	}
	return int64(n), nil
}

// ageUnits maps calendar-style unit suffixes to seconds. Longer aliases come
// first so "mo" is not read as "m".
var ageUnits = []struct {
	suffix  string
	seconds float64
}{
	{"yr", 365.25 * 86400},
	{"y", 365.25 * 86400},
	{"mo", 30.5 * 86400},
	{"w", 7 * 86400},
	{"d", 86400},
	{"hr", 3600},
	{"h", 3600},
	{"min", 60},
	{"m", 60},
	{"sec", 1},
	{"s", 1},
}

// ParseAge parses a staleness literal. It accepts Go duration syntax ("36h")
// as well as the calendar-unit form used by the legacy configs: "4w", "2w3d",
// "1mo_12h", with an optional trailing "ago".
func ParseAge(s string) (time.Duration, error) {
	orig := s
	s = strings.ToLower(strings.ReplaceAll(s, "_", " "))
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "ago"))
	if s == "" {
		return 0, fmt.Errorf("empty age literal")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	var seconds float64
	rest := s
	for rest != "" {
		rest = strings.TrimSpace(rest)
		i := 0
		for i < len(rest) && (rest[i] >= '0' && rest[i] <= '9' || rest[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("invalid age literal %q", orig)
		}
		var n float64
		if _, err := fmt.Sscanf(rest[:i], "%g", &n); err != nil {
			return 0, fmt.Errorf("invalid age literal %q: %w", orig, err)
		}
		rest = strings.TrimSpace(rest[i:])

		matched := false
		for _, u := range ageUnits {
			if strings.HasPrefix(rest, u.suffix) {
				seconds += n * u.seconds
				rest = rest[len(u.suffix):]
				matched = true
				break
			}
		}
		if !matched {
			return 0, fmt.Errorf("invalid age literal %q: unknown unit", orig)
		}
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
