package tzresolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Zone pairs a timezone identifier with its resolved location.
type Zone struct {
	Name string
	Loc  *time.Location
}

// LoadZone resolves a timezone identifier. Accepted forms are IANA names
// ("America/Los_Angeles"), plain "UTC"/"GMT", and fixed offsets written as
// "UTC+0800", "GMT-05:30" and the like.
func LoadZone(name string) (Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Zone{}, fmt.Errorf("timezone name is empty")
	}

	for _, prefix := range []string{"UTC", "GMT"} {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if rest == "" {
			return Zone{Name: name, Loc: time.UTC}, nil
		}
		offset, err := parseOffset(rest)
		if err != nil {
			return Zone{}, fmt.Errorf("invalid fixed offset %q: %w", name, err)
		}
		canonical := prefix + formatOffset(offset)
		return Zone{Name: canonical, Loc: time.FixedZone(canonical, offset)}, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return Zone{Name: name, Loc: loc}, nil
}

// parseOffset parses "+HHMM", "-HH:MM" or "+HH" into seconds east of UTC.
func parseOffset(s string) (int, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("offset too short")
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("offset must start with + or -")
	}
	digits := strings.Replace(s[1:], ":", "", 1)
	if len(digits) != 2 && len(digits) != 4 {
		return 0, fmt.Errorf("expected HH or HHMM digits, got %q", s[1:])
	}
	hours, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, fmt.Errorf("bad hour digits: %w", err)
	}
	minutes := 0
	if len(digits) == 4 {
		if minutes, err = strconv.Atoi(digits[2:]); err != nil {
			return 0, fmt.Errorf("bad minute digits: %w", err)
		}
	}
	if hours > 14 || minutes > 59 {
		return 0, fmt.Errorf("offset %q out of range", s)
	}
	return sign * (hours*3600 + minutes*60), nil
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d%02d", sign, seconds/3600, seconds%3600/60)
}
