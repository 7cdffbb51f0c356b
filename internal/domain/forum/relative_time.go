package forum

import (
	"fmt"
	"time"
)

// DateLayout renders timestamps older than a week.
const DateLayout = "2006-01-02"

// FormatRelative buckets the age of ts relative to now.
// Future timestamps read as "Just now"; an unknown (zero) time renders as "".
func FormatRelative(ts, now time.Time, loc *time.Location) string {
	if ts.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	age := now.Sub(ts)
	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age/time.Hour))
	case age < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age/(24*time.Hour)))
	}
	return ts.In(loc).Format(DateLayout)
}
