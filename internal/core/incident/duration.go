package incident

import (
	"fmt"
	"time"
)

// FormatDuration renders an incident length as "{m}m {s}s" below one hour and
// "{h}h {m}m" from one hour on. Negative durations render as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalSeconds := int64(d / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
