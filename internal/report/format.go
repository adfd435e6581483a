package report

import (
	"fmt"
	"time"
)

// formatDuration renders a duration as h:mm:ss, the way ride times are
// usually quoted.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// formatTime renders a UTC timestamp for the tables.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// formatOptFloat renders an optional value with the given precision, or
// a dash when unknown.
func formatOptFloat(v *float64, decimals int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", decimals, *v)
}
