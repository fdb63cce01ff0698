package pathutil

import (
	"math"
	"strconv"
	"time"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with binary units and at most one decimal,
// e.g. "0 B", "512 B", "1.5 KB", "2 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	v = math.Round(v*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDate renders t relative to now: a clock time for today,
// "Yesterday", "N days ago" within a week, otherwise a calendar date.
func FormatDate(t, now time.Time) string {
	days := int(math.Floor(now.Sub(t).Hours() / 24))
	switch {
	case days <= 0:
		return t.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days < 7:
		return strconv.Itoa(days) + " days ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}
