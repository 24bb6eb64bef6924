package timex

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/maillist/internal/common"
)

// accepted layouts, most specific first. Rows written by older deployments
// carry no zone designator and are interpreted as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatISO renders t in UTC using common.TimeLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(common.TimeLayout)
}

// ParseISO parses a stored timestamp. Values without a zone are UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Remaining renders the time left until deadline as "Xm Ys", or "Expired"
// once the deadline has passed.
func Remaining(now, deadline time.Time) string {
	left := deadline.Sub(now)
	if left <= 0 {
		return "Expired"
	}
	secs := int(left.Seconds())
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
