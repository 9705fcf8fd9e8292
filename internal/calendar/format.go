package calendar

import (
	"fmt"
	"strings"
	"time"
)

const SQLDateTimeLayout = "2006-01-02 15:04:05"

var localInputLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// FormatSQLDateTime renders t as the persisted wall-clock format in its own location.
func FormatSQLDateTime(t time.Time) string {
	return t.Format(SQLDateTimeLayout)
}

// SQLFromLocalInput converts a datetime-local form value (YYYY-MM-DDTHH:mm with
// optional seconds and fraction) into the persisted format. Fractions are dropped.
func SQLFromLocalInput(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range localInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return FormatSQLDateTime(t), nil
		}
	}
	return "", fmt.Errorf("invalid local date-time %q", value)
}
