package booking

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var slotPattern = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// CombineDateTime places a "H:MM AM|PM" slot on day, in day's location.
// 12 AM is midnight and 12 PM is noon.
func CombineDateTime(day time.Time, slot string) (time.Time, bool) {
	m := slotPattern.FindStringSubmatch(slot)
	if m == nil {
		return time.Time{}, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 12 || minutes > 59 {
		return time.Time{}, false
	}

	pm := strings.EqualFold(m[3], "PM")
	switch {
	case pm && hours != 12:
		hours += 12
	case !pm && hours == 12:
		hours = 0
	}

	y, mo, d := day.Date()
	return time.Date(y, mo, d, hours, minutes, 0, 0, day.Location()), true
}
