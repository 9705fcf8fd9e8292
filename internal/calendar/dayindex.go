package calendar

import (
	"sort"
	"time"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

// UndatedKey groups reservations without a timestamp. It sorts after every day key.
const UndatedKey = "undated"

type DayGroup struct {
	Key   string               `json:"key"`
	Items []domain.Reservation `json:"items"`
}

func (g DayGroup) Undated() bool {
	return g.Key == UndatedKey
}

func keyOf(r domain.Reservation, loc *time.Location) string {
	if !r.Dated() {
		return UndatedKey
	}
	return DayKey(*r.ScheduledAt, loc)
}

// GroupByDay buckets reservations by local day. Groups ascend by key with the
// undated group last; items ascend by timestamp and keep input order on ties.
func GroupByDay(items []domain.Reservation, loc *time.Location) []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup
	for _, r := range items {
		key := keyOf(r, loc)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Key: key})
		}
		groups[i].Items = append(groups[i].Items, r)
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a == UndatedKey || b == UndatedKey {
			return b == UndatedKey && a != UndatedKey
		}
		return a < b
	})
	for i := range groups {
		sortByTime(groups[i].Items)
	}
	return groups
}

// CountsByDay returns the number of dated reservations per day key.
func CountsByDay(items []domain.Reservation, loc *time.Location) map[string]int {
	counts := make(map[string]int)
	for _, r := range items {
		if !r.Dated() {
			continue
		}
		counts[DayKey(*r.ScheduledAt, loc)]++
	}
	return counts
}

// ForDay returns the reservations of one day key, ordered by time.
func ForDay(items []domain.Reservation, key string, loc *time.Location) []domain.Reservation {
	var out []domain.Reservation
	for _, r := range items {
		if keyOf(r, loc) == key {
			out = append(out, r)
		}
	}
	sortByTime(out)
	return out
}

// EarliestDay returns the day key of the earliest dated reservation.
func EarliestDay(items []domain.Reservation, loc *time.Location) (string, bool) {
	var earliest *time.Time
	for _, r := range items {
		if !r.Dated() {
			continue
		}
		if earliest == nil || r.ScheduledAt.Before(*earliest) {
			earliest = r.ScheduledAt
		}
	}
	if earliest == nil {
		return "", false
	}
	return DayKey(*earliest, loc), true
}

func sortByTime(items []domain.Reservation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Dated() || !b.Dated() {
			return false
		}
		return a.ScheduledAt.Before(*b.ScheduledAt)
	})
}
