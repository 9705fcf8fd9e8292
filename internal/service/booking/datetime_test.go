package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombineDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	assert.NoError(t, err)
	day := time.Date(2024, time.May, 1, 0, 0, 0, 0, loc)

	testCases := []struct {
		slot   string
		want   string
		wantOK bool
	}{
		{"2:30 PM", "2024-05-01 14:30:00", true},
		{"12:00 AM", "2024-05-01 00:00:00", true},
		{"12:00 PM", "2024-05-01 12:00:00", true},
		{"10:00 am", "2024-05-01 10:00:00", true},
		{"4:00PM", "2024-05-01 16:00:00", true},
		{"abc", "", false},
		{"14:00", "", false},
		{"13:00 PM", "", false},
		{"9:75 AM", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.slot, func(t *testing.T) {
			got, ok := CombineDateTime(day, tc.slot)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.want, got.Format("2006-01-02 15:04:05"))
				assert.Equal(t, loc, got.Location())
			}
		})
	}
}
