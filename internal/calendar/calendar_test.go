package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"same year", day(2024, 3, 15), 2, day(2024, 5, 15)},
		{"wraps year", day(2024, 11, 5), 3, day(2025, 2, 5)},
		{"clamps end of month", day(2024, 1, 31), 1, day(2024, 2, 29)},
		{"clamps non leap", day(2023, 1, 31), 1, day(2023, 2, 28)},
		{"negative", day(2024, 1, 10), -2, day(2023, 11, 10)},
		{"zero", day(2024, 6, 30), 0, day(2024, 6, 30)},
		{"many years", day(2020, 6, 1), 30, day(2022, 12, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.in, tt.n))
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 6, MonthsBetween(day(2024, 1, 15), day(2024, 7, 15)))
	assert.Equal(t, 5, MonthsBetween(day(2024, 1, 15), day(2024, 7, 14)))
	assert.Equal(t, 13, MonthsBetween(day(2023, 12, 1), day(2025, 1, 1)))
	assert.Equal(t, 0, MonthsBetween(day(2024, 1, 15), day(2024, 1, 20)))
	assert.Equal(t, -1, MonthsBetween(day(2024, 2, 15), day(2024, 1, 15)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 8, DaysBetween(day(2024, 2, 25), day(2024, 3, 4)))
	assert.Equal(t, 0, DaysBetween(time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC), day(2024, 3, 4)))
	assert.Equal(t, -1, DaysBetween(day(2024, 3, 4), day(2024, 3, 3)))
}
