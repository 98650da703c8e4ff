package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDateMondays(t *testing.T) {
	m := MustParse(DefaultSpec)

	tests := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{
			name:     "midweek",
			now:      time.Date(2024, 3, 13, 18, 30, 0, 0, time.Local),
			expected: "2024-03-18",
		},
		{
			name:     "sunday night",
			now:      time.Date(2024, 3, 17, 23, 59, 0, 0, time.Local),
			expected: "2024-03-18",
		},
		{
			name:     "monday rolls to next week",
			now:      time.Date(2024, 3, 18, 9, 0, 0, 0, time.Local),
			expected: "2024-03-25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.NextDate(tt.now))
		})
	}
}

func TestParseCustomSchedule(t *testing.T) {
	m, err := Parse("0 19 1 * *")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", m.NextDate(time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "0 19 1 * *", m.String())
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := Parse("every monday")
	assert.Error(t, err)
}
