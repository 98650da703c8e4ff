// Package schedule computes club meeting dates from a cron expression.
package schedule

import (
	"fmt"
	"time"

	"github.com/fabula-rasa/fabula/internal/models"
	"github.com/robfig/cron/v3"
)

// DefaultSpec meets every Monday
const DefaultSpec = "0 0 * * MON"

// Meetings yields the dates on which the club meets
type Meetings struct {
	spec     string
	schedule cron.Schedule
}

// Parse builds Meetings from a standard five-field cron expression.
// Descriptors such as @weekly are accepted too.
func Parse(spec string) (*Meetings, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, models.NewValidationError("meeting_schedule", "invalid cron expression %q: %v", spec, err)
	}
	return &Meetings{spec: spec, schedule: schedule}, nil
}

// MustParse is like Parse but panics on error
func MustParse(spec string) *Meetings {
	m, err := Parse(spec)
	if err != nil {
		panic(fmt.Sprintf("schedule: %v", err))
	}
	return m
}

// Next returns the first meeting strictly after t
func (m *Meetings) Next(t time.Time) time.Time {
	return m.schedule.Next(t)
}

// NextDate returns the next meeting after t as a catalog date string
func (m *Meetings) NextDate(t time.Time) string {
	return models.FormatDate(m.Next(t))
}

func (m *Meetings) String() string {
	return m.spec
}
