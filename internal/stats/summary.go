// Package stats aggregates a steps history.
package stats

import (
	"time"

	"github.com/mweers/mweers.github.io/internal/steps"
)

// DefaultGoal is the daily target used for the goal counters.
const DefaultGoal = 10000

type Summary struct {
	Days    int       `json:"days"`
	Total   int64     `json:"total"`
	Mean    float64   `json:"mean"`
	Max     int       `json:"max"`
	MaxDate time.Time `json:"maxDate"`
	Min     int       `json:"min"`
	MinDate time.Time `json:"minDate"`
	First   time.Time `json:"first"`
	Last    time.Time `json:"last"`

	Goal       int `json:"goal"`
	GoalDays   int `json:"goalDays"`
	GoalStreak int `json:"goalStreak"` // longest run of consecutive entries at or over Goal
}

// Summarize computes the aggregates in a single pass. Ties on max/min keep the
// earliest entry. An empty history yields a zero Summary (with Goal set).
func Summarize(days []steps.Day, goal int) Summary {
	s := Summary{Goal: goal}
	if len(days) == 0 {
		return s
	}

	s.Days = len(days)
	s.Max, s.MaxDate = days[0].Steps, days[0].Date
	s.Min, s.MinDate = days[0].Steps, days[0].Date
	s.First, s.Last = days[0].Date, days[0].Date

	streak := 0
	for _, d := range days {
		s.Total += int64(d.Steps)
		if d.Steps > s.Max {
			s.Max, s.MaxDate = d.Steps, d.Date
		}
		if d.Steps < s.Min {
			s.Min, s.MinDate = d.Steps, d.Date
		}
		if d.Date.Before(s.First) {
			s.First = d.Date
		}
		if d.Date.After(s.Last) {
			s.Last = d.Date
		}
		if goal > 0 && d.Steps >= goal {
			s.GoalDays++
			streak++
			s.GoalStreak = max(s.GoalStreak, streak)
		} else {
			streak = 0
		}
	}
	s.Mean = float64(s.Total) / float64(s.Days)
	return s
}
