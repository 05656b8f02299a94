// Package stats computes the dashboard insight figures from a year's
// tallies: totals, averages, the top candy, and year-over-year deltas.
// All functions are pure; the handler layer feeds them store results.
package stats

import (
	"math"
	"time"

	"candycounter/internal/models"
)

// Summary aggregates one collection season.
type Summary struct {
	Types   int           `json:"types"`   // distinct candy varieties
	Pieces  int           `json:"pieces"`  // total pieces collected
	Average float64       `json:"average"` // pieces per variety, 1 decimal
	Top     *models.Tally `json:"top"`     // highest-count tally, nil when empty
}

// Summarize reduces a year's tallies into a Summary. On a count tie the
// earliest tally in list order wins the top spot, matching the display
// order of the dashboard table.
func Summarize(tallies []models.Tally) Summary {
	s := Summary{Types: len(tallies)}
	for i := range tallies {
		s.Pieces += tallies[i].Count
		if s.Top == nil || tallies[i].Count > s.Top.Count {
			s.Top = &tallies[i]
		}
	}
	if s.Types > 0 {
		s.Average = round1(float64(s.Pieces) / float64(s.Types))
	}
	return s
}

// Trend direction of a year-over-year change.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Change is the year-over-year movement of a single metric.
type Change struct {
	Diff    float64 `json:"diff"`
	Percent int     `json:"percent"`
	Trend   string  `json:"trend"`
}

// Delta compares a metric against the previous season. Percent change
// against a zero baseline reports 100 when the current value is positive,
// matching how the dashboard has always displayed first-year growth.
func Delta(current, previous float64) Change {
	diff := round1(current - previous)

	var percent int
	switch {
	case previous > 0:
		percent = int(math.Round(diff / previous * 100))
	case current > 0:
		percent = 100
	}

	trend := TrendFlat
	if diff > 0 {
		trend = TrendUp
	} else if diff < 0 {
		trend = TrendDown
	}

	return Change{Diff: diff, Percent: percent, Trend: trend}
}

// Comparison holds the year-over-year movement of every dashboard metric.
type Comparison struct {
	HasPrevious bool   `json:"has_previous"`
	Types       Change `json:"types"`
	Pieces      Change `json:"pieces"`
	Average     Change `json:"average"`
	CurrentTop  string `json:"current_top,omitempty"`
	PreviousTop string `json:"previous_top,omitempty"`
}

// Compare builds the year-over-year comparison between two seasons. A
// previous season with no tallies yields HasPrevious false and zeroed
// changes: "no previous data" rather than a 100% jump on every metric.
func Compare(current, previous Summary) Comparison {
	c := Comparison{}
	if current.Top != nil {
		c.CurrentTop = current.Top.CandyName
	}
	if previous.Types == 0 {
		return c
	}

	c.HasPrevious = true
	c.Types = Delta(float64(current.Types), float64(previous.Types))
	c.Pieces = Delta(float64(current.Pieces), float64(previous.Pieces))
	c.Average = Delta(current.Average, previous.Average)
	if previous.Top != nil {
		c.PreviousTop = previous.Top.CandyName
	}
	return c
}

// PastYears lists count+1 years starting at currentYear and going back.
// An invalid (non-positive) currentYear falls back to the wall clock.
func PastYears(currentYear, count int) []int {
	if currentYear <= 0 {
		currentYear = time.Now().Year()
	}
	years := make([]int, count+1)
	for i := range years {
		years[i] = currentYear - i
	}
	return years
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
