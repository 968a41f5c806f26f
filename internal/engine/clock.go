// Package engine owns the game clock, the resource ledger, the system
// registry and the fixed-timestep update loop. Everything here runs on a
// single goroutine driven by an external pump; consistency comes from strict
// call ordering, not locks.
package engine

import (
	"fmt"
	"time"
)

// Calendar constants. A season is a fixed 30 days; a year is four seasons.
const (
	HoursPerDay    = 24
	DaysPerSeason  = 30
	SeasonsPerYear = 4
)

// Season indices.
const (
	SeasonSpring = 0
	SeasonSummer = 1
	SeasonAutumn = 2
	SeasonWinter = 3
)

var seasonNames = [SeasonsPerYear]string{"Spring", "Summer", "Autumn", "Winter"}

// SeasonName returns a human-readable season name.
func SeasonName(season int) string {
	if season < 0 || season >= SeasonsPerYear {
		return "Unknown"
	}
	return seasonNames[season]
}

// GameTime is the in-game calendar position. Only the time system advances
// it; everyone else reads it through the Manager.
type GameTime struct {
	Year   int `json:"year"`
	Season int `json:"season"` // 0-3
	Day    int `json:"day"`    // 1-30
	Hour   int `json:"hour"`   // 0-23
}

// AddHours returns the clock advanced by n hours, carrying overflow through
// day, season and year. Pure: the receiver is unchanged.
func (t GameTime) AddHours(n int) GameTime {
	t.Hour += n
	for t.Hour >= HoursPerDay {
		t.Hour -= HoursPerDay
		t.Day++
		for t.Day > DaysPerSeason {
			t.Day = 1
			t.Season++
			for t.Season >= SeasonsPerYear {
				t.Season = 0
				t.Year++
			}
		}
	}
	return t
}

// TotalHours returns the clock position as hours since year 1, spring 1,
// 00:00. Useful for ordering comparisons.
func (t GameTime) TotalHours() int {
	days := (t.Year-1)*SeasonsPerYear*DaysPerSeason + t.Season*DaysPerSeason + (t.Day - 1)
	return days*HoursPerDay + t.Hour
}

func (t GameTime) String() string {
	return fmt.Sprintf("Year %d, %s %d, %02d:00", t.Year, SeasonName(t.Season), t.Day, t.Hour)
}

// Clock abstracts the wall-clock so duration-based logic (upgrades, task
// progress, production accrual) is testable without real delays.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
