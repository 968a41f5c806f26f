package engine

import (
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock shared by the engine tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestAddHoursCarriesAcrossDays(t *testing.T) {
	got := GameTime{Year: 1, Season: SeasonSpring, Day: 1, Hour: 6}.AddHours(30)
	want := GameTime{Year: 1, Season: SeasonSpring, Day: 2, Hour: 12}
	if got != want {
		t.Errorf("AddHours(30) = %+v, want %+v", got, want)
	}
}

func TestAddHoursCarriesAcrossSeasonsAndYears(t *testing.T) {
	tests := []struct {
		name  string
		start GameTime
		hours int
		want  GameTime
	}{
		{
			"day rollover into new season",
			GameTime{Year: 1, Season: SeasonSpring, Day: 30, Hour: 23}, 1,
			GameTime{Year: 1, Season: SeasonSummer, Day: 1, Hour: 0},
		},
		{
			"season rollover into new year",
			GameTime{Year: 1, Season: SeasonWinter, Day: 30, Hour: 23}, 1,
			GameTime{Year: 2, Season: SeasonSpring, Day: 1, Hour: 0},
		},
		{
			"full year in one jump",
			GameTime{Year: 3, Season: SeasonSummer, Day: 15, Hour: 8},
			SeasonsPerYear * DaysPerSeason * HoursPerDay,
			GameTime{Year: 4, Season: SeasonSummer, Day: 15, Hour: 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.AddHours(tt.hours); got != tt.want {
				t.Errorf("AddHours(%d) = %+v, want %+v", tt.hours, got, tt.want)
			}
		})
	}
}

func TestAddHoursAssociative(t *testing.T) {
	start := GameTime{Year: 1, Season: SeasonAutumn, Day: 28, Hour: 20}

	oneJump := start.AddHours(100)
	stepped := start
	for i := 0; i < 100; i++ {
		stepped = stepped.AddHours(1)
	}
	if oneJump != stepped {
		t.Errorf("AddHours(100) = %+v, stepping = %+v", oneJump, stepped)
	}
}

func TestTotalHoursOrdering(t *testing.T) {
	earlier := GameTime{Year: 1, Season: SeasonWinter, Day: 30, Hour: 23}
	later := earlier.AddHours(1)
	if earlier.TotalHours() >= later.TotalHours() {
		t.Errorf("TotalHours not monotone: %d >= %d", earlier.TotalHours(), later.TotalHours())
	}
	if diff := later.TotalHours() - earlier.TotalHours(); diff != 1 {
		t.Errorf("hour diff = %d, want 1", diff)
	}
}

func TestSeasonName(t *testing.T) {
	if got := SeasonName(SeasonAutumn); got != "Autumn" {
		t.Errorf("SeasonName(SeasonAutumn) = %q", got)
	}
	if got := SeasonName(7); got != "Unknown" {
		t.Errorf("SeasonName(7) = %q, want Unknown", got)
	}
}
