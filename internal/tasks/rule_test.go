package tasks

import (
	"testing"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFiresSingle(t *testing.T) {
	t.Parallel()

	rule := RecurrenceRule{Type: database.ScheduleSingle, SingleDate: date(2025, time.June, 11)}

	tests := []struct {
		name string
		on   time.Time
		want bool
	}{
		{"exact date", date(2025, time.June, 11), true},
		{"day before", date(2025, time.June, 10), false},
		{"day after", date(2025, time.June, 12), false},
		{"same day next year", date(2026, time.June, 11), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Fires(rule, tc.on); got != tc.want {
				t.Errorf("Fires(single, %s) = %v, want %v", tc.on.Format("2006-01-02"), got, tc.want)
			}
		})
	}

	t.Run("zero single date never fires", func(t *testing.T) {
		t.Parallel()
		empty := RecurrenceRule{Type: database.ScheduleSingle}
		if Fires(empty, date(2025, time.June, 11)) {
			t.Error("rule without a date fired")
		}
	})
}

func TestFiresWeekly(t *testing.T) {
	t.Parallel()

	// 2025-06-02 is a Monday. Check each single-day mask across two weeks:
	// the rule must fire on its weekday and on no other.
	monday := date(2025, time.June, 2)

	for bit := 0; bit < 7; bit++ {
		rule := RecurrenceRule{Type: database.ScheduleWeekly, WeekdaysMask: 1 << bit}

		for offset := 0; offset < 14; offset++ {
			day := monday.AddDate(0, 0, offset)
			want := offset%7 == bit
			if got := Fires(rule, day); got != want {
				t.Errorf("Fires(mask=1<<%d, %s %s) = %v, want %v",
					bit, day.Weekday(), day.Format("2006-01-02"), got, want)
			}
		}
	}

	t.Run("zero mask never fires", func(t *testing.T) {
		t.Parallel()
		rule := RecurrenceRule{Type: database.ScheduleWeekly}
		for offset := 0; offset < 7; offset++ {
			if Fires(rule, monday.AddDate(0, 0, offset)) {
				t.Errorf("zero mask fired on offset %d", offset)
			}
		}
	})

	t.Run("combined mask", func(t *testing.T) {
		t.Parallel()
		// Monday + Wednesday + Friday.
		rule := RecurrenceRule{Type: database.ScheduleWeekly, WeekdaysMask: 1<<0 | 1<<2 | 1<<4}
		fired := []int{}
		for offset := 0; offset < 7; offset++ {
			if Fires(rule, monday.AddDate(0, 0, offset)) {
				fired = append(fired, offset)
			}
		}
		want := []int{0, 2, 4}
		if len(fired) != len(want) {
			t.Fatalf("fired on offsets %v, want %v", fired, want)
		}
		for i := range want {
			if fired[i] != want[i] {
				t.Fatalf("fired on offsets %v, want %v", fired, want)
			}
		}
	})
}

func TestFiresEveryXDays(t *testing.T) {
	t.Parallel()

	start := date(2025, time.June, 10)

	tests := []struct {
		name string
		x    int
		on   time.Time
		want bool
	}{
		{"x=3 fires on start date", 3, start, true},
		{"x=3 fires at +3", 3, start.AddDate(0, 0, 3), true},
		{"x=3 fires at +6", 3, start.AddDate(0, 0, 6), true},
		{"x=3 silent at +1", 3, start.AddDate(0, 0, 1), false},
		{"x=3 silent at +2", 3, start.AddDate(0, 0, 2), false},
		{"x=3 silent at +4", 3, start.AddDate(0, 0, 4), false},
		{"x=3 silent at +5", 3, start.AddDate(0, 0, 5), false},
		{"x=1 fires on start date", 1, start, true},
		{"x=1 fires at +1", 1, start.AddDate(0, 0, 1), true},
		{"x=1 fires at +30", 1, start.AddDate(0, 0, 30), true},
		{"before start never fires", 3, start.AddDate(0, 0, -3), false},
		{"day before start never fires", 1, start.AddDate(0, 0, -1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rule := RecurrenceRule{Type: database.ScheduleEveryXDays, EveryXDays: tc.x, StartDate: start}
			if got := Fires(rule, tc.on); got != tc.want {
				t.Errorf("Fires(every %d days, %s) = %v, want %v",
					tc.x, tc.on.Format("2006-01-02"), got, tc.want)
			}
		})
	}

	t.Run("invalid rules never fire", func(t *testing.T) {
		t.Parallel()
		invalid := []RecurrenceRule{
			{Type: database.ScheduleEveryXDays, EveryXDays: 0, StartDate: start},
			{Type: database.ScheduleEveryXDays, EveryXDays: -1, StartDate: start},
			{Type: database.ScheduleEveryXDays, EveryXDays: 2},
			{Type: database.ScheduleType("unknown")},
		}
		for _, rule := range invalid {
			if Fires(rule, start) {
				t.Errorf("invalid rule %+v fired", rule)
			}
		}
	})
}

func TestFiresIgnoresClockTime(t *testing.T) {
	t.Parallel()

	// The engine works on calendar dates; clock time and zone must not
	// change the outcome.
	rule := RecurrenceRule{
		Type:       database.ScheduleEveryXDays,
		EveryXDays: 2,
		StartDate:  date(2025, time.June, 10),
	}

	late := time.Date(2025, time.June, 12, 23, 59, 59, 0, time.FixedZone("plus3", 3*60*60))
	if !Fires(rule, late) {
		t.Error("late-evening timestamp on a firing date did not fire")
	}
}

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    RecurrenceRule
		wantErr bool
	}{
		{"valid single", RecurrenceRule{Type: database.ScheduleSingle, SingleDate: date(2025, time.June, 1)}, false},
		{"single without date", RecurrenceRule{Type: database.ScheduleSingle}, true},
		{"valid weekly", RecurrenceRule{Type: database.ScheduleWeekly, WeekdaysMask: 0x15}, false},
		{"weekly mask out of range", RecurrenceRule{Type: database.ScheduleWeekly, WeekdaysMask: 1 << 7}, true},
		{"valid every_x_days", RecurrenceRule{Type: database.ScheduleEveryXDays, EveryXDays: 2, StartDate: date(2025, time.June, 1)}, false},
		{"every_x_days with x=0", RecurrenceRule{Type: database.ScheduleEveryXDays, StartDate: date(2025, time.June, 1)}, true},
		{"every_x_days without start", RecurrenceRule{Type: database.ScheduleEveryXDays, EveryXDays: 2}, true},
		{"unknown type", RecurrenceRule{Type: database.ScheduleType("monthly")}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.rule.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"integer", "3", 3, false},
		{"dot decimal", "2.5", 2.5, false},
		{"comma decimal", "2,5", 2.5, false},
		{"negative", "-1.5", -1.5, false},
		{"surrounding whitespace", "  7 ", 7, false},
		{"empty", "", 0, true},
		{"words", "three", 0, true},
		{"two separators", "1,2,3", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseNumber(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseNumber(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}
