package model

import (
	"testing"
)

func TestGameTime_TimeOfDay(t *testing.T) {
	tests := []struct {
		name string
		hour int
		want TimeOfDay
	}{
		{name: "early morning boundary", hour: 5, want: Morning},
		{name: "late morning", hour: 9, want: Morning},
		{name: "day boundary", hour: 10, want: Day},
		{name: "afternoon", hour: 17, want: Day},
		{name: "evening boundary", hour: 18, want: Evening},
		{name: "late evening", hour: 21, want: Evening},
		{name: "night boundary", hour: 22, want: Night},
		{name: "midnight", hour: 0, want: Night},
		{name: "pre-dawn", hour: 4, want: Night},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt := GameTime{Hour: tt.hour, Day: 1}
			if got := gt.TimeOfDay(); got != tt.want {
				t.Errorf("TimeOfDay() at %02d:00 = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}
}

func TestGameTime_AddHours(t *testing.T) {
	tests := []struct {
		name  string
		start GameTime
		hours int
		want  GameTime
	}{
		{name: "same day", start: GameTime{Hour: 8, Day: 1}, hours: 3, want: GameTime{Hour: 11, Day: 1}},
		{name: "midnight rollover", start: GameTime{Hour: 23, Day: 1}, hours: 1, want: GameTime{Hour: 0, Day: 2}},
		{name: "multi-day carry", start: GameTime{Hour: 12, Day: 3}, hours: 50, want: GameTime{Hour: 14, Day: 5}},
		{name: "zero hours", start: GameTime{Hour: 8, Day: 1}, hours: 0, want: GameTime{Hour: 8, Day: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.start.AddHours(tt.hours); got != tt.want {
				t.Errorf("AddHours(%d) = %+v, want %+v", tt.hours, got, tt.want)
			}
		})
	}
}

func TestGameTime_Before(t *testing.T) {
	tests := []struct {
		name string
		a, b GameTime
		want bool
	}{
		{name: "earlier hour same day", a: GameTime{Hour: 8, Day: 1}, b: GameTime{Hour: 9, Day: 1}, want: true},
		{name: "later hour same day", a: GameTime{Hour: 10, Day: 1}, b: GameTime{Hour: 9, Day: 1}, want: false},
		{name: "equal", a: GameTime{Hour: 8, Day: 1}, b: GameTime{Hour: 8, Day: 1}, want: false},
		{name: "earlier day later hour", a: GameTime{Hour: 23, Day: 1}, b: GameTime{Hour: 0, Day: 2}, want: true},
		{name: "later day earlier hour", a: GameTime{Hour: 0, Day: 2}, b: GameTime{Hour: 23, Day: 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("%v.Before(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
