package game

import (
	"encoding/json"
	"testing"
)

func TestEffect_SanitizeClamps(t *testing.T) {
	tests := []struct {
		name string
		in   Effect
		want Effect
	}{
		{
			name: "in-range passes through",
			in:   Effect{Health: -5, Morale: 5, Money: -25, Miles: 10, Message: "ok"},
			want: Effect{Health: -5, Morale: 5, Money: -25, Miles: 10, Message: "ok"},
		},
		{
			name: "overflow clamps to bounds",
			in:   Effect{Health: 5000, Morale: -5000, Supplies: 101, Money: -99999, Miles: 9000, MilesBack: -3, StuckDays: 99},
			want: Effect{Health: 100, Morale: -100, Supplies: 100, Money: -1000, Miles: 150, MilesBack: 0, StuckDays: 5},
		},
		{
			name: "money upper bound",
			in:   Effect{Money: 1000000},
			want: Effect{Money: 2000},
		},
		{
			name: "unknown endGame value dropped",
			in:   Effect{EndGame: "draw"},
			want: Effect{},
		},
		{
			name: "valid endGame kept",
			in:   Effect{EndGame: EndGameWin},
			want: Effect{EndGame: EndGameWin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Sanitize()
			if got != tt.want {
				t.Errorf("Sanitize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEffect_SanitizeIdempotent(t *testing.T) {
	inputs := []Effect{
		{},
		{Health: 12345, Money: -12345, StuckDays: 42, EndGame: "banana"},
		{Health: -100, Morale: 100, Miles: 150, EndGame: EndGameLose},
	}
	for _, in := range inputs {
		once := in.Sanitize()
		twice := once.Sanitize()
		if once != twice {
			t.Errorf("Sanitize not idempotent: %+v != %+v", once, twice)
		}
	}
}

func TestDecodeEffect_UntrustedInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Effect
	}{
		{
			name: "well formed",
			raw:  `{"health":-5,"morale":5,"money":-25,"message":"Result"}`,
			want: Effect{Health: -5, Morale: 5, Money: -25, Message: "Result"},
		},
		{
			name: "floats truncate",
			raw:  `{"health":-5.9,"miles":12.2}`,
			want: Effect{Health: -5, Miles: 12},
		},
		{
			name: "numbers as strings coerce",
			raw:  `{"health":"-10","sendToJail":"true"}`,
			want: Effect{Health: -10, SendToJail: true},
		},
		{
			name: "wrong types default to zero",
			raw:  `{"health":{"a":1},"morale":[1,2],"money":null,"sendToJail":"yes"}`,
			want: Effect{},
		},
		{
			name: "out of range clamps",
			raw:  `{"money":-1000000,"supplies":999}`,
			want: Effect{Money: -1000, Supplies: 100},
		},
		{
			name: "not an object",
			raw:  `"surprise"`,
			want: Effect{},
		},
		{
			name: "not JSON at all",
			raw:  `{{{`,
			want: Effect{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeEffect(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("DecodeEffect(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEffect_Summary(t *testing.T) {
	e := Effect{Health: -5, Money: -25, Miles: 10}
	got := e.Summary()
	want := "Health -5% • Money -$25 • Miles +10"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	if (Effect{}).Summary() != "" {
		t.Errorf("empty effect should produce empty summary")
	}
}
