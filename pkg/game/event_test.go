package game

import (
	"strings"
	"testing"
)

const validEventJSON = `{
	"title": "Checkpoint Trouble",
	"description": "Guards wave you over.",
	"choices": [
		{"text": "Bribe them", "effect": {"money": -50, "message": "They wave you through."}},
		{"text": "Turn around", "effect": {"milesBack": 20, "morale": -5}}
	]
}`

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
		check   func(*testing.T, *Event)
	}{
		{
			name: "plain JSON",
			text: validEventJSON,
			check: func(t *testing.T, ev *Event) {
				if ev.Title != "Checkpoint Trouble" {
					t.Errorf("title = %q", ev.Title)
				}
				if len(ev.Choices) != 2 {
					t.Fatalf("choices = %d, want 2", len(ev.Choices))
				}
				if ev.Choices[0].Effect.Money != -50 {
					t.Errorf("money = %d, want -50", ev.Choices[0].Effect.Money)
				}
			},
		},
		{
			name: "fenced JSON",
			text: "```json\n" + validEventJSON + "\n```",
		},
		{
			name: "uppercase fence",
			text: "```JSON\n" + validEventJSON + "\n```",
		},
		{
			name: "chatter around the object",
			text: "Sure! Here's your event:\n" + validEventJSON + "\nHope you like it.",
		},
		{
			name: "effects out of range get clamped",
			text: `{"title":"T","description":"D","choices":[
				{"text":"a","effect":{"money":999999}},
				{"text":"b","effect":{"health":-12345}}
			]}`,
			check: func(t *testing.T, ev *Event) {
				if ev.Choices[0].Effect.Money != MaxMoneyDelta {
					t.Errorf("money = %d, want clamped to %d", ev.Choices[0].Effect.Money, MaxMoneyDelta)
				}
				if ev.Choices[1].Effect.Health != -MaxStatDelta {
					t.Errorf("health = %d, want clamped to %d", ev.Choices[1].Effect.Health, -MaxStatDelta)
				}
			},
		},
		{
			name:    "empty text",
			text:    "   ",
			wantErr: true,
		},
		{
			name:    "no JSON object",
			text:    "I'm sorry, I can't generate that.",
			wantErr: true,
		},
		{
			name:    "missing title",
			text:    `{"description":"D","choices":[{"text":"a","effect":{}},{"text":"b","effect":{}}]}`,
			wantErr: true,
		},
		{
			name:    "single choice rejected",
			text:    `{"title":"T","description":"D","choices":[{"text":"only","effect":{}}]}`,
			wantErr: true,
		},
		{
			name: "five choices rejected",
			text: `{"title":"T","description":"D","choices":[` +
				strings.Repeat(`{"text":"c","effect":{}},`, 4) + `{"text":"c","effect":{}}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got event %+v", ev)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEvent: %v", err)
			}
			if err := ev.Validate(); err != nil {
				t.Errorf("decoded event invalid: %v", err)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestFallbackEvent_MatchesImmobilityState(t *testing.T) {
	rng := testRand(9)
	gs := NewGameState("m", rng)

	for i := 0; i < 20; i++ {
		ev := FallbackEvent(gs, rng)
		if err := ev.Validate(); err != nil {
			t.Fatalf("general fallback invalid: %v", err)
		}
	}

	gs.Jailed = true
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ev := FallbackEvent(gs, rng)
		if err := ev.Validate(); err != nil {
			t.Fatalf("jail fallback invalid: %v", err)
		}
		seen[ev.Title] = true
	}
	for title := range seen {
		found := false
		for _, ev := range jailFallbackEvents() {
			if ev.Title == title {
				found = true
			}
		}
		if !found {
			t.Errorf("jailed fallback drew non-jail event %q", title)
		}
	}
}

// The pool claims to be pre-sanitized; verify it actually is.
func TestFallbackPools_AreSanitized(t *testing.T) {
	pools := [][]Event{
		generalFallbackEvents("Testville"),
		jailFallbackEvents(),
		stuckFallbackEvents(),
	}
	for _, pool := range pools {
		for _, ev := range pool {
			if err := ev.Validate(); err != nil {
				t.Errorf("event %q: %v", ev.Title, err)
			}
			for _, c := range ev.Choices {
				if c.Effect != c.Effect.Sanitize() {
					t.Errorf("event %q choice %q carries unsanitized effect", ev.Title, c.Text)
				}
			}
		}
	}
}
