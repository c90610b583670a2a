package game

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// Choice bounds for a structurally valid event.
const (
	MinEventChoices = 2
	MaxEventChoices = 4
)

// Choice is one option the player can pick in response to an event.
type Choice struct {
	Text   string `json:"text"`
	Effect Effect `json:"effect"`
}

// Event is a narrative prompt with a small set of choices. Events reach
// the reducer only with sanitized effects, either through DecodeEvent or
// from the pre-sanitized fallback pool.
type Event struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
}

func (ev *Event) Validate() error {
	if ev.Title == "" {
		return fmt.Errorf("event missing title")
	}
	if ev.Description == "" {
		return fmt.Errorf("event missing description")
	}
	if len(ev.Choices) < MinEventChoices || len(ev.Choices) > MaxEventChoices {
		return fmt.Errorf("event needs %d-%d choices, got %d", MinEventChoices, MaxEventChoices, len(ev.Choices))
	}
	return nil
}

var codeFenceRe = regexp.MustCompile("(?i)```json|```")

// DecodeEvent parses free-form LLM output into an Event. Code fences are
// stripped; if the whole text is not valid JSON, the substring between
// the first '{' and the last '}' is tried once. Every choice effect is
// run through the sanitizer.
func DecodeEvent(text string) (*Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty response")
	}
	t := strings.TrimSpace(codeFenceRe.ReplaceAllString(text, ""))

	var raw struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Choices     []struct {
			Text   string          `json:"text"`
			Effect json.RawMessage `json:"effect"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(t), &raw); err != nil {
		first := strings.Index(t, "{")
		last := strings.LastIndex(t, "}")
		if first < 0 || last <= first {
			return nil, fmt.Errorf("no JSON object in model response: %w", err)
		}
		if err := json.Unmarshal([]byte(t[first:last+1]), &raw); err != nil {
			return nil, fmt.Errorf("could not parse JSON from model response: %w", err)
		}
	}

	ev := &Event{Title: raw.Title, Description: raw.Description}
	for _, c := range raw.Choices {
		ev.Choices = append(ev.Choices, Choice{Text: c.Text, Effect: DecodeEffect(c.Effect)})
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// FallbackEvent picks a pre-authored event suited to the current state:
// jail- and stuck-themed events while immobile, otherwise a uniform draw
// from the general pool. The pool is pre-sanitized; it never produces an
// invalid event.
func FallbackEvent(gs *GameState, rng *rand.Rand) Event {
	var pool []Event
	switch {
	case gs.Jailed:
		pool = jailFallbackEvents()
	case gs.StuckDays > 0:
		pool = stuckFallbackEvents()
	default:
		pool = generalFallbackEvents(gs.CurrentLocation().Name)
	}
	return pool[rng.IntN(len(pool))]
}

func generalFallbackEvents(location string) []Event {
	return []Event{
		{
			Title:       "Mandatory Patriotism Test",
			Description: fmt.Sprintf("At %s, officials demand you prove your loyalty by reciting the pledge to a flag made entirely of corporate logos. Your party exchanges nervous glances.", location),
			Choices: []Choice{
				{Text: "Recite it with exaggerated enthusiasm", Effect: Effect{Morale: -10, PartyMorale: -5, Message: "You pass the test but feel your soul shrinking."}},
				{Text: "Try to slip them a bribe", Effect: Effect{Health: -5, Morale: 5, Money: -50, PartyMorale: 3, Message: "Money talks, even in a dystopia."}},
				{Text: "Refuse and argue about constitutional rights", Effect: Effect{Health: -15, Morale: 10, Money: -25, PartyMorale: 5, Message: "Your principles cost you time and a fine."}},
			},
		},
		{
			Title:       "Corporate Checkpoint Inspection",
			Description: "Amazon-Walmart Security Forces demand to search your vehicle for 'unauthorized merchandise' and 'anti-corporate sentiment materials.' They look very serious about their corporate loyalty.",
			Choices: []Choice{
				{Text: "Submit to full search and praise the corporations", Effect: Effect{Morale: -15, Supplies: -20, PartyMorale: -10, Message: "They confiscate 'suspicious' items but let you pass."}},
				{Text: "Offer to buy overpriced corporate merchandise", Effect: Effect{Morale: -5, Money: -150, Message: "Capitalism solves another problem through commerce."}},
				{Text: "Challenge their authority", Effect: Effect{Health: -25, Money: -200, PartyHealth: -15, Message: "Corporate justice is swift and expensive."}},
			},
		},
		{
			Title:       "Regime Propaganda Broadcast",
			Description: "Loudspeakers force you to listen to a 3-hour speech about the 'dangers of independent thought.' Covering your ears is illegal.",
			Choices: []Choice{
				{Text: "Endure the propaganda session", Effect: Effect{Health: -5, Morale: -30, PartyMorale: -25, Message: "Your brain feels violated by the forced indoctrination."}},
				{Text: "Pretend to be sick and leave", Effect: Effect{Health: -15, Money: -50, Message: "Fake illness costs money for medical exemption."}},
			},
		},
	}
}

func jailFallbackEvents() []Event {
	return []Event{
		{
			Title:       "Cell Block Economics",
			Description: "A fellow detainee offers to trade contraband rations for whatever you have left. The guards pretend not to watch while absolutely watching.",
			Choices: []Choice{
				{Text: "Trade some cash for rations", Effect: Effect{Supplies: 10, Money: -40, Message: "The going rate for dignity is steep in here."}},
				{Text: "Keep your head down", Effect: Effect{Morale: -5, Message: "Another quiet day in detention."}},
			},
		},
		{
			Title:       "Loyalty Rehabilitation Session",
			Description: "Inmates must attend a mandatory seminar titled 'Why Your Arrest Was Actually Your Fault.' Attendance is graded.",
			Choices: []Choice{
				{Text: "Nod along convincingly", Effect: Effect{Morale: -10, Message: "Your compliance is noted in your permanent record."}},
				{Text: "Ask pointed questions", Effect: Effect{Health: -10, Morale: 5, Message: "The re-educators do not appreciate critical thinking."}},
			},
		},
	}
}

func stuckFallbackEvents() []Event {
	return []Event{
		{
			Title:       "Roadside Repairs",
			Description: "The vehicle refuses to move and the nearest approved repair facility requires a Loyalty Card you do not have. The party improvises.",
			Choices: []Choice{
				{Text: "Scavenge parts from a wreck", Effect: Effect{Health: -5, Supplies: 5, Message: "Grease, rust, and small victories."}},
				{Text: "Pay a passing smuggler for help", Effect: Effect{Money: -60, Morale: 5, Message: "The smuggler salutes with the wrong hand, on purpose."}},
			},
		},
		{
			Title:       "Waiting Out the Storm",
			Description: "A wall of red dust rolls over the camp. State radio insists the weather is fake news, which does not make it easier to breathe.",
			Choices: []Choice{
				{Text: "Hunker down and ration carefully", Effect: Effect{Supplies: -10, Message: "The storm passes. Eventually."}},
				{Text: "Tell stories to keep spirits up", Effect: Effect{Morale: 10, PartyMorale: 5, Supplies: -5, Message: "Banned folk tales are the best folk tales."}},
			},
		},
	}
}
