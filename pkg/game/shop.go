package game

// Item is a black market shop entry. Effects are fixed and pre-sanitized;
// only the price varies per purchase.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BasePrice   int    `json:"basePrice"`
	Effect      Effect `json:"effect"`
}

// priceSpread is the +/- randomization applied to BasePrice per purchase.
const priceSpread = 10

var shopItems = []Item{
	{
		ID:          "supplies",
		Name:        "Underground Rations",
		Description: "Black market food supplies to keep your party fed.",
		BasePrice:   50,
		Effect:      Effect{Supplies: 30},
	},
	{
		ID:          "medicine",
		Name:        "Bootleg Medicine",
		Description: "Illegal healthcare supplies (banned by the regime).",
		BasePrice:   80,
		Effect:      Effect{Health: 25, PartyHealth: 15},
	},
	{
		ID:          "morale_boost",
		Name:        "Forbidden Books",
		Description: "Banned literature to boost party morale.",
		BasePrice:   40,
		Effect:      Effect{Morale: 20, PartyMorale: 10},
	},
	{
		ID:          "energy_drink",
		Name:        "Resistance Energy Drink",
		Description: "Caffeinated rebellion in a can.",
		BasePrice:   25,
		Effect:      Effect{Health: 10, Morale: 10},
	},
	{
		ID:          "survival_kit",
		Name:        "Prepper's Survival Kit",
		Description: "Everything you need to survive the wasteland.",
		BasePrice:   150,
		Effect:      Effect{Supplies: 40, Health: 15, PartyHealth: 10},
	},
}

// ShopItems returns the black market catalog. The returned slice is
// shared; callers must not mutate it.
func ShopItems() []Item {
	return shopItems
}

// FindItem looks up a shop item by ID.
func FindItem(id string) (Item, bool) {
	for _, it := range shopItems {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}
