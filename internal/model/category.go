package model

// BonusKind distinguishes flat point values from score multipliers.
type BonusKind string

const (
	BonusFlat       BonusKind = "flat"
	BonusMultiplier BonusKind = "multiplier"
)

// SlotBonus is the concealed reward carried by a category slot. For flat
// bonuses Value is a point amount; for multipliers it is the factor applied
// to the redeeming team's group-derived score.
type SlotBonus struct {
	Kind  BonusKind `json:"kind" bson:"kind"`
	Value int       `json:"value" bson:"value"`
}

// CategorySlot is one prompt position within a category. The bonus stays
// concealed from clients until the slot is picked.
type CategorySlot struct {
	Prompt string    `json:"prompt" bson:"prompt"`
	Bonus  SlotBonus `json:"bonus" bson:"bonus"`
	Used   bool      `json:"used" bson:"used"`
	Locked bool      `json:"locked" bson:"locked"`
}

// GridCategory is a column of slots under one topic.
type GridCategory struct {
	ID    string         `json:"id" bson:"id"`
	Name  string         `json:"name" bson:"name"`
	Slots []CategorySlot `json:"slots" bson:"slots"`
}

// CategoryGrid is the session's board in category-select mode.
type CategoryGrid struct {
	Categories []GridCategory `json:"categories" bson:"categories"`
}

// Category returns the category with the given id and its position, or nil.
func (g *CategoryGrid) Category(categoryID string) (*GridCategory, int) {
	for i := range g.Categories {
		if g.Categories[i].ID == categoryID {
			return &g.Categories[i], i
		}
	}
	return nil, -1
}

// Redacted returns a copy of the grid safe to send to clients: bonuses stay
// concealed until their slot has been used.
func (g *CategoryGrid) Redacted() *CategoryGrid {
	if g == nil {
		return nil
	}
	out := &CategoryGrid{Categories: make([]GridCategory, len(g.Categories))}
	for i, cat := range g.Categories {
		copied := cat
		copied.Slots = make([]CategorySlot, len(cat.Slots))
		for j, slot := range cat.Slots {
			if !slot.Used {
				slot.Bonus = SlotBonus{}
			}
			copied.Slots[j] = slot
		}
		out.Categories[i] = copied
	}
	return out
}

// Selectable reports whether the slot at (categoryID, slotIndex) exists and
// can still be picked.
func (g *CategoryGrid) Selectable(categoryID string, slotIndex int) bool {
	cat, _ := g.Category(categoryID)
	if cat == nil || slotIndex < 0 || slotIndex >= len(cat.Slots) {
		return false
	}
	slot := cat.Slots[slotIndex]
	return !slot.Used && !slot.Locked
}
