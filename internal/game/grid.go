package game

import (
	"math/rand"

	"github.com/google/uuid"

	"quizrumble/internal/model"
)

// DefaultBonusSet is the standard slot bonus multiset: six flat tiers and one
// 2x multiplier. Every value appears exactly once per shuffle cycle.
func DefaultBonusSet() []model.SlotBonus {
	return []model.SlotBonus{
		{Kind: model.BonusFlat, Value: 200},
		{Kind: model.BonusFlat, Value: 400},
		{Kind: model.BonusFlat, Value: 600},
		{Kind: model.BonusFlat, Value: 800},
		{Kind: model.BonusFlat, Value: 1000},
		{Kind: model.BonusFlat, Value: 1200},
		{Kind: model.BonusMultiplier, Value: 2},
	}
}

// NewGrid builds the category board from deck categories. Slot bonuses are a
// full-set shuffle of bonusSet, reshuffled each time the set is exhausted, so
// every value is used exactly once before any repeats. A nil rng falls back
// to the global source.
func NewGrid(categories []model.DeckCategory, bonusSet []model.SlotBonus, rng *rand.Rand) *model.CategoryGrid {
	if len(bonusSet) == 0 {
		bonusSet = DefaultBonusSet()
	}
	shuffle := func(set []model.SlotBonus) {
		if rng != nil {
			rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
		} else {
			rand.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
		}
	}

	grid := &model.CategoryGrid{}
	for _, dc := range categories {
		id := dc.ID
		if id == "" {
			id = uuid.NewString()
		}
		cat := model.GridCategory{ID: id, Name: dc.Name}

		var cycle []model.SlotBonus
		for i, prompt := range dc.Prompts {
			if i%len(bonusSet) == 0 {
				cycle = append([]model.SlotBonus(nil), bonusSet...)
				shuffle(cycle)
			}
			cat.Slots = append(cat.Slots, model.CategorySlot{
				Prompt: prompt,
				Bonus:  cycle[i%len(bonusSet)],
			})
		}
		grid.Categories = append(grid.Categories, cat)
	}
	return grid
}
