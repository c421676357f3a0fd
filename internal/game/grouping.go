package game

import (
	"sort"

	"github.com/google/uuid"

	"quizrumble/internal/model"
)

// BuildGroups partitions the active teams into groups whose sizes differ by
// at most one. With fewer than two active teams (or a degenerate target size)
// it falls back to a single group rather than failing: a live event cannot
// tolerate a crashed round build.
//
// roundIndex drives the selecting-team rotation in category-select mode so a
// different member of each group picks every round.
func BuildGroups(teams []*model.Team, roundIndex, targetSize int, mode model.GameMode) []model.Group {
	active := make([]*model.Team, 0, len(teams))
	for _, t := range teams {
		if t.Active() {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil
	}

	// Stable ordering keeps grouping deterministic for a given roster.
	sort.Slice(active, func(i, j int) bool {
		if !active[i].JoinedAt.Equal(active[j].JoinedAt) {
			return active[i].JoinedAt.Before(active[j].JoinedAt)
		}
		return active[i].ID < active[j].ID
	})

	if targetSize < 2 {
		targetSize = 2
	}
	count := (len(active) + targetSize - 1) / targetSize
	if count < 1 {
		count = 1
	}

	base := len(active) / count
	extra := len(active) % count

	groups := make([]model.Group, 0, count)
	idx := 0
	for g := 0; g < count; g++ {
		size := base
		if g < extra {
			size++
		}
		members := make([]string, 0, size)
		for i := 0; i < size; i++ {
			members = append(members, active[idx].ID)
			idx++
		}
		group := model.Group{
			ID:        uuid.NewString(),
			TeamIDs:   members,
			SlotIndex: -1,
		}
		if mode == model.ModeCategorySelect && len(members) > 0 {
			group.SelectingTeamID = members[roundIndex%len(members)]
		}
		groups = append(groups, group)
	}
	return groups
}

// AssignPrompts fills each group's prompt from the deck, continuing from
// cursor so prompts are not repeated until the deck is exhausted. It returns
// the advanced cursor. An empty deck leaves prompts blank.
func AssignPrompts(groups []model.Group, prompts []string, cursor int) int {
	if len(prompts) == 0 {
		return cursor
	}
	for i := range groups {
		groups[i].Prompt = prompts[cursor%len(prompts)]
		cursor++
	}
	return cursor
}
