package model

import "time"

// Group is a subset of teams answering and being voted on together within a
// round. Groups are immutable once the round is formed, except for the prompt
// fields filled in by a category pick.
type Group struct {
	ID      string   `json:"id" bson:"id"`
	TeamIDs []string `json:"teamIds" bson:"teamIds"`

	Prompt string `json:"prompt" bson:"prompt"`

	// Category-select mode: the team that picks this group's slot, and the
	// pick once made. SlotIndex is -1 until a slot has been chosen.
	SelectingTeamID string     `json:"selectingTeamId,omitempty" bson:"selectingTeamId,omitempty"`
	CategoryID      string     `json:"categoryId,omitempty" bson:"categoryId,omitempty"`
	SlotIndex       int        `json:"slotIndex" bson:"slotIndex"`
	Bonus           *SlotBonus `json:"bonus,omitempty" bson:"bonus,omitempty"`
}

// HasTeam reports whether teamID is a member of the group.
func (g *Group) HasTeam(teamID string) bool {
	for _, id := range g.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// Round is one cycle of answer/vote/results, with its team partitioning.
type Round struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Index     int       `json:"index" bson:"index"`
	Groups    []Group   `json:"groups" bson:"groups"`
	Scored    bool      `json:"scored" bson:"scored"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// GroupByID returns the group with the given id, or nil.
func (r *Round) GroupByID(groupID string) *Group {
	for i := range r.Groups {
		if r.Groups[i].ID == groupID {
			return &r.Groups[i]
		}
	}
	return nil
}

// GroupOf returns the group containing teamID, or nil.
func (r *Round) GroupOf(teamID string) *Group {
	for i := range r.Groups {
		if r.Groups[i].HasTeam(teamID) {
			return &r.Groups[i]
		}
	}
	return nil
}
