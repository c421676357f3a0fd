package game

import (
	"sort"

	"quizrumble/internal/model"
)

// Standing is one row of the leaderboard.
type Standing struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

// Rank builds a ranked standings view from current team scores. It holds no
// state of its own and can be recomputed at any time. Removed teams are
// excluded; ties share a rank and the next distinct score resumes below the
// whole tie group (1,1,3 not 1,1,2).
func Rank(teams []*model.Team) []Standing {
	ranked := make([]*model.Team, 0, len(teams))
	for _, t := range teams {
		if t.Active() {
			ranked = append(ranked, t)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})

	out := make([]Standing, len(ranked))
	for i, t := range ranked {
		rank := i + 1
		if i > 0 && t.Score == ranked[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = Standing{TeamID: t.ID, Name: t.Name, Score: t.Score, Rank: rank}
	}
	return out
}
