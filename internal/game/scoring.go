package game

import (
	"sort"

	"quizrumble/internal/model"
)

// ScoreConfig holds every point constant used by the engine. All values are
// surfaced through configuration so tuning never touches transition logic.
type ScoreConfig struct {
	// Authoring side.
	VotePoints    int `json:"votePoints"`    // per vote an answer receives
	WinnerBonus   int `json:"winnerBonus"`   // top-voted answer(s) in a group
	RunnerUpBonus int `json:"runnerUpBonus"` // second-highest distinct tier
	// RunnerUpMinAnswers gates the runner-up bonus: in a two-answer group the
	// loser is not a "second tier", just the loser.
	RunnerUpMinAnswers int `json:"runnerUpMinAnswers"`

	// Voter side.
	CastPoints      int `json:"castPoints"`      // per vote cast
	AccuracyBonus   int `json:"accuracyBonus"`   // vote matched the group winner
	CompletionBonus int `json:"completionBonus"` // voted in every eligible group
}

// DefaultScoreConfig returns the standard point table.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		VotePoints:         100,
		WinnerBonus:        1000,
		RunnerUpBonus:      500,
		RunnerUpMinAnswers: 3,
		CastPoints:         100,
		AccuracyBonus:      200,
		CompletionBonus:    300,
	}
}

// TeamRoundScore breaks down one team's delta for a round.
type TeamRoundScore struct {
	TeamID    string `json:"teamId"`
	Authoring int    `json:"authoring"` // votes received + tier bonuses
	Bonus     int    `json:"bonus"`     // category slot bonus (flat or multiplier gain)
	Voting    int    `json:"voting"`    // cast + accuracy + completion
	Total     int    `json:"total"`
}

// GroupOutcome reports the vote tally for one group.
type GroupOutcome struct {
	GroupID          string         `json:"groupId"`
	VotesByAnswer    map[string]int `json:"votesByAnswer"`
	WinningAnswerIDs []string       `json:"winningAnswerIds"`
}

// RoundResult is the full scoring output for a round.
type RoundResult struct {
	Deltas    map[string]int             `json:"deltas"`
	Breakdown map[string]*TeamRoundScore `json:"breakdown"`
	Outcomes  []GroupOutcome             `json:"outcomes"`
}

// ScoreRound converts a closed round's votes into per-team score deltas.
//
// Per answer: votes×VotePoints, the top tier (ties all win) adds WinnerBonus,
// and the second distinct tier adds RunnerUpBonus when the group is large
// enough. A revealed category bonus lands on the redeeming team: flat values
// add directly, multipliers scale that team's group-derived score. Voter
// rewards are CastPoints per vote, AccuracyBonus per vote that matched the
// group winner, and CompletionBonus for voting in every eligible group.
//
// The function is pure and defensive: votes for missing answers, votes from
// inside the target group, and empty groups all degrade to zero rather than
// failing mid-event.
func ScoreRound(round *model.Round, answers []*model.Answer, votes []*model.Vote, cfg ScoreConfig) *RoundResult {
	res := &RoundResult{
		Deltas:    make(map[string]int),
		Breakdown: make(map[string]*TeamRoundScore),
	}
	if round == nil {
		return res
	}

	answerByID := make(map[string]*model.Answer, len(answers))
	for _, a := range answers {
		answerByID[a.ID] = a
	}

	score := func(teamID string) *TeamRoundScore {
		if s, ok := res.Breakdown[teamID]; ok {
			return s
		}
		s := &TeamRoundScore{TeamID: teamID}
		res.Breakdown[teamID] = s
		return s
	}

	// Winner sets per group, needed again for voter accuracy.
	winners := make(map[string]map[string]bool)

	for gi := range round.Groups {
		group := &round.Groups[gi]

		groupAnswers := make([]*model.Answer, 0, len(group.TeamIDs))
		for _, a := range answers {
			if a.GroupID == group.ID {
				groupAnswers = append(groupAnswers, a)
			}
		}

		tally := make(map[string]int, len(groupAnswers))
		for _, a := range groupAnswers {
			tally[a.ID] = 0
		}
		for _, v := range votes {
			if v.GroupID != group.ID {
				continue
			}
			target, ok := answerByID[v.AnswerID]
			if !ok || target.GroupID != group.ID {
				continue
			}
			if group.HasTeam(v.VoterTeamID) {
				continue
			}
			tally[v.AnswerID]++
		}

		top, second := voteTiers(tally)
		winSet := make(map[string]bool)

		groupScores := make(map[string]int, len(groupAnswers))
		for _, a := range groupAnswers {
			n := tally[a.ID]
			pts := n * cfg.VotePoints
			if top > 0 && n == top {
				pts += cfg.WinnerBonus
				winSet[a.ID] = true
			} else if second > 0 && n == second && len(groupAnswers) >= cfg.RunnerUpMinAnswers {
				pts += cfg.RunnerUpBonus
			}
			groupScores[a.TeamID] += pts
		}
		winners[group.ID] = winSet

		// Category bonus lands on the team that redeemed the slot.
		if group.Bonus != nil && group.SelectingTeamID != "" {
			switch group.Bonus.Kind {
			case model.BonusFlat:
				score(group.SelectingTeamID).Bonus += group.Bonus.Value
			case model.BonusMultiplier:
				if group.Bonus.Value > 1 {
					derived := groupScores[group.SelectingTeamID]
					score(group.SelectingTeamID).Bonus += derived * (group.Bonus.Value - 1)
				}
			}
		}

		for teamID, pts := range groupScores {
			score(teamID).Authoring += pts
		}

		res.Outcomes = append(res.Outcomes, GroupOutcome{
			GroupID:          group.ID,
			VotesByAnswer:    tally,
			WinningAnswerIDs: sortedKeys(winSet),
		})
	}

	// Voter-side rewards, once all groups are closed.
	votesByTeam := make(map[string]map[string]*model.Vote)
	for _, v := range votes {
		g := round.GroupByID(v.GroupID)
		if g == nil || g.HasTeam(v.VoterTeamID) {
			continue
		}
		if _, ok := answerByID[v.AnswerID]; !ok {
			continue
		}
		if votesByTeam[v.VoterTeamID] == nil {
			votesByTeam[v.VoterTeamID] = make(map[string]*model.Vote)
		}
		votesByTeam[v.VoterTeamID][v.GroupID] = v
	}

	for teamID, byGroup := range votesByTeam {
		s := score(teamID)
		for groupID, v := range byGroup {
			s.Voting += cfg.CastPoints
			if winners[groupID][v.AnswerID] {
				s.Voting += cfg.AccuracyBonus
			}
		}
		if n := EligibleGroupCount(round, teamID); n > 0 && len(byGroup) >= n {
			s.Voting += cfg.CompletionBonus
		}
	}

	for teamID, s := range res.Breakdown {
		s.Total = s.Authoring + s.Bonus + s.Voting
		if s.Total == 0 {
			// A zero delta is a no-op; keep the result sparse.
			delete(res.Breakdown, teamID)
			continue
		}
		res.Deltas[teamID] = s.Total
	}
	return res
}

// voteTiers returns the highest and second-highest distinct vote counts.
func voteTiers(tally map[string]int) (top, second int) {
	counts := make([]int, 0, len(tally))
	seen := make(map[int]bool)
	for _, n := range tally {
		if !seen[n] {
			seen[n] = true
			counts = append(counts, n)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	if len(counts) > 0 {
		top = counts[0]
	}
	if len(counts) > 1 {
		second = counts[1]
	}
	return top, second
}

// EligibleGroupCount is how many groups a team may vote in: every group it is
// not a member of.
func EligibleGroupCount(round *model.Round, teamID string) int {
	n := 0
	for i := range round.Groups {
		if !round.Groups[i].HasTeam(teamID) {
			n++
		}
	}
	return n
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
