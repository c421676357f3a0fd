package model

import "time"

// GameMode selects how rounds open: straight into answering, or with a
// category pick first.
type GameMode string

const (
	ModeClassic        GameMode = "classic"
	ModeCategorySelect GameMode = "category_select"
)

// SessionSettings configures a session's pacing and shape.
type SessionSettings struct {
	Mode            GameMode `json:"mode" bson:"mode"`
	MaxTeams        int      `json:"maxTeams" bson:"maxTeams"`
	TotalRounds     int      `json:"totalRounds" bson:"totalRounds"`
	TargetGroupSize int      `json:"targetGroupSize" bson:"targetGroupSize"`
	DeckID          string   `json:"deckId" bson:"deckId"`
	LateJoin        bool     `json:"lateJoin" bson:"lateJoin"`

	// Per-phase durations in seconds.
	CategorySelectSec int `json:"categorySelectSec" bson:"categorySelectSec"`
	AnswerSec         int `json:"answerSec" bson:"answerSec"`
	VoteSec           int `json:"voteSec" bson:"voteSec"`
	ResultsSec        int `json:"resultsSec" bson:"resultsSec"`
}

// PhaseDuration returns the configured duration for a timed phase.
func (s SessionSettings) PhaseDuration(p Phase) time.Duration {
	var sec int
	switch p {
	case PhaseCategorySelect:
		sec = s.CategorySelectSec
	case PhaseAnswer:
		sec = s.AnswerSec
	case PhaseVote:
		sec = s.VoteSec
	case PhaseResults:
		sec = s.ResultsSec
	case PhaseLobby, PhaseEnded:
		return 0
	}
	return time.Duration(sec) * time.Second
}

// Session is the authoritative per-game record. Phase, deadline and pause
// state live here so a watcher restarted at any point resumes correctly.
type Session struct {
	ID     string `json:"id" bson:"_id"`
	Code   string `json:"code" bson:"code"`
	HostID string `json:"hostId" bson:"hostId"`

	Phase    Phase      `json:"phase" bson:"phase"`
	Deadline *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty"`
	Paused   bool       `json:"paused" bson:"paused"`
	// RemainingMS holds the time left on the phase clock while paused.
	RemainingMS int64 `json:"remainingMs,omitempty" bson:"remainingMs,omitempty"`

	RoundIndex int             `json:"roundIndex" bson:"roundIndex"`
	Settings   SessionSettings `json:"settings" bson:"settings"`

	// Grid is populated in category-select mode only.
	Grid *CategoryGrid `json:"grid,omitempty" bson:"grid,omitempty"`
	// PromptCursor tracks deck consumption in classic mode.
	PromptCursor int `json:"promptCursor" bson:"promptCursor"`

	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// LastRound reports whether the current round is the session's final one.
func (s *Session) LastRound() bool {
	return s.RoundIndex+1 >= s.Settings.TotalRounds
}

// Remaining returns the time left on the phase clock at now. While paused it
// returns the frozen remainder; with no deadline it returns zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.Paused {
		return time.Duration(s.RemainingMS) * time.Millisecond
	}
	if s.Deadline == nil {
		return 0
	}
	d := s.Deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
