package model

// Phase is one stage of a round's lifecycle.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseCategorySelect Phase = "category_select"
	PhaseAnswer         Phase = "answer"
	PhaseVote           Phase = "vote"
	PhaseResults        Phase = "results"
	PhaseEnded          Phase = "ended"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Terminal reports whether no transition leaves this phase.
func (p Phase) Terminal() bool {
	return p == PhaseEnded
}

// Timed reports whether the phase carries a deadline.
func (p Phase) Timed() bool {
	switch p {
	case PhaseLobby, PhaseEnded:
		return false
	case PhaseCategorySelect, PhaseAnswer, PhaseVote, PhaseResults:
		return true
	}
	return false
}

// Next returns the phase that follows p for the given game mode.
// lastRound must be true when the current round is the session's final one,
// so that results closes the session instead of looping. The second return
// is false when p has no successor.
func (p Phase) Next(mode GameMode, lastRound bool) (Phase, bool) {
	switch p {
	case PhaseLobby:
		return roundEntry(mode), true
	case PhaseCategorySelect:
		return PhaseAnswer, true
	case PhaseAnswer:
		return PhaseVote, true
	case PhaseVote:
		return PhaseResults, true
	case PhaseResults:
		if lastRound {
			return PhaseEnded, true
		}
		return roundEntry(mode), true
	case PhaseEnded:
		return PhaseEnded, false
	}
	return "", false
}

// NewRound reports whether moving from p to next begins a new round.
func (p Phase) NewRound(next Phase) bool {
	return p == PhaseResults && next != PhaseEnded
}

// roundEntry is the first phase of a round for the given mode.
func roundEntry(mode GameMode) Phase {
	if mode == ModeCategorySelect {
		return PhaseCategorySelect
	}
	return PhaseAnswer
}

// CanTransitionTo checks whether target is a legal successor of p.
func (p Phase) CanTransitionTo(target Phase, mode GameMode, lastRound bool) bool {
	if target == PhaseEnded {
		// Ending is accepted from any phase except ended itself.
		return p != PhaseEnded
	}
	next, ok := p.Next(mode, lastRound)
	return ok && next == target
}
