package service

import "errors"

// Domain errors surfaced to callers. Handlers map these to HTTP statuses;
// everything else is treated as an internal failure.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTeamNotFound    = errors.New("team not found")
	ErrDeckNotFound    = errors.New("deck not found")
	ErrNotHost         = errors.New("not session host")

	// Phase precondition failed; the caller should re-read state and retry
	// if still appropriate.
	ErrInvalidTransition = errors.New("invalid phase transition")

	ErrNoTeams     = errors.New("session needs at least one team to start")
	ErrSessionFull = errors.New("session is full")
	ErrInvalidName = errors.New("team name is required")
	ErrNameTaken   = errors.New("team name already taken")
	ErrTeamBanned  = errors.New("team is banned from this session")

	ErrNotInGroup       = errors.New("team has no group this round")
	ErrSelfVote         = errors.New("cannot vote for own answer")
	ErrOwnGroupVote     = errors.New("cannot vote within own group")
	ErrNotSelectingTeam = errors.New("team is not this group's selector")
	ErrSlotUsed         = errors.New("category slot already used")

	// Returned by settlement when another settler claimed the round first;
	// callers treat it as a logged no-op.
	ErrAlreadyScored = errors.New("round already scored")
)
