package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizrumble/internal/cache"
	"quizrumble/internal/game"
	"quizrumble/internal/model"
	"quizrumble/internal/repository"
)

// Watcher starts auto-advance supervision of a session (implemented by the
// Orchestrator; kept as an interface so tests can observe the hook).
type Watcher interface {
	Watch(sessionID string)
}

// SessionService owns the session lifecycle: creation, joining, the phase
// state machine, round settlement, and team removal. Every phase transition
// funnels through AdvancePhase's compare-and-set so a stale caller can never
// double-advance a session.
type SessionService struct {
	sessions repository.SessionRepo
	teams    repository.TeamRepo
	rounds   repository.RoundRepo
	answers  repository.AnswerRepo
	votes    repository.VoteRepo
	decks    repository.DeckRepo

	sessCache   cache.SessionCache
	leaderboard cache.LeaderboardCache

	authSvc   *AuthService
	publisher Publisher
	watcher   Watcher

	scoring  game.ScoreConfig
	bonusSet []model.SlotBonus
	defaults model.SessionSettings

	log zerolog.Logger
	now func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repository.SessionRepo,
	teams repository.TeamRepo,
	rounds repository.RoundRepo,
	answers repository.AnswerRepo,
	votes repository.VoteRepo,
	decks repository.DeckRepo,
	sessCache cache.SessionCache,
	leaderboard cache.LeaderboardCache,
	authSvc *AuthService,
	scoring game.ScoreConfig,
	bonusSet []model.SlotBonus,
	defaults model.SessionSettings,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		teams:       teams,
		rounds:      rounds,
		answers:     answers,
		votes:       votes,
		decks:       decks,
		sessCache:   sessCache,
		leaderboard: leaderboard,
		authSvc:     authSvc,
		scoring:     scoring,
		bonusSet:    bonusSet,
		defaults:    defaults,
		log:         log,
		now:         time.Now,
	}
}

// SetPublisher sets the notification channel for state-change events
func (s *SessionService) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetWatcher sets the auto-advance hook invoked when a session starts
func (s *SessionService) SetWatcher(w Watcher) {
	s.watcher = w
}

// CreateSession creates a session in the lobby phase. In category-select
// mode the board is built up front from the deck's categories, with each
// column's concealed bonuses drawn as a full-set shuffle.
func (s *SessionService) CreateSession(ctx context.Context, hostID string, override *model.SessionSettings) (*model.Session, error) {
	settings := s.defaults
	if override != nil {
		settings = mergeSettings(s.defaults, *override)
	}

	deck, err := s.decks.GetByID(ctx, settings.DeckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	if deck == nil {
		return nil, ErrDeckNotFound
	}

	code, err := s.generateJoinCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	session := &model.Session{
		ID:        uuid.NewString(),
		Code:      code,
		HostID:    hostID,
		Phase:     model.PhaseLobby,
		Settings:  settings,
		CreatedAt: s.now(),
	}
	if settings.Mode == model.ModeCategorySelect {
		session.Grid = game.NewGrid(deck.Categories, s.bonusSet, nil)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.cacheMeta(ctx, session)

	s.log.Info().Str("session", session.ID).Str("code", code).Str("mode", string(settings.Mode)).Msg("session created")
	return session, nil
}

// JoinSession registers a team by join code and returns its token.
func (s *SessionService) JoinSession(ctx context.Context, code, name string, members []string) (*model.JoinResponse, error) {
	session, err := s.resolveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Phase == model.PhaseEnded {
		return nil, ErrSessionNotFound
	}
	if session.Phase != model.PhaseLobby && !session.Settings.LateJoin {
		return nil, ErrInvalidTransition
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	nameLower := strings.ToLower(name)
	existing, err := s.teams.GetByName(ctx, session.ID, nameLower)
	if err != nil {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}
	if existing != nil {
		if existing.Banned {
			return nil, ErrTeamBanned
		}
		return nil, ErrNameTaken
	}

	if session.Settings.MaxTeams > 0 {
		count, err := s.teams.CountActive(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count teams: %w", err)
		}
		if count >= int64(session.Settings.MaxTeams) {
			return nil, ErrSessionFull
		}
	}

	team := &model.Team{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Name:      name,
		NameLower: nameLower,
		Members:   members,
		JoinedAt:  s.now(),
	}
	if len(members) > 0 {
		team.Captain = members[0]
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := s.leaderboard.SetScore(ctx, session.ID, team.ID, 0); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("failed to seed leaderboard entry")
	}

	token, err := s.authSvc.GenerateTeamToken(session.ID, team.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session.ID, model.EventTeamJoined, map[string]interface{}{
		"teamId": team.ID,
		"name":   team.Name,
	})

	view := *session
	view.Grid = session.Grid.Redacted()
	return &model.JoinResponse{Team: team, Token: token, Session: &view}, nil
}

// StartSession is the host-triggered entry transition out of the lobby. It
// requires at least one team and hands the session to the auto-advance
// watcher.
func (s *SessionService) StartSession(ctx context.Context, sessionID, hostID string) (*model.Session, error) {
	session, err := s.requireHost(ctx, sessionID, hostID)
	if err != nil {
		return nil, err
	}
	if session.Phase != model.PhaseLobby {
		return nil, ErrInvalidTransition
	}

	count, err := s.teams.CountActive(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams: %w", err)
	}
	if count == 0 {
		return nil, ErrNoTeams
	}

	started, err := s.AdvancePhase(ctx, sessionID, model.PhaseLobby)
	if err != nil {
		return nil, err
	}

	if s.watcher != nil {
		s.watcher.Watch(sessionID)
	}
	s.publish(ctx, sessionID, model.EventSessionStarted, map[string]interface{}{
		"phase":      started.Phase,
		"roundIndex": started.RoundIndex,
	})
	return started, nil
}

// AdvancePhase moves a session from the phase the caller observed to its
// successor. The conditional update is the whole concurrency story: when the
// orchestrator and a host race, exactly one swap lands and the loser gets
// ErrInvalidTransition to re-read and no-op on.
//
// Crossing vote→results settles the closed round's scores; crossing a round
// boundary regroups the surviving teams, which is also where kicks and bans
// take effect.
func (s *SessionService) AdvancePhase(ctx context.Context, sessionID string, from model.Phase) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Phase != from || from.Terminal() {
		return nil, ErrInvalidTransition
	}

	next, ok := from.Next(session.Settings.Mode, session.LastRound())
	if !ok {
		return nil, ErrInvalidTransition
	}

	upd := repository.PhaseUpdate{
		Phase:        next,
		RoundIndex:   session.RoundIndex,
		PromptCursor: session.PromptCursor,
		SetStarted:   from == model.PhaseLobby,
	}

	buildRound := from == model.PhaseLobby || from.NewRound(next)
	var groups []model.Group
	if buildRound {
		if from.NewRound(next) {
			upd.RoundIndex = session.RoundIndex + 1
		}
		groups, upd.PromptCursor, err = s.buildGroups(ctx, session, upd.RoundIndex)
		if err != nil {
			return nil, err
		}
	}

	if next.Timed() {
		deadline := s.now().Add(session.Settings.PhaseDuration(next))
		upd.Deadline = &deadline
	}

	swapped, err := s.sessions.CompareAndSwapPhase(ctx, sessionID, from, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to swap phase: %w", err)
	}
	if swapped == nil {
		// Someone else already moved the session on.
		return nil, ErrInvalidTransition
	}

	if from == model.PhaseVote {
		if err := s.settleRound(ctx, swapped, session.RoundIndex); errors.Is(err, ErrAlreadyScored) {
			s.log.Info().Str("session", sessionID).Int("round", session.RoundIndex).Msg("round already scored, skipping")
		} else if err != nil {
			s.log.Error().Err(err).Str("session", sessionID).Int("round", session.RoundIndex).Msg("round settlement failed")
		}
	}

	if buildRound && len(groups) > 0 {
		round := &model.Round{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Index:     upd.RoundIndex,
			Groups:    groups,
			CreatedAt: s.now(),
		}
		if err := s.rounds.Create(ctx, round); err != nil {
			s.log.Error().Err(err).Str("session", sessionID).Int("round", round.Index).Msg("failed to persist round")
		}
	}

	if swapped.Phase == model.PhaseEnded {
		s.reapCaches(ctx, swapped)
	} else {
		s.cacheMeta(ctx, swapped)
	}
	s.publish(ctx, sessionID, model.EventPhaseChanged, map[string]interface{}{
		"phase":      swapped.Phase,
		"deadline":   swapped.Deadline,
		"roundIndex": swapped.RoundIndex,
	})
	if swapped.Phase == model.PhaseEnded {
		s.publish(ctx, sessionID, model.EventSessionEnded, nil)
	}

	s.log.Debug().Str("session", sessionID).
		Str("from", from.String()).Str("to", swapped.Phase.String()).
		Int("round", swapped.RoundIndex).Msg("phase advanced")
	return swapped, nil
}

// PauseSession freezes or restarts the phase clock. Pausing stores the time
// remaining; resuming recomputes the deadline from now plus that remainder.
func (s *SessionService) PauseSession(ctx context.Context, sessionID, hostID string, pause bool) (*model.Session, error) {
	session, err := s.requireHost(ctx, sessionID, hostID)
	if err != nil {
		return nil, err
	}
	if !session.Phase.Timed() {
		return nil, ErrInvalidTransition
	}
	if session.Paused == pause {
		return session, nil
	}

	var updated *model.Session
	if pause {
		remaining := session.Remaining(s.now())
		updated, err = s.sessions.SetPaused(ctx, sessionID, true, nil, remaining.Milliseconds())
	} else {
		deadline := s.now().Add(time.Duration(session.RemainingMS) * time.Millisecond)
		updated, err = s.sessions.SetPaused(ctx, sessionID, false, &deadline, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update pause state: %w", err)
	}
	if updated == nil {
		// Raced with another pause/resume; report current state.
		return s.sessions.GetByID(ctx, sessionID)
	}

	s.cacheMeta(ctx, updated)
	s.publish(ctx, sessionID, model.EventSessionPaused, map[string]interface{}{
		"paused":      updated.Paused,
		"remainingMs": updated.RemainingMS,
		"deadline":    updated.Deadline,
	})
	return updated, nil
}

// EndSession moves the session to ended from any phase. Ending twice is a
// no-op.
func (s *SessionService) EndSession(ctx context.Context, sessionID, hostID string) (*model.Session, error) {
	session, err := s.requireHost(ctx, sessionID, hostID)
	if err != nil {
		return nil, err
	}
	if session.Phase == model.PhaseEnded {
		return session, nil
	}

	ended, err := s.sessions.End(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if ended == nil {
		return s.sessions.GetByID(ctx, sessionID)
	}

	s.reapCaches(ctx, ended)
	s.publish(ctx, sessionID, model.EventSessionEnded, nil)
	s.log.Info().Str("session", sessionID).Msg("session ended")
	return ended, nil
}

// KickTeam removes a team from future rounds. Already-cast answers and votes
// stay put so settled tallies are never corrupted; the removal lands at the
// next round boundary when groups are rebuilt.
func (s *SessionService) KickTeam(ctx context.Context, sessionID, teamID, hostID string) error {
	return s.removeTeam(ctx, sessionID, teamID, hostID, false)
}

// BanTeam removes a team and prevents the same name from rejoining.
func (s *SessionService) BanTeam(ctx context.Context, sessionID, teamID, hostID string) error {
	return s.removeTeam(ctx, sessionID, teamID, hostID, true)
}

func (s *SessionService) removeTeam(ctx context.Context, sessionID, teamID, hostID string, ban bool) error {
	if _, err := s.requireHost(ctx, sessionID, hostID); err != nil {
		return err
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil || team.SessionID != sessionID {
		return ErrTeamNotFound
	}

	if ban {
		err = s.teams.SetBanned(ctx, teamID)
	} else {
		err = s.teams.SetKicked(ctx, teamID)
	}
	if err != nil {
		return fmt.Errorf("failed to remove team: %w", err)
	}

	if err := s.leaderboard.Remove(ctx, sessionID, teamID); err != nil {
		s.log.Warn().Err(err).Str("team", teamID).Msg("failed to drop leaderboard entry")
	}
	reason := "kicked"
	if ban {
		reason = "banned"
	}
	s.publish(ctx, sessionID, model.EventTeamRemoved, map[string]interface{}{
		"teamId": teamID,
		"reason": reason,
	})
	return nil
}

// GetLeaderboard derives the ranked standings view from current team scores.
func (s *SessionService) GetLeaderboard(ctx context.Context, sessionID string) ([]game.Standing, error) {
	teams, err := s.teams.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return game.Rank(teams), nil
}

// SessionState is the reconnect snapshot served to clients. During the vote
// phase Answers carries the round's ballot (ids and text, authors concealed)
// so clients know what they can vote for.
type SessionState struct {
	Session     *model.Session  `json:"session"`
	Round       *model.Round    `json:"round,omitempty"`
	Standings   []game.Standing `json:"standings"`
	RemainingMS int64           `json:"remainingMs"`
	Answers     []*model.Answer `json:"answers,omitempty"`
	OwnAnswer   *model.Answer   `json:"ownAnswer,omitempty"`
	OwnVotes    []*model.Vote   `json:"ownVotes,omitempty"`
}

// GetSessionState snapshots everything a reconnecting client needs. teamID
// may be empty for host and presenter views.
func (s *SessionService) GetSessionState(ctx context.Context, sessionID, teamID string) (*SessionState, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	standings, err := s.GetLeaderboard(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := &SessionState{
		Session:     session,
		Standings:   standings,
		RemainingMS: session.Remaining(s.now()).Milliseconds(),
	}
	state.Session.Grid = session.Grid.Redacted()

	if session.Phase != model.PhaseLobby {
		round, err := s.rounds.Get(ctx, sessionID, session.RoundIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to load round: %w", err)
		}
		state.Round = round
	}

	if session.Phase == model.PhaseVote {
		answers, err := s.answers.ListByRound(ctx, sessionID, session.RoundIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to list answers: %w", err)
		}
		for _, a := range answers {
			ballot := *a
			ballot.TeamID = ""
			state.Answers = append(state.Answers, &ballot)
		}
	}

	if teamID != "" && state.Round != nil {
		if answer, err := s.answers.GetByTeam(ctx, sessionID, session.RoundIndex, teamID); err == nil {
			state.OwnAnswer = answer
		}
		if votes, err := s.votes.ListByRound(ctx, sessionID, session.RoundIndex); err == nil {
			for _, v := range votes {
				if v.VoterTeamID == teamID {
					state.OwnVotes = append(state.OwnVotes, v)
				}
			}
		}
	}
	return state, nil
}

// settleRound converts the closed round's votes into score deltas, applied
// exactly once. Losing the scored-flag swap means another settler got here
// first, reported as ErrAlreadyScored so the caller can no-op.
func (s *SessionService) settleRound(ctx context.Context, session *model.Session, roundIndex int) error {
	ok, err := s.rounds.MarkScored(ctx, session.ID, roundIndex)
	if err != nil {
		return fmt.Errorf("failed to claim round for scoring: %w", err)
	}
	if !ok {
		return ErrAlreadyScored
	}

	round, err := s.rounds.Get(ctx, session.ID, roundIndex)
	if err != nil {
		return fmt.Errorf("failed to load round for scoring: %w", err)
	}
	if round == nil {
		return fmt.Errorf("round %d not found for scoring", roundIndex)
	}
	answers, err := s.answers.ListByRound(ctx, session.ID, roundIndex)
	if err != nil {
		return fmt.Errorf("failed to list answers for scoring: %w", err)
	}
	votes, err := s.votes.ListByRound(ctx, session.ID, roundIndex)
	if err != nil {
		return fmt.Errorf("failed to list votes for scoring: %w", err)
	}

	result := game.ScoreRound(round, answers, votes, s.scoring)

	teamIDs := make([]string, 0, len(result.Deltas))
	for teamID := range result.Deltas {
		teamIDs = append(teamIDs, teamID)
	}
	sort.Strings(teamIDs)

	for _, teamID := range teamIDs {
		total, err := s.teams.AddScore(ctx, teamID, result.Deltas[teamID])
		if err != nil {
			s.log.Error().Err(err).Str("team", teamID).Msg("failed to apply score delta")
			continue
		}
		if err := s.leaderboard.SetScore(ctx, session.ID, teamID, total); err != nil {
			s.log.Warn().Err(err).Str("team", teamID).Msg("failed to mirror score")
		}
	}

	s.publish(ctx, session.ID, model.EventScoresPosted, map[string]interface{}{
		"roundIndex": roundIndex,
		"breakdown":  result.Breakdown,
		"outcomes":   result.Outcomes,
	})
	s.log.Info().Str("session", session.ID).Int("round", roundIndex).Int("teams", len(teamIDs)).Msg("round settled")
	return nil
}

// buildGroups partitions the current roster for the given round and, in
// classic mode, assigns prompts from the deck continuing at the session's
// cursor.
func (s *SessionService) buildGroups(ctx context.Context, session *model.Session, roundIndex int) ([]model.Group, int, error) {
	teams, err := s.teams.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, session.PromptCursor, fmt.Errorf("failed to list teams: %w", err)
	}
	groups := game.BuildGroups(teams, roundIndex, session.Settings.TargetGroupSize, session.Settings.Mode)

	cursor := session.PromptCursor
	if session.Settings.Mode == model.ModeClassic {
		deck, err := s.decks.GetByID(ctx, session.Settings.DeckID)
		if err != nil {
			return nil, cursor, fmt.Errorf("failed to load deck: %w", err)
		}
		if deck != nil {
			cursor = game.AssignPrompts(groups, deck.Prompts, cursor)
		}
	}
	return groups, cursor, nil
}

func (s *SessionService) requireHost(ctx context.Context, sessionID, hostID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if hostID != "" && session.HostID != hostID {
		return nil, ErrNotHost
	}
	return session, nil
}

func (s *SessionService) resolveByCode(ctx context.Context, code string) (*model.Session, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if id, err := s.sessCache.ResolveCode(ctx, code); err == nil && id != "" {
		if session, err := s.sessions.GetByID(ctx, id); err == nil && session != nil {
			return session, nil
		}
	}
	// Cache miss; MongoDB is authoritative.
	return s.sessions.GetByCode(ctx, code)
}

func (s *SessionService) cacheMeta(ctx context.Context, session *model.Session) {
	meta := &cache.SessionMeta{
		SessionID:  session.ID,
		Code:       session.Code,
		Phase:      session.Phase,
		Deadline:   session.Deadline,
		Paused:     session.Paused,
		RoundIndex: session.RoundIndex,
		Mode:       session.Settings.Mode,
	}
	if err := s.sessCache.SetMeta(ctx, meta); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("failed to mirror session meta")
	}
}

// reapCaches drops the Redis mirrors once a session is over; MongoDB keeps
// the durable record.
func (s *SessionService) reapCaches(ctx context.Context, session *model.Session) {
	if err := s.sessCache.Delete(ctx, session.ID, session.Code); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("failed to drop session meta")
	}
	if err := s.leaderboard.Delete(ctx, session.ID); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("failed to drop leaderboard mirror")
	}
}

func (s *SessionService) publish(ctx context.Context, sessionID string, typ model.EventType, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, sessionID, model.NewEvent(typ, sessionID, payload)); err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Str("event", string(typ)).Msg("failed to publish event")
	}
}

// generateJoinCode creates a 6-char code from an unambiguous charset.
func (s *SessionService) generateJoinCode(ctx context.Context) (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, codeLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}

		code := make([]byte, codeLen)
		for i := range code {
			code[i] = chars[int(b[i])%len(chars)]
		}
		codeStr := string(code)

		exists, err := s.sessCache.CodeExists(ctx, codeStr)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		if existing, err := s.sessions.GetByCode(ctx, codeStr); err != nil {
			return "", err
		} else if existing == nil {
			return codeStr, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique join code")
}

// mergeSettings overlays non-zero override fields on the defaults.
func mergeSettings(base, override model.SessionSettings) model.SessionSettings {
	out := base
	if override.Mode != "" {
		out.Mode = override.Mode
	}
	if override.MaxTeams > 0 {
		out.MaxTeams = override.MaxTeams
	}
	if override.TotalRounds > 0 {
		out.TotalRounds = override.TotalRounds
	}
	if override.TargetGroupSize > 0 {
		out.TargetGroupSize = override.TargetGroupSize
	}
	if override.DeckID != "" {
		out.DeckID = override.DeckID
	}
	if override.CategorySelectSec > 0 {
		out.CategorySelectSec = override.CategorySelectSec
	}
	if override.AnswerSec > 0 {
		out.AnswerSec = override.AnswerSec
	}
	if override.VoteSec > 0 {
		out.VoteSec = override.VoteSec
	}
	if override.ResultsSec > 0 {
		out.ResultsSec = override.ResultsSec
	}
	out.LateJoin = override.LateJoin || base.LateJoin
	return out
}
