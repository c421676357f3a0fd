package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizrumble/internal/model"
	"quizrumble/internal/repository"
)

// LedgerService records answers, votes, and category picks during a live
// round. Submissions are last-write-wins upserts on their natural key, so a
// retried request lands on the same row instead of duplicating it.
type LedgerService struct {
	sessions repository.SessionRepo
	teams    repository.TeamRepo
	rounds   repository.RoundRepo
	answers  repository.AnswerRepo
	votes    repository.VoteRepo

	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	sessions repository.SessionRepo,
	teams repository.TeamRepo,
	rounds repository.RoundRepo,
	answers repository.AnswerRepo,
	votes repository.VoteRepo,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		sessions: sessions,
		teams:    teams,
		rounds:   rounds,
		answers:  answers,
		votes:    votes,
		log:      log,
		now:      time.Now,
	}
}

// SetPublisher sets the notification channel for ledger events
func (s *LedgerService) SetPublisher(p Publisher) {
	s.publisher = p
}

// SubmitAnswer records a team's answer for the current round. A submission
// after the session has ended is silently dropped so a phone with a stale
// screen gets a clean dismissal instead of an error page.
func (s *LedgerService) SubmitAnswer(ctx context.Context, sessionID, teamID, text string) (*model.Answer, error) {
	session, team, err := s.requireTeam(ctx, sessionID, teamID)
	if err != nil {
		return nil, err
	}
	if session.Phase == model.PhaseEnded {
		return nil, nil
	}
	if session.Phase != model.PhaseAnswer {
		return nil, ErrInvalidTransition
	}

	round, err := s.rounds.Get(ctx, sessionID, session.RoundIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round == nil {
		return nil, ErrInvalidTransition
	}
	group := round.GroupOf(team.ID)
	if group == nil {
		return nil, ErrNotInGroup
	}

	answer := &model.Answer{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		RoundIndex:  session.RoundIndex,
		TeamID:      team.ID,
		GroupID:     group.ID,
		Text:        strings.TrimSpace(text),
		SubmittedAt: s.now(),
	}
	stored, err := s.answers.Upsert(ctx, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}

	s.publish(ctx, sessionID, model.EventAnswerReceived, map[string]interface{}{
		"teamId":  team.ID,
		"groupId": group.ID,
	})
	return stored, nil
}

// SubmitVote records a team's pick in one group. Teams cannot vote for their
// own answer nor inside their own group; revoting in the same group replaces
// the earlier pick.
func (s *LedgerService) SubmitVote(ctx context.Context, sessionID, teamID, answerID string) (*model.Vote, error) {
	session, team, err := s.requireTeam(ctx, sessionID, teamID)
	if err != nil {
		return nil, err
	}
	if session.Phase == model.PhaseEnded {
		return nil, nil
	}
	if session.Phase != model.PhaseVote {
		return nil, ErrInvalidTransition
	}

	answer, err := s.answers.GetByID(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer: %w", err)
	}
	if answer == nil || answer.SessionID != sessionID || answer.RoundIndex != session.RoundIndex {
		return nil, ErrNotInGroup
	}
	if answer.TeamID == team.ID {
		return nil, ErrSelfVote
	}

	round, err := s.rounds.Get(ctx, sessionID, session.RoundIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round == nil {
		return nil, ErrInvalidTransition
	}
	group := round.GroupByID(answer.GroupID)
	if group == nil {
		return nil, ErrNotInGroup
	}
	if group.HasTeam(team.ID) {
		return nil, ErrOwnGroupVote
	}

	vote := &model.Vote{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		RoundIndex:  session.RoundIndex,
		VoterTeamID: team.ID,
		GroupID:     group.ID,
		AnswerID:    answer.ID,
		CastAt:      s.now(),
	}
	stored, err := s.votes.Upsert(ctx, vote)
	if err != nil {
		return nil, fmt.Errorf("failed to store vote: %w", err)
	}

	s.publish(ctx, sessionID, model.EventVoteReceived, map[string]interface{}{
		"voterTeamId": team.ID,
		"groupId":     group.ID,
	})
	return stored, nil
}

// SelectCategorySlot lets a group's selecting team redeem a board slot. The
// slot flip is a conditional update, so two groups grabbing the same slot
// resolve to exactly one winner; the reveal broadcasts the concealed bonus.
func (s *LedgerService) SelectCategorySlot(ctx context.Context, sessionID, teamID, categoryID string, slotIndex int) (*model.Group, error) {
	session, team, err := s.requireTeam(ctx, sessionID, teamID)
	if err != nil {
		return nil, err
	}
	if session.Phase == model.PhaseEnded {
		return nil, nil
	}
	if session.Phase != model.PhaseCategorySelect {
		return nil, ErrInvalidTransition
	}
	if session.Grid == nil {
		return nil, ErrInvalidTransition
	}

	round, err := s.rounds.Get(ctx, sessionID, session.RoundIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}
	if round == nil {
		return nil, ErrInvalidTransition
	}
	group := round.GroupOf(team.ID)
	if group == nil {
		return nil, ErrNotInGroup
	}
	if group.SelectingTeamID != team.ID {
		return nil, ErrNotSelectingTeam
	}
	if group.SlotIndex >= 0 {
		// This group already picked this round.
		return nil, ErrSlotUsed
	}

	cat, catIdx := session.Grid.Category(categoryID)
	if cat == nil || slotIndex < 0 || slotIndex >= len(cat.Slots) {
		return nil, ErrSlotUsed
	}
	slot := cat.Slots[slotIndex]
	if slot.Locked {
		return nil, ErrSlotUsed
	}

	taken, err := s.sessions.MarkSlotUsed(ctx, sessionID, catIdx, slotIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to claim slot: %w", err)
	}
	if !taken {
		return nil, ErrSlotUsed
	}

	bonus := slot.Bonus
	if err := s.rounds.SetGroupPick(ctx, sessionID, session.RoundIndex, group.ID, slot.Prompt, categoryID, slotIndex, &bonus); err != nil {
		return nil, fmt.Errorf("failed to record pick: %w", err)
	}

	group.Prompt = slot.Prompt
	group.CategoryID = categoryID
	group.SlotIndex = slotIndex
	group.Bonus = &bonus

	s.publish(ctx, sessionID, model.EventSlotRevealed, map[string]interface{}{
		"groupId":    group.ID,
		"categoryId": categoryID,
		"slotIndex":  slotIndex,
		"prompt":     slot.Prompt,
		"bonus":      bonus,
	})
	s.log.Debug().Str("session", sessionID).Str("group", group.ID).
		Str("category", categoryID).Int("slot", slotIndex).Msg("slot redeemed")
	return group, nil
}

func (s *LedgerService) requireTeam(ctx context.Context, sessionID, teamID string) (*model.Session, *model.Team, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load team: %w", err)
	}
	if team == nil || team.SessionID != sessionID || !team.Active() {
		return nil, nil, ErrTeamNotFound
	}
	return session, team, nil
}

func (s *LedgerService) publish(ctx context.Context, sessionID string, typ model.EventType, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, sessionID, model.NewEvent(typ, sessionID, payload)); err != nil {
		s.log.Warn().Err(err).Str("session", sessionID).Str("event", string(typ)).Msg("failed to publish event")
	}
}
