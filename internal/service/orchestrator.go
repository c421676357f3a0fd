package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quizrumble/internal/game"
	"quizrumble/internal/model"
	"quizrumble/internal/repository"
)

// Orchestrator drives timed phases forward without host intervention. Each
// watched session gets one goroutine that ticks, checks the deadline and the
// early-advance conditions, and calls AdvancePhase with the phase it last
// observed. Losing that compare-and-set to a manual host advance is normal
// and simply means the next tick re-reads fresh state.
type Orchestrator struct {
	sessions repository.SessionRepo
	teams    repository.TeamRepo
	rounds   repository.RoundRepo
	answers  repository.AnswerRepo
	votes    repository.VoteRepo

	svc  *SessionService
	log  zerolog.Logger
	tick time.Duration

	mu       sync.Mutex
	watching map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	sessions repository.SessionRepo,
	teams repository.TeamRepo,
	rounds repository.RoundRepo,
	answers repository.AnswerRepo,
	votes repository.VoteRepo,
	svc *SessionService,
	tick time.Duration,
	log zerolog.Logger,
) *Orchestrator {
	if tick <= 0 {
		tick = time.Second
	}
	return &Orchestrator{
		sessions: sessions,
		teams:    teams,
		rounds:   rounds,
		answers:  answers,
		votes:    votes,
		svc:      svc,
		log:      log,
		tick:     tick,
		watching: make(map[string]context.CancelFunc),
	}
}

// Watch starts supervising a session. Watching an already-watched session is
// a no-op.
func (o *Orchestrator) Watch(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.watching[sessionID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.watching[sessionID] = cancel
	o.wg.Add(1)
	go o.run(ctx, sessionID)
}

// Resume re-attaches watchers to every in-flight session after a restart.
func (o *Orchestrator) Resume(ctx context.Context) error {
	sessions, err := o.sessions.ListUnfinished(ctx)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		o.Watch(s.ID)
	}
	if len(sessions) > 0 {
		o.log.Info().Int("count", len(sessions)).Msg("resumed session watchers")
	}
	return nil
}

// Stop cancels all watchers and waits for them to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	for id, cancel := range o.watching {
		cancel()
		delete(o.watching, id)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) unwatch(sessionID string) {
	o.mu.Lock()
	if cancel, ok := o.watching[sessionID]; ok {
		cancel()
		delete(o.watching, sessionID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context, sessionID string) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	backoff := o.tick

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		done, err := o.step(ctx, sessionID)
		if err != nil {
			o.log.Warn().Err(err).Str("session", sessionID).Dur("backoff", backoff).Msg("watcher step failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = o.tick

		if done {
			o.unwatch(sessionID)
			return
		}
	}
}

// step inspects the session once and advances it when due. It returns true
// when the session no longer needs supervision.
func (o *Orchestrator) step(ctx context.Context, sessionID string) (bool, error) {
	session, err := o.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil || session.Phase == model.PhaseEnded {
		return true, nil
	}
	if session.Paused || session.Phase == model.PhaseLobby {
		return false, nil
	}

	due := session.Deadline != nil && !time.Now().Before(*session.Deadline)
	if !due {
		early, err := o.earlyAdvance(ctx, session)
		if err != nil {
			return false, err
		}
		if !early {
			return false, nil
		}
	}

	_, err = o.svc.AdvancePhase(ctx, sessionID, session.Phase)
	if errors.Is(err, ErrInvalidTransition) {
		// Raced with a manual advance; the next tick sees the new phase.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// earlyAdvance reports whether the current phase is already complete: every
// grouped team answered, every team spent all its eligible votes, or every
// group has a prompt picked.
func (o *Orchestrator) earlyAdvance(ctx context.Context, session *model.Session) (bool, error) {
	switch session.Phase {
	case model.PhaseAnswer:
		round, teams, err := o.roundRoster(ctx, session)
		if err != nil || round == nil {
			return false, err
		}
		expected := groupedActiveCount(round, teams)
		if expected == 0 {
			return false, nil
		}
		n, err := o.answers.CountByRound(ctx, session.ID, session.RoundIndex)
		if err != nil {
			return false, err
		}
		return n >= int64(expected), nil

	case model.PhaseVote:
		round, teams, err := o.roundRoster(ctx, session)
		if err != nil || round == nil {
			return false, err
		}
		expected := 0
		for _, t := range teams {
			if t.Active() && round.GroupOf(t.ID) != nil {
				expected += game.EligibleGroupCount(round, t.ID)
			}
		}
		if expected == 0 {
			return false, nil
		}
		n, err := o.votes.CountByRound(ctx, session.ID, session.RoundIndex)
		if err != nil {
			return false, err
		}
		return n >= int64(expected), nil

	case model.PhaseCategorySelect:
		round, err := o.rounds.Get(ctx, session.ID, session.RoundIndex)
		if err != nil || round == nil {
			return false, err
		}
		for i := range round.Groups {
			if round.Groups[i].SlotIndex < 0 {
				return false, nil
			}
		}
		return true, nil
	}
	return false, nil
}

func (o *Orchestrator) roundRoster(ctx context.Context, session *model.Session) (*model.Round, []*model.Team, error) {
	round, err := o.rounds.Get(ctx, session.ID, session.RoundIndex)
	if err != nil || round == nil {
		return nil, nil, err
	}
	teams, err := o.teams.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return round, teams, nil
}

func groupedActiveCount(round *model.Round, teams []*model.Team) int {
	n := 0
	for _, t := range teams {
		if t.Active() && round.GroupOf(t.ID) != nil {
			n++
		}
	}
	return n
}
