package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrumble/internal/game"
	"quizrumble/internal/model"
)

type testEnv struct {
	sessions *memSessionRepo
	teams    *memTeamRepo
	rounds   *memRoundRepo
	answers  *memAnswerRepo
	votes    *memVoteRepo
	decks    *memDeckRepo

	sessCache *memSessionCache
	lb        *memLeaderboard
	publisher *memPublisher
	watcher   *fakeWatcher

	svc    *SessionService
	ledger *LedgerService
}

type fakeWatcher struct {
	watched []string
}

func (w *fakeWatcher) Watch(sessionID string) {
	w.watched = append(w.watched, sessionID)
}

func testDeck() *model.Deck {
	return &model.Deck{
		ID:   "deck1",
		Name: "House Deck",
		Prompts: []string{
			"Best excuse for being late",
			"Worst superpower",
			"A terrible name for a boat",
			"The last thing you want to hear from a pilot",
		},
		Categories: []model.DeckCategory{
			{ID: "cat-food", Name: "Food", Prompts: []string{"Worst pizza topping", "A soup nobody ordered"}},
			{ID: "cat-travel", Name: "Travel", Prompts: []string{"Worst souvenir", "A hotel amenity gone wrong"}},
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		sessions:  newMemSessionRepo(),
		teams:     newMemTeamRepo(),
		rounds:    newMemRoundRepo(),
		answers:   newMemAnswerRepo(),
		votes:     newMemVoteRepo(),
		decks:     newMemDeckRepo(testDeck()),
		sessCache: newMemSessionCache(),
		lb:        newMemLeaderboard(),
		publisher: &memPublisher{},
		watcher:   &fakeWatcher{},
	}

	defaults := model.SessionSettings{
		Mode:              model.ModeClassic,
		MaxTeams:          20,
		TotalRounds:       3,
		TargetGroupSize:   2,
		DeckID:            "deck1",
		CategorySelectSec: 30,
		AnswerSec:         60,
		VoteSec:           45,
		ResultsSec:        15,
	}

	auth := NewAuthService("host", "secret", "test-jwt-secret")
	env.svc = NewSessionService(
		env.sessions, env.teams, env.rounds, env.answers, env.votes, env.decks,
		env.sessCache, env.lb, auth,
		game.DefaultScoreConfig(), game.DefaultBonusSet(), defaults,
		zerolog.Nop(),
	)
	env.svc.SetPublisher(env.publisher)
	env.svc.SetWatcher(env.watcher)

	env.ledger = NewLedgerService(env.sessions, env.teams, env.rounds, env.answers, env.votes, zerolog.Nop())
	env.ledger.SetPublisher(env.publisher)
	return env
}

// addTeam joins a team with a deterministic join order.
func (e *testEnv) addTeam(t *testing.T, session *model.Session, name string, order int) *model.Team {
	t.Helper()
	team := &model.Team{
		ID:        "team-" + name,
		SessionID: session.ID,
		Name:      name,
		NameLower: name,
		JoinedAt:  time.Unix(int64(1000+order), 0),
	}
	require.NoError(t, e.teams.Create(context.Background(), team))
	return team
}

func TestCreateSessionClassic(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.svc.CreateSession(context.Background(), "host1", nil)
	require.NoError(t, err)

	assert.Len(t, session.Code, 6)
	assert.Equal(t, model.PhaseLobby, session.Phase)
	assert.Nil(t, session.Grid)
	assert.Equal(t, "host1", session.HostID)
}

func TestCreateSessionCategoryModeBuildsGrid(t *testing.T) {
	env := newTestEnv(t)

	session, err := env.svc.CreateSession(context.Background(), "host1",
		&model.SessionSettings{Mode: model.ModeCategorySelect})
	require.NoError(t, err)

	require.NotNil(t, session.Grid)
	require.Len(t, session.Grid.Categories, 2)
	for _, cat := range session.Grid.Categories {
		assert.Len(t, cat.Slots, 2)
		for _, slot := range cat.Slots {
			assert.NotEmpty(t, slot.Prompt)
			assert.NotEmpty(t, slot.Bonus.Kind)
		}
	}
}

func TestCreateSessionUnknownDeck(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateSession(context.Background(), "host1",
		&model.SessionSettings{DeckID: "nope"})
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestJoinSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)

	resp, err := env.svc.JoinSession(ctx, session.Code, "The Regulars", []string{"ana", "bo"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "The Regulars", resp.Team.Name)
	assert.Equal(t, "the regulars", resp.Team.NameLower)
	assert.Equal(t, "ana", resp.Team.Captain)

	_, err = env.svc.JoinSession(ctx, session.Code, "the REGULARS", nil)
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = env.svc.JoinSession(ctx, "ZZZZZZ", "Ghosts", nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinSessionBlankNameRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, session.Code, "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = env.svc.JoinSession(ctx, session.Code, "", nil)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestJoinSessionBannedNameRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)

	resp, err := env.svc.JoinSession(ctx, session.Code, "Trouble", nil)
	require.NoError(t, err)
	require.NoError(t, env.svc.BanTeam(ctx, session.ID, resp.Team.ID, "host1"))

	_, err = env.svc.JoinSession(ctx, session.Code, "trouble", nil)
	assert.ErrorIs(t, err, ErrTeamBanned)
}

func TestJoinSessionFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1",
		&model.SessionSettings{MaxTeams: 2})
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, session.Code, "one", nil)
	require.NoError(t, err)
	_, err = env.svc.JoinSession(ctx, session.Code, "two", nil)
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, session.Code, "three", nil)
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestJoinSessionAfterStartRequiresLateJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "early", 0)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	_, err = env.svc.JoinSession(ctx, session.Code, "late", nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStartSessionNoTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	assert.ErrorIs(t, err, ErrNoTeams)
}

func TestStartSessionBuildsFirstRound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)
	env.addTeam(t, session, "b", 1)
	env.addTeam(t, session, "c", 2)
	env.addTeam(t, session, "d", 3)

	started, err := env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	assert.Equal(t, model.PhaseAnswer, started.Phase)
	require.NotNil(t, started.Deadline)
	assert.NotNil(t, started.StartedAt)
	assert.Equal(t, []string{session.ID}, env.watcher.watched)

	round, err := env.rounds.Get(ctx, session.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, round)
	require.Len(t, round.Groups, 2)
	for _, g := range round.Groups {
		assert.Len(t, g.TeamIDs, 2)
		assert.NotEmpty(t, g.Prompt)
	}
}

func TestStartSessionWrongHost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)

	_, err = env.svc.StartSession(ctx, session.ID, "impostor")
	assert.ErrorIs(t, err, ErrNotHost)
}

func TestAdvancePhaseStaleCallerLoses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)

	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseLobby)
	require.NoError(t, err)

	// A second caller still holding the lobby view must not double-advance.
	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseLobby)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := env.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAnswer, current.Phase)
	assert.Equal(t, 0, current.RoundIndex)
}

func TestFinalRoundResultsEndsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1",
		&model.SessionSettings{TotalRounds: 1})
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)
	env.addTeam(t, session, "b", 1)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	for _, from := range []model.Phase{model.PhaseAnswer, model.PhaseVote, model.PhaseResults} {
		_, err = env.svc.AdvancePhase(ctx, session.ID, from)
		require.NoError(t, err)
	}

	current, err := env.sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseEnded, current.Phase)
	assert.NotNil(t, current.EndedAt)
	assert.NotEmpty(t, env.publisher.byType(model.EventSessionEnded))
}

func TestResultsToNextRoundRebuildsGroups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)
	env.addTeam(t, session, "b", 1)
	kicked := env.addTeam(t, session, "c", 2)
	env.addTeam(t, session, "d", 3)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseAnswer)
	require.NoError(t, err)
	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseVote)
	require.NoError(t, err)

	// Removal lands when the next round's groups are built.
	require.NoError(t, env.svc.KickTeam(ctx, session.ID, kicked.ID, "host1"))

	next, err := env.svc.AdvancePhase(ctx, session.ID, model.PhaseResults)
	require.NoError(t, err)
	assert.Equal(t, 1, next.RoundIndex)

	round, err := env.rounds.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, round)
	total := 0
	for _, g := range round.Groups {
		assert.False(t, g.HasTeam(kicked.ID))
		total += len(g.TeamIDs)
	}
	assert.Equal(t, 3, total)
}

func TestPauseResumeFreezesClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)

	base := time.Unix(5000, 0)
	env.svc.now = func() time.Time { return base }

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	// 20s into a 60s answer phase.
	env.svc.now = func() time.Time { return base.Add(20 * time.Second) }
	paused, err := env.svc.PauseSession(ctx, session.ID, "host1", true)
	require.NoError(t, err)
	assert.True(t, paused.Paused)
	assert.Equal(t, int64(40_000), paused.RemainingMS)

	// Resuming later restores the remaining 40s from the resume instant.
	resumeAt := base.Add(5 * time.Minute)
	env.svc.now = func() time.Time { return resumeAt }
	resumed, err := env.svc.PauseSession(ctx, session.ID, "host1", false)
	require.NoError(t, err)
	assert.False(t, resumed.Paused)
	require.NotNil(t, resumed.Deadline)
	assert.Equal(t, resumeAt.Add(40*time.Second), *resumed.Deadline)
	assert.Equal(t, int64(0), resumed.RemainingMS)
}

func TestPauseInLobbyRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)

	_, err = env.svc.PauseSession(ctx, session.ID, "host1", true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVoteSettlementAppliesDeltasOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	t1 := env.addTeam(t, session, "a", 0)
	t2 := env.addTeam(t, session, "b", 1)
	t3 := env.addTeam(t, session, "c", 2)
	t4 := env.addTeam(t, session, "d", 3)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	a1, err := env.ledger.SubmitAnswer(ctx, session.ID, t1.ID, "answer one")
	require.NoError(t, err)
	_, err = env.ledger.SubmitAnswer(ctx, session.ID, t2.ID, "answer two")
	require.NoError(t, err)
	a3, err := env.ledger.SubmitAnswer(ctx, session.ID, t3.ID, "answer three")
	require.NoError(t, err)
	a4, err := env.ledger.SubmitAnswer(ctx, session.ID, t4.ID, "answer four")
	require.NoError(t, err)

	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseAnswer)
	require.NoError(t, err)

	// Group {a,b}: both outside votes land on a1. Group {c,d}: split 1-1.
	for _, v := range []struct{ voter, answer string }{
		{t3.ID, a1.ID}, {t4.ID, a1.ID}, {t1.ID, a3.ID}, {t2.ID, a4.ID},
	} {
		_, err = env.ledger.SubmitVote(ctx, session.ID, v.voter, v.answer)
		require.NoError(t, err)
	}

	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseVote)
	require.NoError(t, err)

	// a1 wins its group outright: 2x100 votes + 1000. The other group ties,
	// so both answers take the winner bonus. Every team also voted for a
	// winner in its single eligible group: 100 + 200 + 300.
	want := map[string]int{t1.ID: 1800, t2.ID: 600, t3.ID: 1700, t4.ID: 1700}
	for teamID, expected := range want {
		team, err := env.teams.GetByID(ctx, teamID)
		require.NoError(t, err)
		assert.Equal(t, expected, team.Score, "team %s", teamID)
		assert.Equal(t, expected, env.lb.scores[session.ID][teamID])
	}
	assert.Len(t, env.publisher.byType(model.EventScoresPosted), 1)

	round, err := env.rounds.Get(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.True(t, round.Scored)
}

func TestSettlementSkippedWhenRoundAlreadyScored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	t1 := env.addTeam(t, session, "a", 0)
	env.addTeam(t, session, "b", 1)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	_, err = env.ledger.SubmitAnswer(ctx, session.ID, t1.ID, "answer one")
	require.NoError(t, err)
	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseAnswer)
	require.NoError(t, err)

	// Another settler already claimed the round.
	claimed, err := env.rounds.MarkScored(ctx, session.ID, 0)
	require.NoError(t, err)
	require.True(t, claimed)

	advanced, err := env.svc.AdvancePhase(ctx, session.ID, model.PhaseVote)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseResults, advanced.Phase)

	team, err := env.teams.GetByID(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, team.Score)
	assert.Empty(t, env.publisher.byType(model.EventScoresPosted))
}

func TestEndSessionIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	env.addTeam(t, session, "a", 0)
	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	ended, err := env.svc.EndSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseEnded, ended.Phase)

	again, err := env.svc.EndSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseEnded, again.Phase)
}

func TestGetLeaderboardRanksActiveTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	t1 := env.addTeam(t, session, "a", 0)
	t2 := env.addTeam(t, session, "b", 1)
	t3 := env.addTeam(t, session, "c", 2)

	env.teams.AddScore(ctx, t1.ID, 500)
	env.teams.AddScore(ctx, t2.ID, 500)
	env.teams.AddScore(ctx, t3.ID, 100)

	standings, err := env.svc.GetLeaderboard(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 1, standings[1].Rank)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestGetSessionStateIncludesOwnSubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	t1 := env.addTeam(t, session, "a", 0)
	env.addTeam(t, session, "b", 1)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	_, err = env.ledger.SubmitAnswer(ctx, session.ID, t1.ID, "mine")
	require.NoError(t, err)

	state, err := env.svc.GetSessionState(ctx, session.ID, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseAnswer, state.Session.Phase)
	require.NotNil(t, state.Round)
	require.NotNil(t, state.OwnAnswer)
	assert.Equal(t, "mine", state.OwnAnswer.Text)
	assert.Greater(t, state.RemainingMS, int64(0))

	// The ballot is withheld until voting opens.
	assert.Empty(t, state.Answers)
}

func TestGetSessionStateListsBallotDuringVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	t1 := env.addTeam(t, session, "a", 0)
	t2 := env.addTeam(t, session, "b", 1)
	t3 := env.addTeam(t, session, "c", 2)
	t4 := env.addTeam(t, session, "d", 3)

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	for _, team := range []*model.Team{t1, t2, t3, t4} {
		_, err = env.ledger.SubmitAnswer(ctx, session.ID, team.ID, "answer by "+team.Name)
		require.NoError(t, err)
	}
	_, err = env.svc.AdvancePhase(ctx, session.ID, model.PhaseAnswer)
	require.NoError(t, err)

	state, err := env.svc.GetSessionState(ctx, session.ID, t1.ID)
	require.NoError(t, err)
	require.Len(t, state.Answers, 4)

	// Every listed answer is votable through its id; authors stay concealed.
	for _, ballot := range state.Answers {
		assert.Empty(t, ballot.TeamID)
		assert.NotEmpty(t, ballot.GroupID)
		stored, err := env.answers.GetByID(ctx, ballot.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, stored.Text, ballot.Text)
	}
}

func TestEndSessionReapsCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.svc.CreateSession(ctx, "host1", nil)
	require.NoError(t, err)
	team := env.addTeam(t, session, "a", 0)
	require.NoError(t, env.lb.SetScore(ctx, session.ID, team.ID, 100))

	_, err = env.svc.StartSession(ctx, session.ID, "host1")
	require.NoError(t, err)
	_, err = env.svc.EndSession(ctx, session.ID, "host1")
	require.NoError(t, err)

	id, err := env.sessCache.ResolveCode(ctx, session.Code)
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Empty(t, env.lb.scores[session.ID])
}
