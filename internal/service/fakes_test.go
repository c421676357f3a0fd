package service

import (
	"context"
	"sync"
	"time"

	"quizrumble/internal/cache"
	"quizrumble/internal/model"
	"quizrumble/internal/repository"
)

// In-memory repository fakes. They reproduce the conditional-update semantics
// of the Mongo implementations under a mutex so the services' concurrency
// behavior is observable without a database.

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Code == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) Update(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) CompareAndSwapPhase(ctx context.Context, id string, expect model.Phase, upd repository.PhaseUpdate) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Phase != expect {
		return nil, nil
	}
	s.Phase = upd.Phase
	s.Deadline = upd.Deadline
	s.RoundIndex = upd.RoundIndex
	s.PromptCursor = upd.PromptCursor
	s.Paused = false
	s.RemainingMS = 0
	if upd.Phase == model.PhaseEnded {
		now := time.Now()
		s.EndedAt = &now
	}
	if upd.SetStarted {
		now := time.Now()
		s.StartedAt = &now
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) SetPaused(ctx context.Context, id string, paused bool, deadline *time.Time, remainingMS int64) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Paused == paused || s.Phase == model.PhaseLobby || s.Phase == model.PhaseEnded {
		return nil, nil
	}
	s.Paused = paused
	s.Deadline = deadline
	s.RemainingMS = remainingMS
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) End(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Phase == model.PhaseEnded {
		return nil, nil
	}
	now := time.Now()
	s.Phase = model.PhaseEnded
	s.Paused = false
	s.RemainingMS = 0
	s.Deadline = nil
	s.EndedAt = &now
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) MarkSlotUsed(ctx context.Context, id string, catIdx, slotIdx int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Grid == nil || catIdx >= len(s.Grid.Categories) {
		return false, nil
	}
	cat := &s.Grid.Categories[catIdx]
	if slotIdx >= len(cat.Slots) {
		return false, nil
	}
	slot := &cat.Slots[slotIdx]
	if slot.Used || slot.Locked {
		return false, nil
	}
	slot.Used = true
	return true, nil
}

func (r *memSessionRepo) ListUnfinished(ctx context.Context) ([]*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Session
	for _, s := range r.sessions {
		if s.Phase != model.PhaseLobby && s.Phase != model.PhaseEnded {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memTeamRepo struct {
	mu    sync.Mutex
	teams map[string]*model.Team
}

func newMemTeamRepo() *memTeamRepo {
	return &memTeamRepo{teams: make(map[string]*model.Team)}
}

func (r *memTeamRepo) Create(ctx context.Context, team *model.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *team
	r.teams[team.ID] = &cp
	return nil
}

func (r *memTeamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTeamRepo) GetByName(ctx context.Context, sessionID, nameLower string) (*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.teams {
		if t.SessionID == sessionID && t.NameLower == nameLower {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memTeamRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Team
	for _, t := range r.teams {
		if t.SessionID == sessionID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memTeamRepo) CountActive(ctx context.Context, sessionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.teams {
		if t.SessionID == sessionID && t.Active() {
			n++
		}
	}
	return n, nil
}

func (r *memTeamRepo) AddScore(ctx context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return 0, nil
	}
	t.Score += delta
	return t.Score, nil
}

func (r *memTeamRepo) SetKicked(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.teams[id]; ok {
		t.Kicked = true
	}
	return nil
}

func (r *memTeamRepo) SetBanned(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.teams[id]; ok {
		t.Banned = true
		t.Kicked = true
	}
	return nil
}

type memRoundRepo struct {
	mu     sync.Mutex
	rounds map[string]map[int]*model.Round
}

func newMemRoundRepo() *memRoundRepo {
	return &memRoundRepo{rounds: make(map[string]map[int]*model.Round)}
}

func (r *memRoundRepo) Create(ctx context.Context, round *model.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rounds[round.SessionID] == nil {
		r.rounds[round.SessionID] = make(map[int]*model.Round)
	}
	cp := *round
	cp.Groups = append([]model.Group(nil), round.Groups...)
	r.rounds[round.SessionID][round.Index] = &cp
	return nil
}

func (r *memRoundRepo) Get(ctx context.Context, sessionID string, index int) (*model.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.rounds[sessionID][index]
	if !ok {
		return nil, nil
	}
	cp := *rd
	cp.Groups = append([]model.Group(nil), rd.Groups...)
	return &cp, nil
}

func (r *memRoundRepo) MarkScored(ctx context.Context, sessionID string, index int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.rounds[sessionID][index]
	if !ok || rd.Scored {
		return false, nil
	}
	rd.Scored = true
	return true, nil
}

func (r *memRoundRepo) SetGroupPick(ctx context.Context, sessionID string, index int, groupID, prompt, categoryID string, slotIndex int, bonus *model.SlotBonus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rd, ok := r.rounds[sessionID][index]
	if !ok {
		return nil
	}
	for i := range rd.Groups {
		if rd.Groups[i].ID == groupID {
			rd.Groups[i].Prompt = prompt
			rd.Groups[i].CategoryID = categoryID
			rd.Groups[i].SlotIndex = slotIndex
			rd.Groups[i].Bonus = bonus
		}
	}
	return nil
}

type memAnswerRepo struct {
	mu      sync.Mutex
	answers map[string]*model.Answer
}

func newMemAnswerRepo() *memAnswerRepo {
	return &memAnswerRepo{answers: make(map[string]*model.Answer)}
}

func (r *memAnswerRepo) Upsert(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.SessionID == answer.SessionID && a.RoundIndex == answer.RoundIndex && a.TeamID == answer.TeamID {
			a.GroupID = answer.GroupID
			a.Text = answer.Text
			a.SubmittedAt = answer.SubmittedAt
			cp := *a
			return &cp, nil
		}
	}
	cp := *answer
	r.answers[answer.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memAnswerRepo) GetByID(ctx context.Context, id string) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAnswerRepo) GetByTeam(ctx context.Context, sessionID string, roundIndex int, teamID string) (*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.answers {
		if a.SessionID == sessionID && a.RoundIndex == roundIndex && a.TeamID == teamID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memAnswerRepo) ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Answer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Answer
	for _, a := range r.answers {
		if a.SessionID == sessionID && a.RoundIndex == roundIndex {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAnswerRepo) CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error) {
	list, _ := r.ListByRound(ctx, sessionID, roundIndex)
	return int64(len(list)), nil
}

type memVoteRepo struct {
	mu    sync.Mutex
	votes map[string]*model.Vote
}

func newMemVoteRepo() *memVoteRepo {
	return &memVoteRepo{votes: make(map[string]*model.Vote)}
}

func (r *memVoteRepo) Upsert(ctx context.Context, vote *model.Vote) (*model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.SessionID == vote.SessionID && v.RoundIndex == vote.RoundIndex &&
			v.VoterTeamID == vote.VoterTeamID && v.GroupID == vote.GroupID {
			v.AnswerID = vote.AnswerID
			v.CastAt = vote.CastAt
			cp := *v
			return &cp, nil
		}
	}
	cp := *vote
	r.votes[vote.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memVoteRepo) ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Vote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Vote
	for _, v := range r.votes {
		if v.SessionID == sessionID && v.RoundIndex == roundIndex {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memVoteRepo) CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error) {
	list, _ := r.ListByRound(ctx, sessionID, roundIndex)
	return int64(len(list)), nil
}

type memDeckRepo struct {
	mu    sync.Mutex
	decks map[string]*model.Deck
}

func newMemDeckRepo(decks ...*model.Deck) *memDeckRepo {
	r := &memDeckRepo{decks: make(map[string]*model.Deck)}
	for _, d := range decks {
		r.decks[d.ID] = d
	}
	return r
}

func (r *memDeckRepo) Upsert(ctx context.Context, deck *model.Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decks[deck.ID] = deck
	return nil
}

func (r *memDeckRepo) GetByID(ctx context.Context, id string) (*model.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.decks[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (r *memDeckRepo) List(ctx context.Context) ([]*model.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Deck
	for _, d := range r.decks {
		out = append(out, d)
	}
	return out, nil
}

type memSessionCache struct {
	mu    sync.Mutex
	metas map[string]*cache.SessionMeta
	codes map[string]string
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{
		metas: make(map[string]*cache.SessionMeta),
		codes: make(map[string]string),
	}
}

func (c *memSessionCache) SetMeta(ctx context.Context, meta *cache.SessionMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metas[meta.SessionID] = meta
	c.codes[meta.Code] = meta.SessionID
	return nil
}

func (c *memSessionCache) ResolveCode(ctx context.Context, code string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[code], nil
}

func (c *memSessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.codes[code]
	return ok, nil
}

func (c *memSessionCache) Delete(ctx context.Context, sessionID, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metas, sessionID)
	delete(c.codes, code)
	return nil
}

type memLeaderboard struct {
	mu     sync.Mutex
	scores map[string]map[string]int
}

func newMemLeaderboard() *memLeaderboard {
	return &memLeaderboard{scores: make(map[string]map[string]int)}
}

func (c *memLeaderboard) SetScore(ctx context.Context, sessionID, teamID string, score int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scores[sessionID] == nil {
		c.scores[sessionID] = make(map[string]int)
	}
	c.scores[sessionID][teamID] = score
	return nil
}

func (c *memLeaderboard) Remove(ctx context.Context, sessionID, teamID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scores[sessionID], teamID)
	return nil
}

func (c *memLeaderboard) Delete(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scores, sessionID)
	return nil
}

type memPublisher struct {
	mu     sync.Mutex
	events []*model.Event
}

func (p *memPublisher) Publish(ctx context.Context, sessionID string, evt *model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *memPublisher) byType(typ model.EventType) []*model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*model.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
