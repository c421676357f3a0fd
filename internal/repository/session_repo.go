package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
)

// PhaseUpdate is the state applied atomically alongside a phase transition.
type PhaseUpdate struct {
	Phase        model.Phase
	Deadline     *time.Time
	RoundIndex   int
	PromptCursor int
	// SetStarted stamps startedAt, used on the transition out of lobby.
	SetStarted bool
}

// SessionRepo persists sessions. CompareAndSwapPhase is the single
// conditional-update primitive every phase transition goes through.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error

	// CompareAndSwapPhase applies upd only if the session is still in expect.
	// It returns (nil, nil) when another writer got there first.
	CompareAndSwapPhase(ctx context.Context, id string, expect model.Phase, upd PhaseUpdate) (*model.Session, error)

	// SetPaused freezes or restarts the phase clock. The paused filter makes
	// a repeated pause/resume a no-op instead of clobbering the remainder.
	SetPaused(ctx context.Context, id string, paused bool, deadline *time.Time, remainingMS int64) (*model.Session, error)

	// End moves a session to ended from any non-terminal phase.
	End(ctx context.Context, id string) (*model.Session, error)

	// MarkSlotUsed flips one grid slot's used flag, failing the swap when the
	// slot was already taken. Positions address the slot inside the document.
	MarkSlotUsed(ctx context.Context, id string, catIdx, slotIdx int) (bool, error)

	// ListUnfinished returns every session a restarted watcher must resume.
	ListUnfinished(ctx context.Context) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a session repository with its indexes.
func NewSessionRepo(db *mongo.Database) SessionRepo {
	repo := &sessionRepo{collection: db.Collection("sessions")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *sessionRepo) ensureIndexes(ctx context.Context) {
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "phase", Value: 1}},
	})
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	return err
}

func (r *sessionRepo) CompareAndSwapPhase(ctx context.Context, id string, expect model.Phase, upd PhaseUpdate) (*model.Session, error) {
	set := bson.M{
		"phase":        upd.Phase,
		"roundIndex":   upd.RoundIndex,
		"promptCursor": upd.PromptCursor,
		"paused":       false,
		"remainingMs":  int64(0),
	}
	update := bson.M{"$set": set}
	if upd.Deadline != nil {
		set["deadline"] = *upd.Deadline
	} else {
		update["$unset"] = bson.M{"deadline": ""}
	}
	if upd.Phase == model.PhaseEnded {
		set["endedAt"] = time.Now()
	}
	if upd.SetStarted {
		set["startedAt"] = time.Now()
	}

	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "phase": expect},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) SetPaused(ctx context.Context, id string, paused bool, deadline *time.Time, remainingMS int64) (*model.Session, error) {
	set := bson.M{"paused": paused, "remainingMs": remainingMS}
	update := bson.M{"$set": set}
	if deadline != nil {
		set["deadline"] = *deadline
	} else {
		update["$unset"] = bson.M{"deadline": ""}
	}

	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "paused": !paused, "phase": bson.M{"$nin": bson.A{model.PhaseLobby, model.PhaseEnded}}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) End(ctx context.Context, id string) (*model.Session, error) {
	now := time.Now()
	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "phase": bson.M{"$ne": model.PhaseEnded}},
		bson.M{
			"$set":   bson.M{"phase": model.PhaseEnded, "paused": false, "remainingMs": int64(0), "endedAt": now},
			"$unset": bson.M{"deadline": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) MarkSlotUsed(ctx context.Context, id string, catIdx, slotIdx int) (bool, error) {
	path := slotPath(catIdx, slotIdx)
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, path + ".used": false, path + ".locked": false},
		bson.M{"$set": bson.M{path + ".used": true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *sessionRepo) ListUnfinished(ctx context.Context) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"phase": bson.M{"$nin": bson.A{model.PhaseLobby, model.PhaseEnded}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func slotPath(catIdx, slotIdx int) string {
	return fmt.Sprintf("grid.categories.%d.slots.%d", catIdx, slotIdx)
}
