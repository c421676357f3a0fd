package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
)

// RoundRepo persists rounds and their group partitioning.
type RoundRepo interface {
	Create(ctx context.Context, round *model.Round) error
	Get(ctx context.Context, sessionID string, index int) (*model.Round, error)

	// MarkScored flips the scored flag exactly once; a false return means the
	// round was already settled by another caller.
	MarkScored(ctx context.Context, sessionID string, index int) (bool, error)

	// SetGroupPick writes a category pick's prompt and revealed bonus onto
	// one group of the round.
	SetGroupPick(ctx context.Context, sessionID string, index int, groupID, prompt, categoryID string, slotIndex int, bonus *model.SlotBonus) error
}

type roundRepo struct {
	collection *mongo.Collection
}

// NewRoundRepo creates a round repository with its indexes.
func NewRoundRepo(db *mongo.Database) RoundRepo {
	repo := &roundRepo{collection: db.Collection("rounds")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *roundRepo) ensureIndexes(ctx context.Context) {
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "index", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

func (r *roundRepo) Create(ctx context.Context, round *model.Round) error {
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, round)
	return err
}

func (r *roundRepo) Get(ctx context.Context, sessionID string, index int) (*model.Round, error) {
	var round model.Round
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID, "index": index}).Decode(&round)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (r *roundRepo) MarkScored(ctx context.Context, sessionID string, index int) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "index": index, "scored": false},
		bson.M{"$set": bson.M{"scored": true}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *roundRepo) SetGroupPick(ctx context.Context, sessionID string, index int, groupID, prompt, categoryID string, slotIndex int, bonus *model.SlotBonus) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"sessionId": sessionID, "index": index, "groups.id": groupID},
		bson.M{"$set": bson.M{
			"groups.$.prompt":     prompt,
			"groups.$.categoryId": categoryID,
			"groups.$.slotIndex":  slotIndex,
			"groups.$.bonus":      bonus,
		}},
	)
	return err
}
