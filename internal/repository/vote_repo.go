package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
)

// VoteRepo persists votes with last-write-wins upsert semantics on the
// (session, round, voter, group) key. Upsert returns the stored row: a revote
// lands on the existing document and keeps its original id.
type VoteRepo interface {
	Upsert(ctx context.Context, vote *model.Vote) (*model.Vote, error)
	ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Vote, error)
	CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error)
}

type voteRepo struct {
	collection *mongo.Collection
}

// NewVoteRepo creates a vote repository with its indexes.
func NewVoteRepo(db *mongo.Database) VoteRepo {
	repo := &voteRepo{collection: db.Collection("votes")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *voteRepo) ensureIndexes(ctx context.Context) {
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "roundIndex", Value: 1},
			{Key: "voterTeamId", Value: 1},
			{Key: "groupId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
}

func (r *voteRepo) Upsert(ctx context.Context, vote *model.Vote) (*model.Vote, error) {
	var stored model.Vote
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"sessionId":   vote.SessionID,
			"roundIndex":  vote.RoundIndex,
			"voterTeamId": vote.VoterTeamID,
			"groupId":     vote.GroupID,
		},
		bson.M{
			"$set": bson.M{
				"answerId": vote.AnswerID,
				"castAt":   vote.CastAt,
			},
			"$setOnInsert": bson.M{"_id": vote.ID},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *voteRepo) ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Vote, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID, "roundIndex": roundIndex})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var votes []*model.Vote
	if err = cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *voteRepo) CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID, "roundIndex": roundIndex})
}
