package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
)

// AnswerRepo persists answers with last-write-wins upsert semantics on the
// (session, round, team) key. Upsert returns the stored row: a resubmission
// lands on the existing document and keeps its original id.
type AnswerRepo interface {
	Upsert(ctx context.Context, answer *model.Answer) (*model.Answer, error)
	GetByID(ctx context.Context, id string) (*model.Answer, error)
	GetByTeam(ctx context.Context, sessionID string, roundIndex int, teamID string) (*model.Answer, error)
	ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Answer, error)
	CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error)
}

type answerRepo struct {
	collection *mongo.Collection
}

// NewAnswerRepo creates an answer repository with its indexes.
func NewAnswerRepo(db *mongo.Database) AnswerRepo {
	repo := &answerRepo{collection: db.Collection("answers")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *answerRepo) ensureIndexes(ctx context.Context) {
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sessionId", Value: 1},
			{Key: "roundIndex", Value: 1},
			{Key: "teamId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
}

func (r *answerRepo) Upsert(ctx context.Context, answer *model.Answer) (*model.Answer, error) {
	var stored model.Answer
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"sessionId":  answer.SessionID,
			"roundIndex": answer.RoundIndex,
			"teamId":     answer.TeamID,
		},
		bson.M{
			"$set": bson.M{
				"groupId":     answer.GroupID,
				"text":        answer.Text,
				"submittedAt": answer.SubmittedAt,
			},
			"$setOnInsert": bson.M{"_id": answer.ID},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *answerRepo) GetByID(ctx context.Context, id string) (*model.Answer, error) {
	var answer model.Answer
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&answer)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) GetByTeam(ctx context.Context, sessionID string, roundIndex int, teamID string) (*model.Answer, error) {
	var answer model.Answer
	err := r.collection.FindOne(ctx, bson.M{
		"sessionId":  sessionID,
		"roundIndex": roundIndex,
		"teamId":     teamID,
	}).Decode(&answer)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepo) ListByRound(ctx context.Context, sessionID string, roundIndex int) ([]*model.Answer, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID, "roundIndex": roundIndex})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var answers []*model.Answer
	if err = cursor.All(ctx, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) CountByRound(ctx context.Context, sessionID string, roundIndex int) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID, "roundIndex": roundIndex})
}
