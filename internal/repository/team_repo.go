package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
)

// TeamRepo persists teams and their running scores.
type TeamRepo interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id string) (*model.Team, error)
	GetByName(ctx context.Context, sessionID, nameLower string) (*model.Team, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Team, error)
	CountActive(ctx context.Context, sessionID string) (int64, error)

	// AddScore atomically increments the running score and returns the new
	// total, so concurrent round settlements never lose an update.
	AddScore(ctx context.Context, id string, delta int) (int, error)

	SetKicked(ctx context.Context, id string) error
	SetBanned(ctx context.Context, id string) error
}

type teamRepo struct {
	collection *mongo.Collection
}

// NewTeamRepo creates a team repository with its indexes.
func NewTeamRepo(db *mongo.Database) TeamRepo {
	repo := &teamRepo{collection: db.Collection("teams")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *teamRepo) ensureIndexes(ctx context.Context) {
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "nameLower", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "score", Value: -1}},
	})
}

func (r *teamRepo) Create(ctx context.Context, team *model.Team) error {
	if team.JoinedAt.IsZero() {
		team.JoinedAt = time.Now()
	}
	team.LastActiveAt = team.JoinedAt
	_, err := r.collection.InsertOne(ctx, team)
	return err
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) GetByName(ctx context.Context, sessionID, nameLower string) (*model.Team, error) {
	var team model.Team
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID, "nameLower": nameLower}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Team, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID},
		options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var teams []*model.Team
	if err = cursor.All(ctx, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *teamRepo) CountActive(ctx context.Context, sessionID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"sessionId": sessionID,
		"kicked":    false,
		"banned":    false,
	})
}

func (r *teamRepo) AddScore(ctx context.Context, id string, delta int) (int, error) {
	var team model.Team
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"score": delta}, "$set": bson.M{"lastActiveAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&team)
	if err != nil {
		return 0, err
	}
	return team.Score, nil
}

func (r *teamRepo) SetKicked(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"kicked": true}})
	return err
}

func (r *teamRepo) SetBanned(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"banned": true, "kicked": true}})
	return err
}
