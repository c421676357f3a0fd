package model

import "time"

// Team represents a group of people playing from one phone.
type Team struct {
	ID        string   `json:"id" bson:"_id"`
	SessionID string   `json:"sessionId" bson:"sessionId"`
	Name      string   `json:"name" bson:"name"`
	NameLower string   `json:"-" bson:"nameLower"`
	Captain   string   `json:"captain" bson:"captain"`
	Members   []string `json:"members,omitempty" bson:"members,omitempty"`
	Score     int      `json:"score" bson:"score"`
	Kicked    bool     `json:"kicked" bson:"kicked"`
	Banned    bool     `json:"banned" bson:"banned"`

	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt" bson:"lastActiveAt"`
}

// Active reports whether the team still takes part in grouping and scoring.
func (t *Team) Active() bool {
	return !t.Kicked && !t.Banned
}
