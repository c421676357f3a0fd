package model

import "time"

// Answer is a team's submission for a round. At most one live answer exists
// per (session, round, team); resubmission during the answer phase overwrites
// the text in place.
type Answer struct {
	ID          string    `json:"id" bson:"_id"`
	SessionID   string    `json:"sessionId" bson:"sessionId"`
	RoundIndex  int       `json:"roundIndex" bson:"roundIndex"`
	TeamID      string    `json:"teamId" bson:"teamId"`
	GroupID     string    `json:"groupId" bson:"groupId"`
	Text        string    `json:"text" bson:"text"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}
