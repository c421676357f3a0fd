package model

import "time"

// Vote records a team's pick for one group's answers. At most one live vote
// exists per (session, round, voter, group); revoting during the vote phase
// overwrites the target in place.
type Vote struct {
	ID          string    `json:"id" bson:"_id"`
	SessionID   string    `json:"sessionId" bson:"sessionId"`
	RoundIndex  int       `json:"roundIndex" bson:"roundIndex"`
	VoterTeamID string    `json:"voterTeamId" bson:"voterTeamId"`
	GroupID     string    `json:"groupId" bson:"groupId"`
	AnswerID    string    `json:"answerId" bson:"answerId"`
	CastAt      time.Time `json:"castAt" bson:"castAt"`
}
