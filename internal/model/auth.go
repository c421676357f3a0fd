package model

import "github.com/golang-jwt/jwt/v5"

// HostClaims are JWT claims for host authentication
type HostClaims struct {
	HostID string `json:"hostId"`
	jwt.RegisteredClaims
}

// TeamClaims are JWT claims for team session-scoped tokens
type TeamClaims struct {
	SessionID string `json:"sessionId"`
	TeamID    string `json:"teamId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for host login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"hostId"`
}

// JoinResponse is returned when a team joins a session
type JoinResponse struct {
	Team    *Team    `json:"team"`
	Token   string   `json:"token"`
	Session *Session `json:"session"`
}
