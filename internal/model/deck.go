package model

import "time"

// DeckCategory is a named bundle of prompts used to build grid columns in
// category-select mode.
type DeckCategory struct {
	ID      string   `json:"id" bson:"id"`
	Name    string   `json:"name" bson:"name"`
	Prompts []string `json:"prompts" bson:"prompts"`
}

// Deck is a persistent content pack a session draws prompts from.
type Deck struct {
	ID         string         `json:"id" bson:"_id"`
	Name       string         `json:"name" bson:"name"`
	Prompts    []string       `json:"prompts" bson:"prompts"`
	Categories []DeckCategory `json:"categories,omitempty" bson:"categories,omitempty"`
	CreatedAt  time.Time      `json:"createdAt" bson:"createdAt"`
}
