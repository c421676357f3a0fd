package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizrumble/internal/model"
	"quizrumble/internal/repository"
)

func main() {
	mongoURI := os.Getenv("QUIZRUMBLE_MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("QUIZRUMBLE_MONGO_DB")
	if dbName == "" {
		dbName = "quizrumble"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	decks := repository.NewDeckRepo(client.Database(dbName))

	deck := &model.Deck{
		ID:   "default",
		Name: "House Party",
		Prompts: []string{
			"The worst thing to say at a job interview",
			"A rejected flavor of toothpaste",
			"The real reason the dinosaurs went extinct",
			"A terrible name for a cruise ship",
			"The last thing you want to hear from your dentist",
			"An unhelpful motivational poster slogan",
			"A sport that should exist but doesn't",
			"The worst possible superpower",
			"Something you should never say at a wedding",
			"A suspicious item to bring through airport security",
			"The first rule of an extremely boring club",
			"A bad opening line for a bedtime story",
		},
		Categories: []model.DeckCategory{
			{
				ID:   "food",
				Name: "Food & Drink",
				Prompts: []string{
					"The worst pizza topping imaginable",
					"A soup nobody would order twice",
					"A cooking show that got cancelled after one episode",
					"The most disappointing thing to find in a lunchbox",
					"A questionable name for a restaurant",
					"The secret ingredient no chef will admit to",
					"A smoothie flavor invented at 3am",
				},
			},
			{
				ID:   "travel",
				Name: "Travel",
				Prompts: []string{
					"The worst souvenir to bring home",
					"A hotel amenity that should not exist",
					"The least reassuring airline announcement",
					"A tourist attraction nobody photographs twice",
					"The worst thing to forget to pack",
					"A road trip game that ends friendships",
					"An honest slogan for a budget airline",
				},
			},
			{
				ID:   "work",
				Name: "Office Life",
				Prompts: []string{
					"The worst icebreaker for a team meeting",
					"An email sign-off that gets you fired",
					"A perk that sounds good but isn't",
					"The real contents of the office fridge",
					"A motivational speech that backfired",
					"The most honest out-of-office reply",
					"A job title nobody can explain",
				},
			},
		},
	}

	if err := decks.Upsert(ctx, deck); err != nil {
		log.Fatalf("Failed to seed deck: %v", err)
	}

	fmt.Printf("Seeded deck %q with %d prompts and %d categories\n",
		deck.ID, len(deck.Prompts), len(deck.Categories))
}
