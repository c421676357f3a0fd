package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"quizrumble/internal/game"
	"quizrumble/internal/model"
)

// Config holds everything the server needs to run. Every flag can also be
// set through the environment with the QUIZRUMBLE_ prefix, dashes replaced
// by underscores (QUIZRUMBLE_MONGO_URI, QUIZRUMBLE_JWT_SECRET, ...).
type Config struct {
	Bind string
	Port int

	MongoURI  string
	MongoDB   string
	RedisAddr string
	RedisDB   int
	RedisPass string

	HostUsername string
	HostPassword string
	JWTSecret    string

	LogLevel string
	LogJSON  bool

	// Orchestrator pacing.
	TickInterval time.Duration

	// Session defaults; hosts can override per session.
	Mode            string
	MaxTeams        int
	TotalRounds     int
	TargetGroupSize int
	DeckID          string
	LateJoin        bool

	CategorySelectSec int
	AnswerSec         int
	VoteSec           int
	ResultsSec        int

	// Point table.
	VotePoints         int
	WinnerBonus        int
	RunnerUpBonus      int
	RunnerUpMinAnswers int
	CastPoints         int
	AccuracyBonus      int
	CompletionBonus    int
}

// Load parses flags and environment into a Config.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	v := viper.New()
	v.SetEnvPrefix("QUIZRUMBLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("quizrumble", pflag.ContinueOnError)

	fs.StringVar(&cfg.Bind, "bind", "0.0.0.0", "address to bind to")
	fs.IntVar(&cfg.Port, "port", 8080, "port to listen on")

	fs.StringVar(&cfg.MongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection string")
	fs.StringVar(&cfg.MongoDB, "mongo-db", "quizrumble", "MongoDB database name")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "Redis address")
	fs.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	fs.StringVar(&cfg.RedisPass, "redis-pass", "", "Redis password")

	fs.StringVar(&cfg.HostUsername, "host-username", "host", "host login username")
	fs.StringVar(&cfg.HostPassword, "host-password", "", "host login password")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret")

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&cfg.LogJSON, "log-json", true, "log as JSON instead of console output")

	fs.DurationVar(&cfg.TickInterval, "tick-interval", time.Second, "phase watcher tick interval")

	fs.StringVar(&cfg.Mode, "mode", string(model.ModeClassic), "default game mode (classic, category_select)")
	fs.IntVar(&cfg.MaxTeams, "max-teams", 20, "default team cap per session")
	fs.IntVar(&cfg.TotalRounds, "total-rounds", 3, "default number of rounds")
	fs.IntVar(&cfg.TargetGroupSize, "target-group-size", 4, "default teams per group")
	fs.StringVar(&cfg.DeckID, "deck-id", "default", "default prompt deck")
	fs.BoolVar(&cfg.LateJoin, "late-join", false, "allow teams to join after the session starts")

	fs.IntVar(&cfg.CategorySelectSec, "category-select-sec", 30, "category pick phase length in seconds")
	fs.IntVar(&cfg.AnswerSec, "answer-sec", 90, "answer phase length in seconds")
	fs.IntVar(&cfg.VoteSec, "vote-sec", 60, "vote phase length in seconds")
	fs.IntVar(&cfg.ResultsSec, "results-sec", 20, "results phase length in seconds")

	fs.IntVar(&cfg.VotePoints, "vote-points", 100, "points per vote an answer receives")
	fs.IntVar(&cfg.WinnerBonus, "winner-bonus", 1000, "bonus for a group's top-voted answer")
	fs.IntVar(&cfg.RunnerUpBonus, "runner-up-bonus", 500, "bonus for a group's second tier")
	fs.IntVar(&cfg.RunnerUpMinAnswers, "runner-up-min-answers", 3, "minimum answers in a group for the runner-up bonus")
	fs.IntVar(&cfg.CastPoints, "cast-points", 100, "points per vote cast")
	fs.IntVar(&cfg.AccuracyBonus, "accuracy-bonus", 200, "bonus for voting for a group winner")
	fs.IntVar(&cfg.CompletionBonus, "completion-bonus", 300, "bonus for voting in every eligible group")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt-secret is required")
	}
	if c.HostPassword == "" {
		return fmt.Errorf("host-password is required")
	}
	mode := model.GameMode(c.Mode)
	if mode != model.ModeClassic && mode != model.ModeCategorySelect {
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}
	if c.TotalRounds < 1 {
		return fmt.Errorf("total-rounds must be at least 1")
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// SessionDefaults returns the default settings applied to new sessions.
func (c *Config) SessionDefaults() model.SessionSettings {
	return model.SessionSettings{
		Mode:              model.GameMode(c.Mode),
		MaxTeams:          c.MaxTeams,
		TotalRounds:       c.TotalRounds,
		TargetGroupSize:   c.TargetGroupSize,
		DeckID:            c.DeckID,
		LateJoin:          c.LateJoin,
		CategorySelectSec: c.CategorySelectSec,
		AnswerSec:         c.AnswerSec,
		VoteSec:           c.VoteSec,
		ResultsSec:        c.ResultsSec,
	}
}

// ScoreConfig returns the configured point table.
func (c *Config) ScoreConfig() game.ScoreConfig {
	return game.ScoreConfig{
		VotePoints:         c.VotePoints,
		WinnerBonus:        c.WinnerBonus,
		RunnerUpBonus:      c.RunnerUpBonus,
		RunnerUpMinAnswers: c.RunnerUpMinAnswers,
		CastPoints:         c.CastPoints,
		AccuracyBonus:      c.AccuracyBonus,
		CompletionBonus:    c.CompletionBonus,
	}
}
