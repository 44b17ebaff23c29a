// Package game is the entry point the HTTP layer calls: it resolves the
// day's secret and scores validated guesses against it.
package game

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dreamware/dailyword/internal/ledger"
	"github.com/dreamware/dailyword/internal/scoring"
)

var (
	// ErrInvalidLength is returned when a guess is not exactly four characters
	ErrInvalidLength = errors.New("guess must be exactly 4 letters")
	// ErrInvalidWord is returned when a guess is not in the dictionary
	ErrInvalidWord = errors.New("not a valid word")
)

const tracerName = "github.com/dreamware/dailyword/internal/game"

// Dictionary validates guesses
type Dictionary interface {
	IsValid(word string) bool
}

// SecretSource resolves the secret word of a date
type SecretSource interface {
	GetOrAssign(ctx context.Context, today time.Time) (string, error)
}

// Feedback is the outcome of one accepted guess
type Feedback struct {
	Marks  [scoring.WordLength]scoring.Mark
	Solved bool
	Answer string // Set only when Solved
}

// Stats tracks guess outcomes
type Stats struct {
	Guesses             uint64 `json:"guesses"`              // Guesses scored
	Solved              uint64 `json:"solved"`               // Guesses that matched the secret
	Rejected            uint64 `json:"rejected"`             // Guesses refused by length or dictionary
	PersistenceFailures uint64 `json:"persistence_failures"` // Secret lookups that failed to save
}

// Game wires the dictionary and the ledger together
type Game struct {
	dict   Dictionary
	secret SecretSource
	stats  *Stats
	tracer trace.Tracer
}

// New creates a game over dict and secret
func New(dict Dictionary, secret SecretSource) *Game {
	return &Game{
		dict:   dict,
		secret: secret,
		stats:  &Stats{},
		tracer: otel.Tracer(tracerName),
	}
}

// TodayWord returns the secret for the calendar date of date.
// It is for internal use only and must never be sent to players.
func (g *Game) TodayWord(ctx context.Context, date time.Time) (string, error) {
	ctx, span := g.tracer.Start(ctx, "game.TodayWord")
	defer span.End()

	w, err := g.secret.GetOrAssign(ctx, date)
	if err != nil {
		g.recordSecretError(span, err)
		return "", err
	}
	return w, nil
}

// SubmitGuess validates raw and scores it against the secret of date.
// Invalid guesses are rejected before the secret is resolved, so they never
// cause a new day to be assigned.
func (g *Game) SubmitGuess(ctx context.Context, date time.Time, raw string) (Feedback, error) {
	ctx, span := g.tracer.Start(ctx, "game.SubmitGuess",
		trace.WithAttributes(attribute.String("game.day", ledger.DayKey(date))))
	defer span.End()

	guess := strings.ToUpper(strings.TrimSpace(raw))
	if len([]rune(guess)) != scoring.WordLength {
		atomic.AddUint64(&g.stats.Rejected, 1)
		span.SetAttributes(attribute.String("game.rejected", "length"))
		return Feedback{}, ErrInvalidLength
	}
	if !g.dict.IsValid(guess) {
		atomic.AddUint64(&g.stats.Rejected, 1)
		span.SetAttributes(attribute.String("game.rejected", "dictionary"))
		return Feedback{}, ErrInvalidWord
	}

	secret, err := g.secret.GetOrAssign(ctx, date)
	if err != nil {
		g.recordSecretError(span, err)
		return Feedback{}, err
	}

	res, err := scoring.Score(secret, guess)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score")
		return Feedback{}, err
	}

	atomic.AddUint64(&g.stats.Guesses, 1)
	fb := Feedback{Marks: res.Marks, Solved: res.Solved}
	if res.Solved {
		atomic.AddUint64(&g.stats.Solved, 1)
		fb.Answer = secret
	}
	span.SetAttributes(attribute.Bool("game.solved", res.Solved))
	return fb, nil
}

func (g *Game) recordSecretError(span trace.Span, err error) {
	var perr *ledger.PersistenceError
	if errors.As(err, &perr) {
		atomic.AddUint64(&g.stats.PersistenceFailures, 1)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "resolve secret")
}

// Stats returns a snapshot of guess counters
func (g *Game) Stats() Stats {
	return Stats{
		Guesses:             atomic.LoadUint64(&g.stats.Guesses),
		Solved:              atomic.LoadUint64(&g.stats.Solved),
		Rejected:            atomic.LoadUint64(&g.stats.Rejected),
		PersistenceFailures: atomic.LoadUint64(&g.stats.PersistenceFailures),
	}
}

// Colors returns the tile colours of the feedback
func (f Feedback) Colors() []string {
	return scoring.Result{Marks: f.Marks, Solved: f.Solved}.Colors()
}
