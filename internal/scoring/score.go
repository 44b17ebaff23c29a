// Package scoring computes per-letter feedback for a guess against a secret word.
package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// WordLength is the number of letters in every secret and guess
const WordLength = 4

// ErrWordLength is returned when the secret or guess is not WordLength letters
var ErrWordLength = errors.New("word must be exactly 4 letters")

// Mark is the feedback for a single guessed letter
type Mark uint8

const (
	// Absent means the letter is not in the secret, or all its occurrences are already claimed
	Absent Mark = iota
	// Present means the letter occurs elsewhere in the secret
	Present
	// Exact means the letter matches the secret at the same position
	Exact
)

// String returns the tile colour used on the wire
func (m Mark) String() string {
	switch m {
	case Exact:
		return "green"
	case Present:
		return "yellow"
	default:
		return "gray"
	}
}

// MarshalText encodes a mark as its tile colour
func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a tile colour back into a mark
func (m *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "green":
		*m = Exact
	case "yellow":
		*m = Present
	case "gray":
		*m = Absent
	default:
		return fmt.Errorf("unknown mark %q", text)
	}
	return nil
}

// Result is the feedback for one guess
type Result struct {
	Marks  [WordLength]Mark // Per-position feedback
	Solved bool             // All positions exact
}

// Score compares guess against secret and returns per-position marks.
//
// Exact matches are resolved first and consume their letter from the
// secret's remaining counts; the remaining positions are then marked
// present left to right while the letter still has unclaimed occurrences.
// A letter is therefore never credited more times than it appears in the
// secret.
func Score(secret, guess string) (Result, error) {
	secret = strings.ToUpper(secret)
	guess = strings.ToUpper(guess)
	if len(secret) != WordLength || len(guess) != WordLength {
		return Result{}, ErrWordLength
	}

	var res Result
	remaining := make(map[byte]int, WordLength)

	for i := 0; i < WordLength; i++ {
		if guess[i] == secret[i] {
			res.Marks[i] = Exact
			continue
		}
		remaining[secret[i]]++
	}

	exact := 0
	for i := 0; i < WordLength; i++ {
		if res.Marks[i] == Exact {
			exact++
			continue
		}
		if remaining[guess[i]] > 0 {
			res.Marks[i] = Present
			remaining[guess[i]]--
		}
	}

	res.Solved = exact == WordLength
	return res, nil
}

// Colors returns the tile colours for each position
func (r Result) Colors() []string {
	out := make([]string, WordLength)
	for i, m := range r.Marks {
		out[i] = m.String()
	}
	return out
}
