// Package dictionary loads the secret word pool and the accepted guess
// vocabulary. A Dictionary is read-only once loaded and safe to share
// between goroutines.
package dictionary

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// WordLength is the number of letters in every word
const WordLength = 4

//go:embed words.yaml
var defaultWords []byte

// LoadError is returned when word data is missing or malformed
type LoadError struct {
	Source string // File path or "embedded"
	Err    error  // Underlying cause
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load dictionary %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrEmptyPool is wrapped by LoadError when no secret words were found
var ErrEmptyPool = errors.New("secret pool is empty")

// fileFormat is the YAML layout of a word list
type fileFormat struct {
	Secrets []string `yaml:"secrets"`
	Guesses []string `yaml:"guesses"`
}

// Dictionary holds the secret pool and the set of accepted guesses
type Dictionary struct {
	pool  []string            // Sorted, de-duplicated secrets
	valid map[string]struct{} // Accepted guesses, pool included
}

// LoadDefault parses the word list compiled into the binary
func LoadDefault() (*Dictionary, error) {
	return load("embedded", bytes.NewReader(defaultWords))
}

// LoadFile parses a YAML word list from disk
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return load(path, f)
}

// Load parses a YAML word list from r
func Load(r io.Reader) (*Dictionary, error) {
	return load("reader", r)
}

func load(source string, r io.Reader) (*Dictionary, error) {
	var raw fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: source, Err: ErrEmptyPool}
		}
		return nil, &LoadError{Source: source, Err: fmt.Errorf("parse yaml: %w", err)}
	}

	pool, err := normalizeAll(raw.Secrets)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("secrets: %w", err)}
	}
	if len(pool) == 0 {
		return nil, &LoadError{Source: source, Err: ErrEmptyPool}
	}
	guesses, err := normalizeAll(raw.Guesses)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("guesses: %w", err)}
	}

	valid := make(map[string]struct{}, len(pool)+len(guesses))
	for _, w := range pool {
		valid[w] = struct{}{}
	}
	for _, w := range guesses {
		valid[w] = struct{}{}
	}

	return &Dictionary{pool: pool, valid: valid}, nil
}

// normalizeAll upper-cases, validates, sorts and de-duplicates words
func normalizeAll(words []string) ([]string, error) {
	out := make([]string, 0, len(words))
	for i, w := range words {
		n, ok := Normalize(w)
		if !ok {
			return nil, fmt.Errorf("entry %d %q is not a %d-letter word", i, w, WordLength)
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Normalize trims and upper-cases word, reporting whether the result is
// exactly WordLength ASCII letters.
func Normalize(word string) (string, bool) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if len(word) != WordLength {
		return word, false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'A' || word[i] > 'Z' {
			return word, false
		}
	}
	return word, true
}

// IsValid reports whether word is an accepted guess, ignoring case
func (d *Dictionary) IsValid(word string) bool {
	n, ok := Normalize(word)
	if !ok {
		return false
	}
	_, found := d.valid[n]
	return found
}

// Pool returns a copy of the secret word pool in sorted order
func (d *Dictionary) Pool() []string {
	return slices.Clone(d.pool)
}

// Len returns the number of secret words
func (d *Dictionary) Len() int {
	return len(d.pool)
}

// GuessCount returns the number of accepted guesses
func (d *Dictionary) GuessCount() int {
	return len(d.valid)
}
