// Package main is a terminal client for the daily word server. It reads
// guesses from stdin, posts them to /check and prints coloured tiles.
//
// Configuration:
//   - PLAY_SERVER: Server base URL (default "http://127.0.0.1:8080")
//   - PLAY_ATTEMPTS: Guesses allowed before giving up (default 8)
//
// Example usage:
//
//	PLAY_SERVER=http://localhost:8080 ./play
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dreamware/dailyword/internal/client"
	"github.com/dreamware/dailyword/internal/config"
	"github.com/dreamware/dailyword/internal/dictionary"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

type playConfig struct {
	Server   string `env:"PLAY_SERVER" envDefault:"http://127.0.0.1:8080"`
	Attempts int    `env:"PLAY_ATTEMPTS" envDefault:"8"`
}

// checkFunc submits one guess
type checkFunc func(ctx context.Context, guess string) (client.CheckResponse, error)

// ANSI tile backgrounds keyed by feedback colour
var tileStyles = map[string]string{
	"green":  "\033[42m\033[30m",             // green background, black text
	"yellow": "\033[43m\033[30m",             // yellow background, black text
	"gray":   "\033[48;5;236m\033[38;5;255m", // gray background, white text
}

const ansiReset = "\033[0m"

func main() {
	log.SetPrefix("play ")
	log.SetFlags(0)

	var cfg playConfig
	if err := config.ParseEnv(&cfg); err != nil {
		logFatal("config: %v", err)
		return
	}
	if cfg.Attempts < 1 {
		logFatal("PLAY_ATTEMPTS must be positive, got %d", cfg.Attempts)
		return
	}

	ctx := context.Background()
	hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := client.Health(hctx, cfg.Server)
	cancel()
	if err != nil {
		logFatal("server %s unreachable: %v", cfg.Server, err)
		return
	}

	check := func(ctx context.Context, guess string) (client.CheckResponse, error) {
		return client.Check(ctx, cfg.Server, guess)
	}
	if _, err := play(ctx, os.Stdin, os.Stdout, check, cfg.Attempts); err != nil {
		logFatal("%v", err)
	}
}

// play runs one game. It returns true when the word was found.
//
// Guesses rejected locally or by the server do not use up an attempt.
// End of input ends the game without error.
func play(ctx context.Context, in io.Reader, out io.Writer, check checkFunc, attempts int) (bool, error) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Guess the %d-letter word of the day. %d attempts.\n", dictionary.WordLength, attempts)

	for used := 0; used < attempts; {
		fmt.Fprintf(out, "Guess %d/%d: ", used+1, attempts)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return false, scanner.Err()
		}

		guess, ok := dictionary.Normalize(scanner.Text())
		if !ok {
			fmt.Fprintln(out, "Guess must be exactly 4 letters")
			continue
		}

		resp, err := check(ctx, guess)
		if err != nil {
			se, ok := client.AsStatus(err)
			if !ok {
				return false, err
			}
			if se.Rejected() || se.Code == http.StatusServiceUnavailable {
				fmt.Fprintln(out, message(se))
				continue
			}
			return false, err
		}
		used++

		fmt.Fprintln(out, render(guess, resp.Result))
		if resp.Correct {
			fmt.Fprintf(out, "Solved in %d! The word was %s.\n", used, resp.Answer)
			return true, nil
		}
	}

	fmt.Fprintln(out, "Out of attempts. Try again tomorrow.")
	return false, nil
}

func message(se *client.StatusError) string {
	if se.Message != "" {
		return se.Message
	}
	return se.Error()
}

// render draws one tile per letter coloured by result
func render(guess string, result []string) string {
	var b strings.Builder
	for i, r := range guess {
		style, ok := "", false
		if i < len(result) {
			style, ok = tileStyles[result[i]]
		}
		if !ok {
			fmt.Fprintf(&b, " %c ", r)
			continue
		}
		fmt.Fprintf(&b, "%s %c %s", style, r, ansiReset)
	}
	return b.String()
}
