// Package main implements the daily word server, which picks one secret
// four-letter word per calendar day and scores players' guesses against it.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│              dailyword server            │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    /check   - Score a guess (POST)      │
//	│    /health  - Health check              │
//	│    /stats   - Counters and ledger usage │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    game.Game         - Guess facade     │
//	│    ledger.Ledger     - Date → word      │
//	│    storage backend   - file/sqlite/mem  │
//	└─────────────────────────────────────────┘
//
// Configuration (see internal/config):
//   - DAILYWORD_LISTEN: Listen address (default ":8080")
//   - DAILYWORD_STORE: file, sqlite or memory (default "file")
//   - DAILYWORD_STORE_PATH: Ledger location (default "data/ledger.json")
//   - DAILYWORD_DICTIONARY: Optional YAML word list
//   - DAILYWORD_TIMEZONE: Zone whose midnight starts a new day
//   - DAILYWORD_OTEL_ENDPOINT: Optional OTLP/HTTP trace endpoint
//
// Example usage:
//
//	DAILYWORD_STORE=sqlite ./server
//	curl -X POST localhost:8080/check -d '{"guess":"mint"}'
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/dailyword/internal/client"
	"github.com/dreamware/dailyword/internal/config"
	"github.com/dreamware/dailyword/internal/dictionary"
	"github.com/dreamware/dailyword/internal/game"
	"github.com/dreamware/dailyword/internal/ledger"
	"github.com/dreamware/dailyword/internal/storage"
	"github.com/dreamware/dailyword/internal/storage/sqlite"
	"github.com/dreamware/dailyword/internal/telemetry"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

// Player-facing error texts
const (
	msgInvalidWord   = "Not a valid Word!"
	msgInvalidLength = "Guess must be exactly 4 letters"
	msgBadJSON       = "bad json"
	msgRetryLater    = "Please try again later"
	msgNotAllowed    = "method not allowed"
	msgInternal      = "internal error"
)

const maxBodyBytes = 1 << 10

// server holds the request-scoped dependencies of the HTTP handlers.
type server struct {
	game   *game.Game
	ledger *ledger.Ledger
	loc    *time.Location
	now    func() time.Time
}

// statsResponse is the body of GET /stats
type statsResponse struct {
	Game   game.Stats   `json:"game"`
	Ledger ledger.Stats `json:"ledger"`
}

func newServer(g *game.Game, l *ledger.Ledger, loc *time.Location) *server {
	if loc == nil {
		loc = time.Local
	}
	return &server{game: g, ledger: l, loc: loc, now: time.Now}
}

// today is the current instant in the configured zone, so the ledger keys
// it by that zone's calendar date.
func (s *server) today() time.Time {
	return s.now().In(s.loc)
}

// routes builds the HTTP handler tree.
func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", s.handleCheck)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return withRequestID(mux)
}

// main wires configuration, dictionary, store and ledger together and serves
// until SIGINT or SIGTERM.
//
// Startup is all-or-nothing: a bad config, an unreadable dictionary or an
// unreadable ledger is fatal and the server never listens.
func main() {
	log.SetPrefix("dailyword ")

	cfg, err := config.Load()
	if err != nil {
		logFatal("config: %v", err)
		return
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, "dailyword", cfg.OTelEndpoint)
	if err != nil {
		logFatal("telemetry: %v", err)
		return
	}

	srv, cleanup, err := setup(ctx, cfg)
	if err != nil {
		logFatal("startup: %v", err)
		return
	}
	defer cleanup()

	s := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (store %s at %s, zone %s)", cfg.Listen, cfg.Store, cfg.StorePath, srv.loc)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("telemetry shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// setup builds the server from cfg. The returned cleanup closes the store.
func setup(ctx context.Context, cfg config.Config) (*server, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	dict, err := loadDictionary(cfg.DictionaryPath)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("dictionary loaded: %d secrets, %d valid guesses", dict.Len(), dict.GuessCount())

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	l, err := ledger.New(ctx, dict.Pool(), store)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	return newServer(game.New(dict, l), l, loc), closeStore, nil
}

func loadDictionary(path string) (*dictionary.Dictionary, error) {
	if path == "" {
		return dictionary.LoadDefault()
	}
	return dictionary.LoadFile(path)
}

// openStore picks the ledger backend named by cfg.Store.
func openStore(cfg config.Config) (storage.LedgerStore, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case config.StoreMemory:
		log.Printf("store: memory (assignments are lost on restart)")
		return storage.NewMemoryStore(), noop, nil
	case config.StoreFile:
		fs, err := storage.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create store directory: %w", err)
		}
		db, err := sqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// handleCheck scores one guess.
//
// Endpoint: POST /check
//
// Response:
//   - 200 OK: {"result":[...],"correct":bool,"answer"?:string}
//   - 400 Bad Request: malformed body, wrong length or unknown word
//   - 405 Method Not Allowed: anything but POST
//   - 503 Service Unavailable: today's word could not be saved
func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
		return
	}

	var req client.CheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadJSON)
		return
	}

	fb, err := s.game.SubmitGuess(r.Context(), s.today(), req.Guess)
	if err != nil {
		var perr *ledger.PersistenceError
		switch {
		case errors.Is(err, game.ErrInvalidLength):
			writeError(w, http.StatusBadRequest, msgInvalidLength)
		case errors.Is(err, game.ErrInvalidWord):
			writeError(w, http.StatusBadRequest, msgInvalidWord)
		case errors.As(err, &perr):
			log.Printf("check[%s] %v", requestID(r.Context()), err)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, msgRetryLater)
		default:
			log.Printf("check[%s] %v", requestID(r.Context()), err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusOK, client.CheckResponse{
		Result:  fb.Colors(),
		Correct: fb.Solved,
		Answer:  fb.Answer,
	})
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, client.HealthResponse{Status: "ok"})
}

// handleStats returns guess counters and ledger usage. It never reveals a word.
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Game:   s.game.Stats(),
		Ledger: s.ledger.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, client.ErrorResponse{Error: msg})
}

type requestIDKey struct{}

// requestID returns the id attached by withRequestID, or "-"
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return "-"
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags every request with an id, echoes it in X-Request-ID and
// logs the outcome. A caller-supplied X-Request-ID is kept.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		log.Printf("http[%s] %s %s %d %s", id, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}
