package main

import (
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

//go:embed frontend
var frontendFS embed.FS

const maxBodySize = 1 << 20 // 1 MB

const (
	maxGridDim   = 64
	maxWordCount = 100
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Server is the main HTTP server.
type Server struct {
	mux       *http.ServeMux
	store     *Store
	gemini    *GeminiClient
	sse       *Broadcaster
	createRL  *rateLimiter
	suggestRL *rateLimiter
	claimRL   *rateLimiter
}

// NewServer creates a configured HTTP server.
func NewServer(store *Store, gemini *GeminiClient) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		store:     store,
		gemini:    gemini,
		sse:       NewBroadcaster(),
		createRL:  newRateLimiter(10, time.Minute),  // 10 puzzles/min per IP
		suggestRL: newRateLimiter(5, time.Minute),   // 5 Gemini calls/min per IP
		claimRL:   newRateLimiter(60, time.Second),  // 60 claims/sec per IP
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Puzzle API
	s.mux.HandleFunc("POST /api/puzzles", s.handleCreatePuzzle)
	s.mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)

	// Word list suggestions
	s.mux.HandleFunc("POST /api/wordlists", s.handleSuggestWords)

	// Game API
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoinGame)
	s.mux.HandleFunc("POST /api/games/{id}/claim", s.handleClaim)
	s.mux.HandleFunc("GET /api/games/{id}/events", s.handleGameEvents)

	// Frontend static files
	frontendDir, _ := fs.Sub(frontendFS, "frontend")
	fileServer := http.FileServer(http.FS(frontendDir))
	s.mux.HandleFunc("GET /game/{id}", s.handleGamePage)
	s.mux.Handle("GET /", fileServer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// --- Puzzle handlers ---

// POST /api/puzzles — generate a wordsearch from dimensions and words.
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	if !s.createRL.allow(r.RemoteAddr) {
		jsonError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req struct {
		Width  int      `json:"width"`
		Height int      `json:"height"`
		Words  []string `json:"words"`
		Seed   int64    `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Width > maxGridDim || req.Height > maxGridDim {
		jsonError(w, "Grid dimensions are limited to 64x64", http.StatusBadRequest)
		return
	}
	if len(req.Words) == 0 {
		jsonError(w, "Field 'words' requires at least one word", http.StatusBadRequest)
		return
	}
	if len(req.Words) > maxWordCount {
		jsonError(w, "At most 100 words per puzzle", http.StatusBadRequest)
		return
	}

	puzzle, err := GeneratePuzzle(req.Width, req.Height, req.Words, req.Seed)
	if err != nil {
		var placementErr *PlacementFailedError
		var dimErr *InvalidDimensionsError
		switch {
		case errors.As(err, &placementErr):
			jsonError(w, placementErr.Error(), http.StatusUnprocessableEntity)
		case errors.As(err, &dimErr):
			jsonError(w, dimErr.Error(), http.StatusBadRequest)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	s.store.SavePuzzle(puzzle)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(puzzle)
}

// GET /api/puzzles — list all puzzles.
func (s *Server) handleListPuzzles(w http.ResponseWriter, _ *http.Request) {
	puzzles := s.store.ListPuzzles()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(puzzles)
}

// GET /api/puzzles/{id} — get a single puzzle, solution included.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzle := s.store.GetPuzzle(r.PathValue("id"))
	if puzzle == nil {
		jsonError(w, "Puzzle not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(puzzle)
}

// --- Word list handler ---

// POST /api/wordlists — ask Gemini for themed words.
func (s *Server) handleSuggestWords(w http.ResponseWriter, r *http.Request) {
	if !s.suggestRL.allow(r.RemoteAddr) {
		jsonError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Theme string `json:"theme"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Theme) == "" {
		jsonError(w, "Field 'theme' required", http.StatusBadRequest)
		return
	}

	if s.gemini == nil {
		jsonError(w, "Word suggestions are not configured", http.StatusServiceUnavailable)
		return
	}
	if req.Count < 1 || req.Count > 30 {
		req.Count = 10
	}

	words, err := s.gemini.SuggestWords(r.Context(), req.Theme, req.Count)
	if err != nil {
		log.Printf("Gemini suggest error: %v", err)
		jsonError(w, "Word suggestion failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{"words": words})
}

// --- Game handlers ---

// puzzleView is the player-facing puzzle payload: the letters and the word
// list, never the placements.
type puzzleView struct {
	ID     string   `json:"id"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Words  []string `json:"words"`
	Rows   []string `json:"rows"`
}

func newPuzzleView(p *Puzzle) *puzzleView {
	return &puzzleView{
		ID:     p.ID,
		Width:  p.Width,
		Height: p.Height,
		Words:  p.Words,
		Rows:   p.Rows,
	}
}

// POST /api/games — create a game from a puzzle.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID string `json:"puzzle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PuzzleID == "" {
		jsonError(w, "Field 'puzzle_id' required", http.StatusBadRequest)
		return
	}

	game, err := s.store.CreateGame(req.PuzzleID)
	if err != nil {
		jsonError(w, "Puzzle not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(game.View())
}

// GET /api/games — list all game sessions.
func (s *Server) handleListGames(w http.ResponseWriter, _ *http.Request) {
	games := s.store.ListGames()
	views := make([]*GameView, 0, len(games))
	for _, g := range games {
		views = append(views, g.View())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// GET /api/games/{id} — get current game state without the solution.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Game not found", http.StatusNotFound)
		return
	}
	puzzle := s.store.GetPuzzle(game.PuzzleID)
	if puzzle == nil {
		jsonError(w, "Puzzle not found", http.StatusNotFound)
		return
	}

	resp := struct {
		*GameView
		Puzzle *puzzleView `json:"puzzle"`
	}{
		GameView: game.View(),
		Puzzle:   newPuzzleView(puzzle),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// POST /api/games/{id}/join — join a game with a pseudo.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Game not found", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string `json:"pseudo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Pseudo == "" {
		jsonError(w, "Field 'pseudo' required", http.StatusBadRequest)
		return
	}

	pseudo := sanitizePseudo(req.Pseudo)
	if pseudo == "" {
		jsonError(w, "Invalid pseudo", http.StatusBadRequest)
		return
	}

	player := game.AddPlayer(pseudo)

	s.sse.Broadcast(game.ID, Event{
		Type:   "player_joined",
		Pseudo: player.Pseudo,
		Color:  player.Color,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(player)
}

// POST /api/games/{id}/claim — claim a found word.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if !s.claimRL.allow(r.RemoteAddr) {
		jsonError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		return
	}

	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Game not found", http.StatusNotFound)
		return
	}
	puzzle := s.store.GetPuzzle(game.PuzzleID)
	if puzzle == nil {
		jsonError(w, "Puzzle not found", http.StatusNotFound)
		return
	}

	var req struct {
		Pseudo string    `json:"pseudo"`
		Word   string    `json:"word"`
		Row    int       `json:"row"`
		Col    int       `json:"col"`
		Dir    Direction `json:"dir"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Word == "" {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	player, err := game.Claim(puzzle, sanitizePseudo(req.Pseudo), req.Word, req.Row, req.Col, req.Dir)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyFound):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	s.sse.Broadcast(game.ID, Event{
		Type:   "word_found",
		Word:   strings.ToLower(strings.TrimSpace(req.Word)),
		Pseudo: player.Pseudo,
		Color:  player.Color,
	})

	if game.Complete(puzzle) {
		s.sse.Broadcast(game.ID, Event{
			Type:  "game_over",
			Found: game.FoundWords(),
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/games/{id}/events — SSE stream.
func (s *Server) handleGameEvents(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		jsonError(w, "Game not found", http.StatusNotFound)
		return
	}

	playerPseudo := sanitizePseudo(r.URL.Query().Get("pseudo"))

	s.sse.ServeSSE(w, r, game.ID, func(c *client) {
		// Send initial game state on connect.
		view := game.View()
		c.sendEvent(Event{
			Type:    "game_state",
			Found:   view.Found,
			Players: view.Players,
		})
	}, func() {
		// On disconnect: broadcast player_left if pseudo was provided.
		if playerPseudo != "" {
			game.RemovePlayer(playerPseudo)
			s.sse.Broadcast(game.ID, Event{
				Type:   "player_left",
				Pseudo: playerPseudo,
			})
		}
	})
}

// --- Frontend page handlers ---

// GET /game/{id} — serve the game page.
func (s *Server) handleGamePage(w http.ResponseWriter, _ *http.Request) {
	data, _ := frontendFS.ReadFile("frontend/game.html")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// --- Helpers ---

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizePseudo(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 20 {
		s = string([]rune(s)[:20])
	}
	return s
}
