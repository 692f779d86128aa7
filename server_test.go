package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer() *Server {
	return NewServer(NewStore(), nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func createPuzzle(t *testing.T, srv *Server, width, height int, words []string) *Puzzle {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/puzzles", map[string]any{
		"width": width, "height": height, "words": words, "seed": 1234,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create puzzle: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var p Puzzle
	json.NewDecoder(w.Body).Decode(&p)
	if p.ID == "" {
		t.Fatal("puzzle ID is empty")
	}
	return &p
}

func TestGamePageRoute(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/game/abc123", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Wordsearch") {
		t.Fatal("game page does not contain expected title")
	}
}

func TestCreateAndGetPuzzle(t *testing.T) {
	srv := newTestServer()
	p := createPuzzle(t, srv, 5, 5, []string{"cat"})

	if len(p.Placements) != 1 || p.Placements[0].Word != "cat" {
		t.Fatalf("expected one placement for 'cat', got %+v", p.Placements)
	}
	if p.Seed != 1234 {
		t.Fatalf("expected seed 1234, got %d", p.Seed)
	}
	for _, row := range p.Rows {
		if strings.ContainsRune(row, ' ') {
			t.Fatalf("rows should have no empty cells: %q", row)
		}
	}

	w := doJSON(t, srv, "GET", "/api/puzzles/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get puzzle: expected 200, got %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/puzzles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list puzzles: expected 200, got %d", w.Code)
	}
	var list []*Puzzle
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 1 {
		t.Fatalf("expected 1 puzzle listed, got %d", len(list))
	}

	w = doJSON(t, srv, "GET", "/api/puzzles/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown puzzle, got %d", w.Code)
	}
}

func TestCreatePuzzleValidation(t *testing.T) {
	srv := newTestServer()

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero width", map[string]any{"width": 0, "height": 5, "words": []string{"cat"}}},
		{"negative height", map[string]any{"width": 5, "height": -1, "words": []string{"cat"}}},
		{"no words", map[string]any{"width": 5, "height": 5, "words": []string{}}},
		{"oversized grid", map[string]any{"width": 100, "height": 5, "words": []string{"cat"}}},
		{"non-letter word", map[string]any{"width": 5, "height": 5, "words": []string{"c4t"}}},
	}
	for _, c := range cases {
		w := doJSON(t, srv, "POST", "/api/puzzles", c.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", c.name, w.Code, w.Body.String())
		}
	}
}

func TestCreatePuzzlePlacementFailure(t *testing.T) {
	srv := newTestServer()

	w := doJSON(t, srv, "POST", "/api/puzzles", map[string]any{
		"width": 3, "height": 3, "words": []string{"hello"},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "hello") {
		t.Fatalf("error should name the unplaceable word: %s", w.Body.String())
	}
}

func TestSuggestWordsUnconfigured(t *testing.T) {
	srv := newTestServer()

	w := doJSON(t, srv, "POST", "/api/wordlists", map[string]any{"theme": "ocean", "count": 5})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without Gemini, got %d", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/wordlists", map[string]any{"theme": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank theme, got %d", w.Code)
	}
}

func TestFullGameFlow(t *testing.T) {
	srv := newTestServer()
	puzzle := createPuzzle(t, srv, 6, 6, []string{"cat", "dog"})

	// Create game.
	w := doJSON(t, srv, "POST", "/api/games", map[string]any{"puzzle_id": puzzle.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var game GameSession
	json.NewDecoder(w.Body).Decode(&game)
	if game.ID == "" {
		t.Fatal("game ID is empty")
	}

	// Join game.
	w = doJSON(t, srv, "POST", "/api/games/"+game.ID+"/join", map[string]any{"pseudo": "Alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("join game: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var player Player
	json.NewDecoder(w.Body).Decode(&player)
	if player.Pseudo != "Alice" {
		t.Fatalf("expected pseudo Alice, got %s", player.Pseudo)
	}

	// Claim 'cat' where the create response says it was committed.
	pl := puzzle.Placements[0]
	claim := map[string]any{
		"pseudo": "Alice", "word": pl.Word,
		"row": pl.Row, "col": pl.Col,
		"dir": map[string]int{"drow": pl.Dir.DRow, "dcol": pl.Dir.DCol},
	}
	w = doJSON(t, srv, "POST", "/api/games/"+game.ID+"/claim", claim)
	if w.Code != http.StatusNoContent {
		t.Fatalf("claim: expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// Claiming the same word again conflicts.
	w = doJSON(t, srv, "POST", "/api/games/"+game.ID+"/claim", claim)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate claim: expected 409, got %d", w.Code)
	}

	// A claim at the wrong cell is rejected.
	wrong := map[string]any{
		"pseudo": "Alice", "word": "dog",
		"row": (puzzle.Placements[1].Row + 1) % 6, "col": (puzzle.Placements[1].Col + 1) % 6,
		"dir": map[string]int{"drow": 0, "dcol": 0},
	}
	w = doJSON(t, srv, "POST", "/api/games/"+game.ID+"/claim", wrong)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong claim: expected 400, got %d", w.Code)
	}

	// Get game state: found ledger updated, solution not leaked.
	w = doJSON(t, srv, "GET", "/api/games/"+game.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get game: expected 200, got %d", w.Code)
	}
	var resp struct {
		Found   map[string]string  `json:"found"`
		Players map[string]*Player `json:"players"`
		Puzzle  map[string]any     `json:"puzzle"`
	}
	json.NewDecoder(w.Body).Decode(&resp)

	if resp.Found["cat"] != "Alice" {
		t.Fatalf("expected 'cat' found by Alice, got %v", resp.Found)
	}
	if resp.Players["Alice"] == nil || resp.Players["Alice"].Score != 1 {
		t.Fatal("Alice should have score 1")
	}
	if resp.Puzzle == nil {
		t.Fatal("puzzle should be included in game response")
	}
	if _, leaked := resp.Puzzle["placements"]; leaked {
		t.Fatal("game payload must not leak the solution placements")
	}
	if _, ok := resp.Puzzle["rows"]; !ok {
		t.Fatal("game payload should include the letter rows")
	}
}

func TestClaimRequiresJoinedPlayer(t *testing.T) {
	srv := newTestServer()
	puzzle := createPuzzle(t, srv, 6, 6, []string{"cat"})

	w := doJSON(t, srv, "POST", "/api/games", map[string]any{"puzzle_id": puzzle.ID})
	var game GameSession
	json.NewDecoder(w.Body).Decode(&game)

	pl := puzzle.Placements[0]
	w = doJSON(t, srv, "POST", "/api/games/"+game.ID+"/claim", map[string]any{
		"pseudo": "Ghost", "word": pl.Word,
		"row": pl.Row, "col": pl.Col,
		"dir": map[string]int{"drow": pl.Dir.DRow, "dcol": pl.Dir.DCol},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("claim without join: expected 400, got %d", w.Code)
	}
}

func TestListGamesRoute(t *testing.T) {
	srv := newTestServer()
	puzzle := createPuzzle(t, srv, 6, 6, []string{"cat"})

	doJSON(t, srv, "POST", "/api/games", map[string]any{"puzzle_id": puzzle.ID})
	doJSON(t, srv, "POST", "/api/games", map[string]any{"puzzle_id": puzzle.ID})

	w := doJSON(t, srv, "GET", "/api/games", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list games: expected 200, got %d", w.Code)
	}
	var games []*GameView
	json.NewDecoder(w.Body).Decode(&games)
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	for _, g := range games {
		if g.PuzzleID != puzzle.ID {
			t.Fatalf("game should reference puzzle %s, got %s", puzzle.ID, g.PuzzleID)
		}
	}
}

func TestCreateGameInvalidPuzzle(t *testing.T) {
	srv := newTestServer()

	w := doJSON(t, srv, "POST", "/api/games", map[string]any{"puzzle_id": "nonexistent"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for key, expected := range headers {
		if got := w.Header().Get(key); got != expected {
			t.Errorf("header %s: expected %q, got %q", key, expected, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	if csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Second)

	// First 3 should pass.
	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// 4th should be blocked.
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be rate limited")
	}

	// Different IP should still be allowed.
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}
}

func TestCreatePuzzleRateLimited(t *testing.T) {
	srv := newTestServer()

	body := map[string]any{"width": 5, "height": 5, "words": []string{"cat"}}
	var last int
	for i := 0; i < 12; i++ {
		w := doJSON(t, srv, "POST", "/api/puzzles", body)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exhausting the per-IP budget, got %d", last)
	}
}
