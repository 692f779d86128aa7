package main

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Claim rejection reasons.
var (
	ErrWordNotInPuzzle = errors.New("word is not part of this puzzle")
	ErrAlreadyFound    = errors.New("word has already been found")
	ErrWrongLocation   = errors.New("word does not run there")
	ErrNotJoined       = errors.New("player has not joined this game")
)

// Player represents a connected player.
type Player struct {
	Pseudo   string    `json:"pseudo"`
	Color    string    `json:"color"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// GameSession is a collaborative find-the-words session on a puzzle.
// Found maps each discovered word to the pseudo that claimed it.
type GameSession struct {
	ID        string             `json:"id"`
	PuzzleID  string             `json:"puzzle_id"`
	Players   map[string]*Player `json:"players"`
	Found     map[string]string  `json:"found"`
	CreatedAt time.Time          `json:"created_at"`
	mu        sync.Mutex
}

// playerColors is the palette assigned to players in order.
var playerColors = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea",
	"#ea580c", "#0891b2", "#c026d3", "#ca8a04",
}

// AddPlayer adds a player to the session and returns a copy of the
// player record. Copies keep handlers from reading a score another
// goroutine is bumping.
func (g *GameSession) AddPlayer(pseudo string) Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.Players[pseudo]; ok {
		return *p
	}

	p := &Player{
		Pseudo:   pseudo,
		Color:    playerColors[len(g.Players)%len(playerColors)],
		JoinedAt: time.Now(),
	}
	g.Players[pseudo] = p
	return *p
}

// RemovePlayer removes a player from the session. The found ledger keeps
// any words they claimed.
func (g *GameSession) RemovePlayer(pseudo string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Players, pseudo)
}

// Claim marks a word as found by pseudo if the claimed start and direction
// match where the word was committed in the puzzle. A claim in the exact
// reverse (starting at the far end, walking backwards) is accepted too,
// since the word reads the same trace on the grid.
func (g *GameSession) Claim(puzzle *Puzzle, pseudo, word string, row, col int, dir Direction) (Player, error) {
	word = strings.ToLower(strings.TrimSpace(word))

	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.Players[pseudo]
	if !ok {
		return Player{}, ErrNotJoined
	}

	var placement *Placement
	for i := range puzzle.Placements {
		if puzzle.Placements[i].Word == word {
			placement = &puzzle.Placements[i]
			break
		}
	}
	if placement == nil {
		return Player{}, ErrWordNotInPuzzle
	}

	if _, done := g.Found[word]; done {
		return Player{}, ErrAlreadyFound
	}

	if !matchesPlacement(placement, row, col, dir) {
		return Player{}, ErrWrongLocation
	}

	g.Found[word] = pseudo
	p.Score++
	return *p, nil
}

// matchesPlacement accepts the committed (start, dir) or its reverse trace.
func matchesPlacement(p *Placement, row, col int, dir Direction) bool {
	if row == p.Row && col == p.Col && dir == p.Dir {
		return true
	}
	n := len(p.Word) - 1
	endRow := p.Row + p.Dir.DRow*n
	endCol := p.Col + p.Dir.DCol*n
	return row == endRow && col == endCol && dir == p.Dir.Reversed()
}

// GameView is a consistent copy of a session, safe to encode while other
// players keep joining and claiming. Handlers must never marshal the live
// session: its maps are mutated under the session mutex.
type GameView struct {
	ID        string            `json:"id"`
	PuzzleID  string            `json:"puzzle_id"`
	Players   map[string]Player `json:"players"`
	Found     map[string]string `json:"found"`
	CreatedAt time.Time         `json:"created_at"`
}

// View snapshots the session under the mutex.
func (g *GameSession) View() *GameView {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make(map[string]Player, len(g.Players))
	for pseudo, p := range g.Players {
		players[pseudo] = *p
	}
	found := make(map[string]string, len(g.Found))
	for w, pseudo := range g.Found {
		found[w] = pseudo
	}
	return &GameView{
		ID:        g.ID,
		PuzzleID:  g.PuzzleID,
		Players:   players,
		Found:     found,
		CreatedAt: g.CreatedAt,
	}
}

// FoundWords returns a copy of the found ledger.
func (g *GameSession) FoundWords() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp := make(map[string]string, len(g.Found))
	for w, pseudo := range g.Found {
		cp[w] = pseudo
	}
	return cp
}

// Complete reports whether every word of the puzzle has been found.
func (g *GameSession) Complete(puzzle *Puzzle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Found) == len(puzzle.Words)
}
