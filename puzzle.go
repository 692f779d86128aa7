package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"
)

// Puzzle is a finished wordsearch: the rendered letter rows plus the
// hidden words and where each one was committed. Placements are the
// solution and are stripped from player-facing payloads.
type Puzzle struct {
	ID         string      `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Words      []string    `json:"words"`
	Placements []Placement `json:"placements"`
	Rows       []string    `json:"rows"`
	Seed       int64       `json:"seed"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NormalizeWords trims, lowercases and drops blank entries. An entry that
// is not purely letters is rejected so the grid stays a plain letter
// buffer.
func NormalizeWords(words []string) ([]string, error) {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return nil, fmt.Errorf("word %q contains non-letter characters", w)
			}
		}
		out = append(out, w)
	}
	return out, nil
}

// GeneratePuzzle runs the whole pipeline: normalize the words, place them
// all, fill the blanks. A seed of 0 draws a random one; the seed used is
// recorded on the puzzle so any result can be regenerated.
//
// The returned error is an *InvalidDimensionsError for bad dimensions and
// a *PlacementFailedError when a word has no room.
func GeneratePuzzle(width, height int, words []string, seed int64) (*Puzzle, error) {
	normalized, err := NormalizeWords(words)
	if err != nil {
		return nil, err
	}

	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	placements, err := PlaceAll(grid, normalized, rng)
	if err != nil {
		return nil, err
	}
	grid.FillRemaining(rng)

	return &Puzzle{
		Width:      width,
		Height:     height,
		Words:      normalized,
		Placements: placements,
		Rows:       grid.Rows(),
		Seed:       seed,
	}, nil
}

// LetterAt returns the letter at (row, col) of the rendered puzzle.
func (p *Puzzle) LetterAt(row, col int) (rune, bool) {
	if row < 0 || row >= p.Height || col < 0 || col >= p.Width {
		return 0, false
	}
	return []rune(p.Rows[row])[col], true
}
