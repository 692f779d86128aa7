package main

import "math/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// Grid is a fixed-size rectangular letter buffer. Cells hold either a
// placed letter or the empty sentinel (rune 0), which is never exposed
// to callers.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	cells  []rune
}

// NewGrid creates a grid with every cell empty.
func NewGrid(width, height int) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, &InvalidDimensionsError{Width: width, Height: height}
	}
	return &Grid{
		Width:  width,
		Height: height,
		cells:  make([]rune, width*height),
	}, nil
}

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// Get returns the letter at (row, col), or 0 for an empty cell.
func (g *Grid) Get(row, col int) (rune, error) {
	if !g.inBounds(row, col) {
		return 0, &OutOfBoundsError{Row: row, Col: col}
	}
	return g.cells[row*g.Width+col], nil
}

// Set writes a letter at (row, col).
func (g *Grid) Set(row, col int, letter rune) error {
	if !g.inBounds(row, col) {
		return &OutOfBoundsError{Row: row, Col: col}
	}
	g.cells[row*g.Width+col] = letter
	return nil
}

// IsEmpty reports whether the cell at (row, col) holds no letter.
// Out-of-bounds cells report false.
func (g *Grid) IsEmpty(row, col int) bool {
	if !g.inBounds(row, col) {
		return false
	}
	return g.cells[row*g.Width+col] == 0
}

// FillRemaining assigns a uniformly random lowercase letter to every
// empty cell. Committed letters are untouched. Deterministic under a
// seeded rng.
func (g *Grid) FillRemaining(rng *rand.Rand) {
	for i, c := range g.cells {
		if c == 0 {
			g.cells[i] = rune(alphabet[rng.Intn(len(alphabet))])
		}
	}
}

// Rows renders the grid as one string per row. Empty cells render as
// spaces; after FillRemaining there are none.
func (g *Grid) Rows() []string {
	rows := make([]string, g.Height)
	for r := 0; r < g.Height; r++ {
		line := make([]rune, g.Width)
		for c := 0; c < g.Width; c++ {
			ch := g.cells[r*g.Width+c]
			if ch == 0 {
				ch = ' '
			}
			line[c] = ch
		}
		rows[r] = string(line)
	}
	return rows
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]rune, len(g.cells))
	copy(cells, g.cells)
	return &Grid{Width: g.Width, Height: g.Height, cells: cells}
}
