package main

import "math/rand"

// Placement records where a word was committed: its starting cell and the
// direction its letters run in.
type Placement struct {
	Word string    `json:"word"`
	Row  int       `json:"row"`
	Col  int       `json:"col"`
	Dir  Direction `json:"dir"`
}

// candidate is one untried (start, direction) pair for a word.
type candidate struct {
	row, col int
	dir      Direction
}

// maxPlacementAttempts caps the total candidates tried across the whole
// search, backtracking included. Real word lists resolve in a few thousand
// attempts; the cap only stops adversarial inputs (many near-fitting words
// on a large grid) from pinning a CPU inside one request.
const maxPlacementAttempts = 1 << 20

// PlaceAll commits every word into the grid, or reports the word that could
// not be placed. Words are attempted in input order; each word's finite
// candidate space (start cell x direction) is shuffled once and walked
// without replacement, and the search backtracks across words when a later
// word runs out of candidates. Given a fixed seed and word order the result
// is reproducible.
//
// On failure the grid is left partially written and should be discarded.
func PlaceAll(grid *Grid, words []string, rng *rand.Rand) ([]Placement, error) {
	placements := make([]Placement, 0, len(words))
	attempts := 0
	if ok, failed := placeFrom(grid, words, 0, rng, &placements, &attempts); !ok {
		return nil, &PlacementFailedError{Word: words[failed]}
	}
	return placements, nil
}

// placeFrom places words[i:] recursively. On failure it reports the index
// of the deepest word the search ran out of room for, so the error blames
// the word that actually does not fit rather than an earlier one the
// search happened to unwind through.
func placeFrom(grid *Grid, words []string, i int, rng *rand.Rand, placements *[]Placement, attempts *int) (bool, int) {
	if i == len(words) {
		return true, 0
	}

	word := []rune(words[i])
	cands := enumerateCandidates(grid, len(word))
	rng.Shuffle(len(cands), func(a, b int) { cands[a], cands[b] = cands[b], cands[a] })

	deepest := i
	for _, c := range cands {
		*attempts++
		if *attempts > maxPlacementAttempts {
			return false, deepest
		}
		if !fits(grid, word, c) {
			continue
		}
		written := commit(grid, word, c)
		*placements = append(*placements, Placement{Word: words[i], Row: c.row, Col: c.col, Dir: c.dir})

		ok, failed := placeFrom(grid, words, i+1, rng, placements, attempts)
		if ok {
			return true, 0
		}
		*placements = (*placements)[:len(*placements)-1]
		undo(grid, written)
		if failed > deepest {
			deepest = failed
		}
	}
	return false, deepest
}

// enumerateCandidates lists every (start, direction) pair from which a word
// of the given length stays in bounds. A word longer than both dimensions
// yields no candidates.
func enumerateCandidates(grid *Grid, length int) []candidate {
	cands := make([]candidate, 0, grid.Width*grid.Height*len(Directions))
	for _, dir := range Directions {
		for row := 0; row < grid.Height; row++ {
			for col := 0; col < grid.Width; col++ {
				endRow := row + dir.DRow*(length-1)
				endCol := col + dir.DCol*(length-1)
				if grid.inBounds(endRow, endCol) {
					cands = append(cands, candidate{row: row, col: col, dir: dir})
				}
			}
		}
	}
	return cands
}

// fits checks a candidate without writing: every covered cell must be empty
// or already hold the letter the word needs there, which is what lets words
// cross at a shared letter.
func fits(grid *Grid, word []rune, c candidate) bool {
	for i, letter := range word {
		row := c.row + c.dir.DRow*i
		col := c.col + c.dir.DCol*i
		cur, err := grid.Get(row, col)
		if err != nil {
			return false
		}
		if cur != 0 && cur != letter {
			return false
		}
	}
	return true
}

// commit writes the word along the candidate path and returns the cells
// that were empty before, so backtracking can undo exactly those writes
// without erasing letters shared with earlier words.
func commit(grid *Grid, word []rune, c candidate) [][2]int {
	var written [][2]int
	for i, letter := range word {
		row := c.row + c.dir.DRow*i
		col := c.col + c.dir.DCol*i
		if grid.IsEmpty(row, col) {
			written = append(written, [2]int{row, col})
		}
		grid.Set(row, col, letter)
	}
	return written
}

func undo(grid *Grid, written [][2]int) {
	for _, cell := range written {
		grid.Set(cell[0], cell[1], 0)
	}
}
