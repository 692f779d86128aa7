package main

import "fmt"

// InvalidDimensionsError reports a grid construction with a non-positive
// width or height.
type InvalidDimensionsError struct {
	Width  int
	Height int
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("invalid grid dimensions %dx%d: width and height must be at least 1", e.Width, e.Height)
}

// OutOfBoundsError reports a grid access outside [0,height) x [0,width).
// It indicates a bug in the caller, not a recoverable condition.
type OutOfBoundsError struct {
	Row int
	Col int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("grid access out of bounds at (%d,%d)", e.Row, e.Col)
}

// PlacementFailedError reports that a word could not be placed anywhere,
// even after backtracking over earlier words. This is an expected outcome
// for word lists that do not fit the grid.
type PlacementFailedError struct {
	Word string
}

func (e *PlacementFailedError) Error() string {
	return fmt.Sprintf("no placement found for word %q: try a larger grid or fewer words", e.Word)
}
