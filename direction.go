package main

// Direction is a unit step vector on the grid. Row deltas grow downwards,
// column deltas grow to the right.
type Direction struct {
	DRow int `json:"drow"`
	DCol int `json:"dcol"`
}

var (
	East      = Direction{0, 1}
	West      = Direction{0, -1}
	South     = Direction{1, 0}
	North     = Direction{-1, 0}
	SouthEast = Direction{1, 1}
	NorthWest = Direction{-1, -1}
	SouthWest = Direction{1, -1}
	NorthEast = Direction{-1, 1}
)

// Directions lists the eight compass directions a word can run along.
var Directions = []Direction{East, West, South, North, SouthEast, NorthWest, SouthWest, NorthEast}

var directionNames = map[Direction]string{
	East:      "east",
	West:      "west",
	South:     "south",
	North:     "north",
	SouthEast: "southeast",
	NorthWest: "northwest",
	SouthWest: "southwest",
	NorthEast: "northeast",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// Reversed returns the opposite direction.
func (d Direction) Reversed() Direction {
	return Direction{-d.DRow, -d.DCol}
}
