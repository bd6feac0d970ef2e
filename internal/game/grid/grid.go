// Package grid models the discrete battlefield: bounded integer coordinates
// and the Chebyshev (king-move) distance metric.
package grid

import "fmt"

// DefaultWidth and DefaultHeight are the reference encounter dimensions.
const (
	DefaultWidth  = 8
	DefaultHeight = 6
)

// Position is an integer cell coordinate.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// String returns "(x,y)".
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Distance returns the Chebyshev distance between a and b. Diagonal steps
// cost the same as orthogonal steps.
//
// Postcondition: Returns >= 0; Distance(a, b) == Distance(b, a).
func Distance(a, b Position) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Grid is a Width × Height battlefield with origin (0,0) at the top-left.
//
// Invariant: Width >= 1 and Height >= 1.
type Grid struct {
	Width  int
	Height int
}

// New returns a Grid of the given dimensions.
//
// Postcondition: Returns an error if either dimension is < 1.
func New(width, height int) (Grid, error) {
	if width < 1 || height < 1 {
		return Grid{}, fmt.Errorf("grid: dimensions must be >= 1, got %dx%d", width, height)
	}
	return Grid{Width: width, Height: height}, nil
}

// InBounds reports whether p lies on the grid.
func (g Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Footprint returns every in-bounds cell within Chebyshev radius of origin,
// in row-major order. A radius of 0 yields only origin (when in bounds).
//
// Precondition: radius >= 0.
func (g Grid) Footprint(origin Position, radius int) []Position {
	var cells []Position
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			p := Position{X: x, Y: y}
			if g.InBounds(p) {
				cells = append(cells, p)
			}
		}
	}
	return cells
}

// Cells returns all positions on the grid in row-major order.
func (g Grid) Cells() []Position {
	cells := make([]Position, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			cells = append(cells, Position{X: x, Y: y})
		}
	}
	return cells
}
