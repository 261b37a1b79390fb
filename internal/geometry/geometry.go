// Package geometry holds screen-space primitives shared by the vision and
// clustering code. All coordinates are integer pixels with the origin in the
// top-left corner of the screen.
package geometry

import "fmt"

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// [Point] implements [fmt.Stringer]
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// [Rect] implements [fmt.Stringer]
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func (r Rect) Right() int {
	return r.X + r.Width
}

func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Corners returns top-left, bottom-left, top-right and bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.X, r.Bottom()},
		{r.Right(), r.Y},
		{r.Right(), r.Bottom()},
	}
}

func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// Union returns the axis-aligned bounding box of both rectangles.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.Right(), o.Right())
	maxY := max(r.Bottom(), o.Bottom())
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Mirror reflects r horizontally across the vertical axis of a screen that
// is screenWidth pixels wide.
func (r Rect) Mirror(screenWidth int) Rect {
	return Rect{screenWidth - r.X - r.Width, r.Y, r.Width, r.Height}
}

// Neighbours reports whether the centres of a and b are within xScale of
// their summed widths horizontally and within yScale of their summed heights
// vertically.
func Neighbours(a, b Rect, xScale, yScale float64) bool {
	ca, cb := a.Center(), b.Center()
	dx := abs(ca.X - cb.X)
	dy := abs(ca.Y - cb.Y)
	sumWidth := a.Width + b.Width
	sumHeight := a.Height + b.Height
	return float64(dx) <= float64(sumWidth)*xScale &&
		float64(dy) <= float64(sumHeight)*yScale
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
