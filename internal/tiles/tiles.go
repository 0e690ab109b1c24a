// Package tiles partitions a raster into tile rectangles and orders
// them for center-outward processing.
//
// The capture pipeline renders one tile at a time; visiting tiles in a
// spiral from the center means partial results cover the visually
// important middle of the image first.
package tiles

import "image"

// Rect is a tile rectangle in image pixel coordinates.
type Rect struct {
	X, Y int // top-left corner
	W, H int // extent; edge tiles may be smaller than the tile size
}

// Rectangle converts to the stdlib image rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Partition splits a width x height raster into tiles of the given
// size, row-major. Edge tiles are clipped to the remaining pixels, so
// the rectangles cover the raster exactly with no gaps or overlaps.
// Returns nil if any argument is not positive.
func Partition(width, height, tile int) []Rect {
	if width <= 0 || height <= 0 || tile <= 0 {
		return nil
	}
	cols, rows := Grid(width, height, tile)
	out := make([]Rect, 0, cols*rows)
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			r := Rect{X: tx * tile, Y: ty * tile, W: tile, H: tile}
			if r.X+r.W > width {
				r.W = width - r.X
			}
			if r.Y+r.H > height {
				r.H = height - r.Y
			}
			out = append(out, r)
		}
	}
	return out
}

// Grid returns the tile column and row counts for a raster.
func Grid(width, height, tile int) (cols, rows int) {
	return (width + tile - 1) / tile, (height + tile - 1) / tile
}

// SpiralOrder returns indices into a row-major cols x rows grid,
// ordered in an outward spiral from the center cell. Every cell
// appears exactly once.
func SpiralOrder(cols, rows int) []int {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	total := cols * rows
	order := make([]int, 0, total)

	cx, cy := cols/2, rows/2
	x, y := cx, cy

	// Walk right 1, down 1, left 2, up 2, right 3, ... The walk covers
	// a square enclosing the grid; cells outside the grid are skipped.
	dirs := [4][2]int{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	visit := func(px, py int) {
		if px >= 0 && px < cols && py >= 0 && py < rows {
			order = append(order, py*cols+px)
		}
	}

	visit(x, y)
	for leg := 1; len(order) < total; leg++ {
		for d := 0; d < 2 && len(order) < total; d++ {
			dir := dirs[(2*(leg-1)+d)%4]
			for step := 0; step < leg && len(order) < total; step++ {
				x += dir[0]
				y += dir[1]
				visit(x, y)
			}
		}
	}
	return order
}
