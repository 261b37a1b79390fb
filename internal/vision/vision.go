// Package vision turns a screenshot into the binary mask and object
// rectangles consumed by the OCR and clustering stages.
package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/vancomm/ballsort/internal/geometry"
)

// DefaultThreshold is the brightness above which a channel counts as lit.
const DefaultThreshold = 100

// Screen is a preprocessed screenshot.
type Screen struct {
	// Mask is white where any channel (or the luminance) exceeds the
	// threshold and black elsewhere, with header and footer blanked.
	Mask *image.Gray
	// Rects are the bounding rectangles of the mask's connected components
	// in row-major order of their first pixel.
	Rects []geometry.Rect
}

func (s *Screen) Width() int {
	return s.Mask.Bounds().Dx()
}

// Decode reads a PNG screenshot.
func Decode(r io.Reader) (image.Image, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return img, nil
}

// Analyze thresholds img and extracts its objects.
func Analyze(img image.Image, threshold uint8) *Screen {
	mask := Threshold(img, threshold)
	return &Screen{Mask: mask, Rects: Objects(mask)}
}

// Threshold builds the binary mask of img. The top and bottom tenth of the
// image hold the game's header and footer and are always black.
func Threshold(img image.Image, threshold uint8) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	cut := b.Dy() / 10
	for y := cut; y < b.Dy()-cut; y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if lit(c, threshold) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

func lit(c color.Color, threshold uint8) bool {
	r, g, b, _ := c.RGBA()
	level := uint32(threshold)
	if r>>8 > level || g>>8 > level || b>>8 > level {
		return true
	}
	return uint32(color.GrayModel.Convert(c).(color.Gray).Y) > level
}

var offsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Objects returns the bounding rectangle of every 8-connected white region
// of mask, in the mask's coordinates.
func Objects(mask *image.Gray) []geometry.Rect {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	white := func(x, y int) bool {
		return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
	}

	seen := make([]bool, w*h)
	var rects []geometry.Rect
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !white(x, y) || seen[y*w+x] {
				continue
			}
			minX, minY, maxX, maxY := x, y, x, y
			queue := []int{y*w + x}
			seen[y*w+x] = true
			for qi := 0; qi < len(queue); qi++ {
				ux, uy := queue[qi]%w, queue[qi]/w
				minX, maxX = min(minX, ux), max(maxX, ux)
				minY, maxY = min(minY, uy), max(maxY, uy)
				for _, d := range offsets {
					vx, vy := ux+d[0], uy+d[1]
					if vx < 0 || vy < 0 || vx >= w || vy >= h || !white(vx, vy) {
						continue
					}
					if vi := vy*w + vx; !seen[vi] {
						seen[vi] = true
						queue = append(queue, vi)
					}
				}
			}
			rects = append(rects, geometry.NewRect(b.Min.X+minX, b.Min.Y+minY, maxX-minX+1, maxY-minY+1))
		}
	}
	return rects
}

// Glyph renders the content of r as dark ink on a white page with the
// mask's bounds, which is the input single-character OCR expects.
func Glyph(mask *image.Gray, r geometry.Rect) *image.Gray {
	page := image.NewGray(mask.Bounds())
	for i := range page.Pix {
		page.Pix[i] = 255
	}
	area := image.Rect(r.X, r.Y, r.Right(), r.Bottom()).Intersect(page.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			page.Pix[page.PixOffset(x, y)] = 255 - mask.Pix[mask.PixOffset(x, y)]
		}
	}
	return page
}
