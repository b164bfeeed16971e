// Package compose renders two decoded frames into a single comparison
// view, either side by side or overlaid with a draggable wipe divider.
// All functions are pure pixel operations with no UI toolkit types, so
// they are usable from the GUI and from headless snapshot rendering.
package compose

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Mode selects the comparison layout.
type Mode int

const (
	SideBySide Mode = iota
	Overlay
)

func (m Mode) String() string {
	if m == Overlay {
		return "overlay"
	}
	return "side-by-side"
}

// Divider geometry, matching the interactive handle.
const (
	dividerWidth = 2
	handleWidth  = 10
	handleHeight = 40
)

var (
	dividerColor = color.RGBA{0xff, 0xff, 0xff, 0xff}
	handleBorder = color.RGBA{0x00, 0x00, 0x00, 0xff}
	background   = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

// Fit returns the largest rectangle with src's aspect ratio that fits
// inside bounds, centered.
func Fit(src image.Rectangle, bounds image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	bw, bh := bounds.Dx(), bounds.Dy()
	if sw == 0 || sh == 0 || bw == 0 || bh == 0 {
		return image.Rectangle{}
	}

	w := bw
	h := w * sh / sw
	if h > bh {
		h = bh
		w = h * sw / sh
	}

	x := bounds.Min.X + (bw-w)/2
	y := bounds.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// scaleInto draws src scaled into rect on dst.
func scaleInto(dst *image.RGBA, rect image.Rectangle, src image.Image) {
	draw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
}

func fill(dst *image.RGBA, rect image.Rectangle, c color.RGBA) {
	draw.Draw(dst, rect, &image.Uniform{c}, image.Point{}, draw.Src)
}

// RenderSideBySide paints the two frames into the left and right
// halves of dst, each scaled independently with its aspect ratio
// preserved. A nil frame leaves its half blank.
func RenderSideBySide(dst *image.RGBA, a, b image.Image) {
	bounds := dst.Bounds()
	fill(dst, bounds, background)

	mid := bounds.Min.X + bounds.Dx()/2
	left := image.Rect(bounds.Min.X, bounds.Min.Y, mid, bounds.Max.Y)
	right := image.Rect(mid, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)

	if a != nil {
		scaleInto(dst, Fit(a.Bounds(), left), a)
	}
	if b != nil {
		scaleInto(dst, Fit(b.Bounds(), right), b)
	}
}

// RenderOverlay paints bottom scaled to fill dst, then top clipped to
// the region left of the divider, then the divider line and drag
// handle. divider is the split fraction in [0, 1] of the scaled top
// frame's width. Either frame may be nil and is skipped.
func RenderOverlay(dst *image.RGBA, top, bottom image.Image, divider float64) {
	bounds := dst.Bounds()
	fill(dst, bounds, background)

	if bottom != nil {
		scaleInto(dst, Fit(bottom.Bounds(), bounds), bottom)
	}
	if top == nil {
		return
	}

	fit := Fit(top.Bounds(), bounds)
	dividerX := fit.Min.X + int(float64(fit.Dx())*clamp01(divider))

	// Scale the whole top frame, then keep only the part left of
	// the divider, so the wipe boundary is pixel-exact.
	scaled := image.NewRGBA(fit)
	scaleInto(scaled, fit, top)
	clip := image.Rect(fit.Min.X, fit.Min.Y, dividerX, fit.Max.Y)
	draw.Draw(dst, clip, scaled, clip.Min, draw.Src)

	drawDivider(dst, dividerX, bounds)
}

// drawDivider paints the wipe line and its drag handle at x.
func drawDivider(dst *image.RGBA, x int, bounds image.Rectangle) {
	line := image.Rect(x-dividerWidth/2, bounds.Min.Y, x+dividerWidth/2, bounds.Max.Y)
	fill(dst, line.Intersect(bounds), dividerColor)

	handle := HandleRect(x, bounds)
	fill(dst, handle.Intersect(bounds), dividerColor)

	// 1px border
	for _, edge := range []image.Rectangle{
		image.Rect(handle.Min.X, handle.Min.Y, handle.Max.X, handle.Min.Y+1),
		image.Rect(handle.Min.X, handle.Max.Y-1, handle.Max.X, handle.Max.Y),
		image.Rect(handle.Min.X, handle.Min.Y, handle.Min.X+1, handle.Max.Y),
		image.Rect(handle.Max.X-1, handle.Min.Y, handle.Max.X, handle.Max.Y),
	} {
		fill(dst, edge.Intersect(bounds), handleBorder)
	}
}

// HandleRect returns the drag handle rectangle for a divider at x,
// vertically centered in bounds.
func HandleRect(x int, bounds image.Rectangle) image.Rectangle {
	y := bounds.Min.Y + (bounds.Dy()-handleHeight)/2
	return image.Rect(x-handleWidth/2, y, x+handleWidth/2, y+handleHeight)
}

// DividerAt maps a pointer x coordinate back into a divider fraction
// relative to the scaled top frame's rectangle, clamped to [0, 1].
func DividerAt(pointerX int, fit image.Rectangle) float64 {
	if fit.Dx() == 0 {
		return 0
	}
	return clamp01(float64(pointerX-fit.Min.X) / float64(fit.Dx()))
}

// DividerX returns the output x coordinate of the divider for a given
// fraction and scaled top frame rectangle.
func DividerX(divider float64, fit image.Rectangle) int {
	return fit.Min.X + int(float64(fit.Dx())*clamp01(divider))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
