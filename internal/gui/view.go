package gui

import (
	"image"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/kikiluvv/sidereel/internal/compose"
	"github.com/kikiluvv/sidereel/pkg/util"
)

// compareView displays the composited comparison of the two current
// frames and handles wipe-divider dragging in overlay mode. It holds
// the last successfully decoded frame per side, so a mid-session
// decode failure keeps showing the previous image.
type compareView struct {
	widget.BaseWidget

	img      *canvas.Image
	mode     compose.Mode
	divider  float64
	frameA   *image.RGBA
	frameB   *image.RGBA
	dragging bool

	debounce *util.Debouncer

	// OnDivider is called after an interactive divider change.
	OnDivider func(pos float64)
}

var (
	_ fyne.Draggable    = (*compareView)(nil)
	_ desktop.Mouseable = (*compareView)(nil)
)

func newCompareView(minSize fyne.Size, resizeDelay time.Duration) *compareView {
	v := &compareView{
		img:      canvas.NewImageFromImage(nil),
		divider:  0.5,
		debounce: util.NewDebouncer(resizeDelay),
	}
	v.img.FillMode = canvas.ImageFillStretch
	v.img.SetMinSize(minSize)
	v.ExtendBaseWidget(v)
	return v
}

func (v *compareView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.img)
}

// Resize coalesces rapid resize events and re-renders once the window
// has gone quiet.
func (v *compareView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	v.debounce.Trigger(func() {
		fyne.Do(v.render)
	})
}

// SetFrames updates the displayed frames. A nil argument keeps the
// previous frame for that side.
func (v *compareView) SetFrames(a, b *image.RGBA) {
	if a != nil {
		v.frameA = a
	}
	if b != nil {
		v.frameB = b
	}
	v.render()
}

// SetMode switches between side-by-side and overlay layouts.
func (v *compareView) SetMode(m compose.Mode) {
	v.mode = m
	v.render()
}

func (v *compareView) Mode() compose.Mode { return v.mode }

// Divider returns the current wipe split fraction.
func (v *compareView) Divider() float64 { return v.divider }

// outputBounds is the pixel rectangle the compositor renders into,
// matching the widget's logical size so pointer coordinates map
// one-to-one.
func (v *compareView) outputBounds() image.Rectangle {
	size := v.Size()
	return image.Rect(0, 0, int(size.Width), int(size.Height))
}

func (v *compareView) render() {
	bounds := v.outputBounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return
	}

	out := image.NewRGBA(bounds)
	switch v.mode {
	case compose.Overlay:
		compose.RenderOverlay(out, asImage(v.frameA), asImage(v.frameB), v.divider)
	default:
		compose.RenderSideBySide(out, asImage(v.frameA), asImage(v.frameB))
	}

	v.img.Image = out
	v.img.Refresh()
}

// asImage avoids the typed-nil interface trap when a side has no
// frame yet.
func asImage(f *image.RGBA) image.Image {
	if f == nil {
		return nil
	}
	return f
}

// topFit returns the scaled rectangle of the top frame in the output,
// the coordinate space divider positions are measured in.
func (v *compareView) topFit() (image.Rectangle, bool) {
	if v.frameA == nil {
		return image.Rectangle{}, false
	}
	return compose.Fit(v.frameA.Bounds(), v.outputBounds()), true
}

// MouseDown begins a divider drag when the press lands on the handle.
func (v *compareView) MouseDown(ev *desktop.MouseEvent) {
	if v.mode != compose.Overlay || ev.Button != desktop.MouseButtonPrimary {
		return
	}
	fit, ok := v.topFit()
	if !ok {
		return
	}

	handle := compose.HandleRect(compose.DividerX(v.divider, fit), v.outputBounds())
	p := image.Pt(int(ev.Position.X), int(ev.Position.Y))
	if p.In(handle) {
		v.dragging = true
	}
}

func (v *compareView) MouseUp(_ *desktop.MouseEvent) {
	v.dragging = false
}

// Dragged maps the pointer back into the scaled top frame's
// coordinate space and moves the divider, clamped to [0, 1].
func (v *compareView) Dragged(ev *fyne.DragEvent) {
	if !v.dragging {
		return
	}
	fit, ok := v.topFit()
	if !ok {
		return
	}

	v.divider = compose.DividerAt(int(ev.Position.X), fit)
	v.render()
	if v.OnDivider != nil {
		v.OnDivider(v.divider)
	}
}

func (v *compareView) DragEnd() {
	v.dragging = false
}
