// Package gui is the Fyne shell around the comparison core: load
// buttons, transport controls, the scrub slider and the comparison
// view. The timeline is the source of truth for the current frame;
// widgets are views of it, updated through a programmatic path that
// does not re-enter the user-input handlers.
package gui

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/kikiluvv/sidereel/internal/compose"
	"github.com/kikiluvv/sidereel/internal/config"
	"github.com/kikiluvv/sidereel/internal/media"
	"github.com/kikiluvv/sidereel/internal/prefs"
	"github.com/kikiluvv/sidereel/internal/timeline"
	"github.com/kikiluvv/sidereel/internal/watch"
	"github.com/kikiluvv/sidereel/pkg/util"
)

// App wires the comparison core to the Fyne UI shell.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	decoder *media.Decoder
	store   *prefs.Store
	tl      *timeline.Timeline
	watcher *watch.Watcher

	fapp fyne.App
	win  fyne.Window

	sources [2]*media.Source

	view       *compareView
	infoLabels [2]*widget.Label
	playBtn    *widget.Button
	loopBtn    *widget.Button
	modeBtn    *widget.Button
	slider     *widget.Slider
	timeLabel  *widget.Label

	// scrubGuard marks slider updates coming from the timeline so
	// the user-seek handler does not fire for them.
	scrubGuard bool
}

// Run opens the main window and blocks until it closes. pathA and
// pathB override the remembered session when non-empty.
func Run(logger zerolog.Logger, cfg *config.Config, pathA, pathB string) error {
	decoder, err := media.NewDecoder(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath)
	if err != nil {
		return err
	}

	a := &App{
		cfg:     cfg,
		logger:  logger.With().Str("component", "gui").Logger(),
		decoder: decoder,
		store:   prefs.NewStore(logger, cfg.PreferencesPath),
	}

	a.fapp = app.NewWithID("com.kikiluvv.sidereel")
	a.win = a.fapp.NewWindow("sidereel")
	a.win.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))

	a.tl = timeline.New(logger, fyne.Do)
	a.tl.OnFrame = a.showFrame
	a.tl.OnState = a.playStateChanged

	if cfg.WatchFiles {
		a.watcher, err = watch.New(logger, a.fileChanged)
		if err != nil {
			a.logger.Warn().Err(err).Msg("file watching unavailable")
		}
	}

	a.buildUI()
	a.restoreSession(pathA, pathB)

	a.win.ShowAndRun()

	// Window closed: release both decoders before the process exits.
	for side, src := range a.sources {
		if src != nil {
			_ = src.Close()
			a.sources[side] = nil
		}
	}
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	return nil
}

func (a *App) buildUI() {
	minSize := fyne.NewSize(float32(a.cfg.Window.MinWidth), float32(a.cfg.Window.MinHeight)/2)
	a.view = newCompareView(minSize, time.Duration(a.cfg.ResizeDebounceMs)*time.Millisecond)
	a.view.OnDivider = func(pos float64) {
		a.logger.Debug().Float64("divider", pos).Msg("divider moved")
	}

	loadA := widget.NewButton("Load Video 1", func() { a.pickVideo(timeline.SideA) })
	loadB := widget.NewButton("Load Video 2", func() { a.pickVideo(timeline.SideB) })

	a.playBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.togglePlay)
	a.playBtn.Disable()

	a.loopBtn = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), a.toggleLoop)
	a.loopBtn.Disable()

	a.modeBtn = widget.NewButton("Switch to Overlay", a.toggleMode)
	a.modeBtn.Disable()

	a.slider = widget.NewSlider(0, 1)
	a.slider.Step = 1
	a.slider.OnChanged = a.sliderChanged
	a.slider.Disable()

	a.timeLabel = widget.NewLabel("00:00 / 00:00")

	a.infoLabels[timeline.SideA] = widget.NewLabel("No video loaded")
	a.infoLabels[timeline.SideB] = widget.NewLabel("No video loaded")
	for _, l := range a.infoLabels {
		l.Alignment = fyne.TextAlignCenter
		l.Wrapping = fyne.TextWrapWord
	}

	controls := container.NewBorder(nil, nil,
		container.NewHBox(loadA, loadB, a.playBtn, a.loopBtn, a.modeBtn),
		a.timeLabel,
		a.slider,
	)
	info := container.NewGridWithColumns(2,
		a.infoLabels[timeline.SideA],
		a.infoLabels[timeline.SideB],
	)

	a.win.SetContent(container.NewBorder(nil, container.NewVBox(info, controls), nil, nil, a.view))
}

// restoreSession reopens the last compared files, preferring explicit
// command-line paths. Paths that no longer exist are skipped quietly.
func (a *App) restoreSession(pathA, pathB string) {
	remembered := a.store.Load()
	if pathA == "" {
		pathA = remembered.VideoA
	}
	if pathB == "" {
		pathB = remembered.VideoB
	}

	if pathA != "" && util.FileExists(pathA) {
		a.openVideo(timeline.SideA, pathA, false)
	}
	if pathB != "" && util.FileExists(pathB) {
		a.openVideo(timeline.SideB, pathB, false)
	}
}

// dialogFilter returns the open-dialog extension filter, or nil for
// an empty list, which shows every file. Fyne dialogs take a single
// filter, so the all-files view is the empty `extensions` list in
// config.yaml rather than a second dropdown entry.
func dialogFilter(exts []string) storage.FileFilter {
	if len(exts) == 0 {
		return nil
	}
	return storage.NewExtensionFileFilter(exts)
}

// pickVideo shows the native file dialog for one side.
func (a *App) pickVideo(side timeline.Side) {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.win)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		a.openVideo(side, path, true)
	}, a.win)
	if f := dialogFilter(a.cfg.Extensions); f != nil {
		fd.SetFilter(f)
	}
	fd.Show()
}

// openVideo loads a file into one side. On failure the previously
// loaded stream on that side stays untouched and the error is shown
// in the load UI.
func (a *App) openVideo(side timeline.Side, path string, remember bool) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	src, err := a.decoder.Open(context.Background(), path)
	if err != nil {
		a.logger.Error().Err(err).Str("path", path).Msg("failed to open video")
		dialog.ShowError(fmt.Errorf("could not open %s: %w", filepath.Base(path), err), a.win)
		return
	}

	if old := a.sources[side]; old != nil {
		if a.watcher != nil {
			a.watcher.Unwatch(old.Path())
		}
		_ = old.Close()
	}
	a.sources[side] = src

	if a.watcher != nil {
		if err := a.watcher.Watch(path); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("failed to watch file")
		}
	}

	a.updateInfo(side)
	a.tl.Attach(side, src)
	a.syncControls()

	if !a.tl.Ready() {
		// Single stream loaded: show its first frame as a preview,
		// playback stays disabled until both sides are in.
		preview := a.decodeInto(side, 0)
		if side == timeline.SideA {
			a.view.SetFrames(preview, nil)
		} else {
			a.view.SetFrames(nil, preview)
		}
	}

	if remember {
		a.rememberSession()
	}
}

func (a *App) rememberSession() {
	var p prefs.Preferences
	if s := a.sources[timeline.SideA]; s != nil {
		p.VideoA = s.Path()
	}
	if s := a.sources[timeline.SideB]; s != nil {
		p.VideoB = s.Path()
	}
	a.store.Save(p)
}

func (a *App) updateInfo(side timeline.Side) {
	src := a.sources[side]
	if src == nil {
		a.infoLabels[side].SetText("No video loaded")
		return
	}
	info := src.Info()
	a.infoLabels[side].SetText(fmt.Sprintf("File: %s\nSize: %dx%d | %.2f FPS | %.2fs",
		filepath.Base(info.Path), info.Width, info.Height, info.FPS, info.Duration.Seconds()))
}

// syncControls enables the transport once both streams are loaded and
// rebounds the slider to the common valid frame range.
func (a *App) syncControls() {
	if !a.tl.Ready() {
		return
	}

	a.slider.Enable()
	a.playBtn.Enable()
	a.loopBtn.Enable()
	a.modeBtn.Enable()
}

// decodeInto decodes one side at index and returns its image, or nil
// when the decode failed (previous frame is retained by the view).
func (a *App) decodeInto(side timeline.Side, index int) *image.RGBA {
	src := a.sources[side]
	if src == nil {
		return nil
	}
	f, err := src.DecodeFrame(index)
	if err != nil {
		a.logger.Warn().Err(err).Int("index", index).Msg("frame decode failed, keeping previous frame")
		return nil
	}
	return f.Image()
}

// showFrame is the timeline redraw hook: decode both streams at the
// same index, then update the view, slider and time label.
func (a *App) showFrame(index int) {
	frameA := a.decodeInto(timeline.SideA, index)
	frameB := a.decodeInto(timeline.SideB, index)
	a.view.SetFrames(frameA, frameB)

	a.scrubGuard = true
	if b := a.tl.Bound(); b >= 0 {
		a.slider.Max = float64(b)
	}
	a.slider.SetValue(float64(index))
	a.scrubGuard = false

	a.updateTimeLabel(index)
}

func (a *App) updateTimeLabel(index int) {
	if !a.tl.Ready() {
		return
	}
	fps := a.tl.FrameRate()
	if fps <= 0 {
		return
	}

	current := float64(index) / fps
	total := a.sources[timeline.SideA].Info().Duration.Seconds()
	if d := a.sources[timeline.SideB].Info().Duration.Seconds(); d < total {
		total = d
	}
	a.timeLabel.SetText(util.FormatTimecode(current, total))
}

// sliderChanged handles user scrubbing. Programmatic updates from the
// timeline are filtered out by the guard.
func (a *App) sliderChanged(v float64) {
	if a.scrubGuard {
		return
	}
	if a.tl.State() == timeline.Playing {
		a.tl.TogglePlay()
	}
	a.tl.SetIndex(int(v))
}

func (a *App) togglePlay() {
	a.tl.TogglePlay()
}

func (a *App) playStateChanged(s timeline.State) {
	if s == timeline.Playing {
		a.playBtn.SetIcon(theme.MediaPauseIcon())
	} else {
		a.playBtn.SetIcon(theme.MediaPlayIcon())
	}
}

func (a *App) toggleLoop() {
	a.tl.SetLooping(!a.tl.Looping())
	if a.tl.Looping() {
		a.loopBtn.Importance = widget.HighImportance
	} else {
		a.loopBtn.Importance = widget.MediumImportance
	}
	a.loopBtn.Refresh()
}

func (a *App) toggleMode() {
	if a.view.Mode() == compose.SideBySide {
		a.view.SetMode(compose.Overlay)
		a.modeBtn.SetText("Switch to Side-by-Side")
	} else {
		a.view.SetMode(compose.SideBySide)
		a.modeBtn.SetText("Switch to Overlay")
	}
}

// fileChanged reopens a stream whose file was rewritten on disk. It
// runs on a watcher goroutine, so the work is dispatched onto the
// event thread.
func (a *App) fileChanged(path string) {
	fyne.Do(func() {
		for side, src := range a.sources {
			if src != nil && src.Path() == path {
				a.logger.Info().Str("path", path).Msg("file changed on disk, reloading")
				a.openVideo(timeline.Side(side), path, false)
			}
		}
	})
}
