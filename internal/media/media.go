package media

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// ErrOutOfRange is returned when a frame index falls outside
// [0, FrameCount) for a source.
var ErrOutOfRange = errors.New("frame index out of range")

// Info contains metadata about an opened video file. All fields are
// fixed at open time and never change for the life of the Source.
type Info struct {
	Path       string
	FrameCount int
	FPS        float64
	Width      int
	Height     int
	Duration   time.Duration
}

// Decoder locates the ffmpeg and ffprobe binaries and opens Sources.
type Decoder struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
}

// NewDecoder creates a decoder backed by the given binaries. Empty
// paths fall back to a PATH lookup.
func NewDecoder(logger zerolog.Logger, ffmpegBin, ffprobeBin string) (*Decoder, error) {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(ffmpegBin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	ffprobePath, err := exec.LookPath(ffprobeBin)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Decoder{
		logger:      logger.With().Str("component", "media").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}
