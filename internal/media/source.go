package media

import (
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/rs/zerolog"
)

// Frame is a single decoded video frame in interleaved RGB24.
type Frame struct {
	Width  int
	Height int
	Pix    []byte // 3 bytes per pixel, row-major
}

// Image converts the frame to an RGBA image for compositing.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		src := y * f.Width * 3
		dst := y * img.Stride
		for x := 0; x < f.Width; x++ {
			img.Pix[dst+0] = f.Pix[src+0]
			img.Pix[dst+1] = f.Pix[src+1]
			img.Pix[dst+2] = f.Pix[src+2]
			img.Pix[dst+3] = 0xff
			src += 3
			dst += 4
		}
	}
	return img
}

// Source is an opened video file with a seekable decode cursor. A
// persistent ffmpeg process streams raw RGB24 frames over a pipe;
// sequential reads advance the pipe, any other index restarts the
// process at the target timestamp. Seeking lands on the nearest
// keyframe and decodes forward, so it is not constant-time.
//
// A Source is not safe for concurrent use; the event loop is the only
// caller.
type Source struct {
	logger zerolog.Logger

	ffmpegPath string
	info       Info

	cmd    *exec.Cmd
	pipe   io.ReadCloser
	cursor int // index the pipe will yield next, -1 when no process
}

// Info returns the source metadata captured at open time.
func (s *Source) Info() Info { return s.info }

// FrameCount returns the total number of frames.
func (s *Source) FrameCount() int { return s.info.FrameCount }

// FrameRate returns the native frames per second.
func (s *Source) FrameRate() float64 { return s.info.FPS }

// Path returns the file the source was opened from.
func (s *Source) Path() string { return s.info.Path }

// DecodeFrame seeks the decode cursor to index and returns that frame.
// Indexes outside [0, FrameCount) fail with ErrOutOfRange. A read
// failure is non-fatal to the source: the decode process is torn down
// and the next call reseeks.
func (s *Source) DecodeFrame(index int) (*Frame, error) {
	if index < 0 || index >= s.info.FrameCount {
		return nil, fmt.Errorf("index %d of %d frames: %w", index, s.info.FrameCount, ErrOutOfRange)
	}

	if s.cmd == nil || s.cursor != index {
		if err := s.restart(index); err != nil {
			return nil, fmt.Errorf("seek to frame %d: %w", index, err)
		}
	}

	buf := make([]byte, s.info.Width*s.info.Height*3)
	if _, err := io.ReadFull(s.pipe, buf); err != nil {
		s.teardown()
		return nil, fmt.Errorf("decode frame %d: %w", index, err)
	}
	s.cursor = index + 1

	return &Frame{Width: s.info.Width, Height: s.info.Height, Pix: buf}, nil
}

// seekTimestamp returns the -ss value that lands decoding exactly on
// index. ffmpeg keeps frames with pts >= the seek point, and the
// formatted timestamp is rounded, so aiming at the frame's own pts
// can overshoot it for non-integer rates (29.97 etc.). Aiming half a
// frame early keeps the cut strictly between the previous frame's pts
// and the requested one's.
func seekTimestamp(index int, fps float64) float64 {
	ts := (float64(index) - 0.5) / fps
	if ts < 0 {
		return 0
	}
	return ts
}

// restart replaces the decode process with one positioned at index.
func (s *Source) restart(index int) error {
	s.teardown()

	ts := seekTimestamp(index, s.info.FPS)
	s.logger.Debug().Int("index", index).Float64("ts", ts).Msg("repositioning decoder")

	cmd := exec.Command(s.ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.6f", ts),
		"-i", s.info.Path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	s.cmd = cmd
	s.pipe = pipe
	s.cursor = index
	return nil
}

// teardown kills any running decode process.
func (s *Source) teardown() {
	if s.cmd == nil {
		return
	}
	_ = s.pipe.Close()
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
	s.cmd = nil
	s.pipe = nil
	s.cursor = -1
}

// Close releases the decoder process. The Source must not be used
// afterwards.
func (s *Source) Close() error {
	s.teardown()
	return nil
}
