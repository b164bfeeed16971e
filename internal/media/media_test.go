package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestVideo generates a short testsrc clip and returns its path.
func makeTestVideo(t *testing.T, seconds, fps int) string {
	return makeTestVideoRate(t, seconds, fmt.Sprintf("%d", fps))
}

// makeTestVideoRate is makeTestVideo with an exact frame rate such as
// "30000/1001".
func makeTestVideoRate(t *testing.T, seconds int, rate string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=duration=%d:size=320x240:rate=%s", seconds, rate),
		"-pix_fmt", "yuv420p",
		"-y", path,
	)
	if err := cmd.Run(); err != nil {
		t.Skipf("could not generate test video: %v", err)
	}
	return path
}

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(zerolog.New(os.Stderr), "", "")
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}
	return d
}

func TestOpenProbesMetadata(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, 2, 30)
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	info := src.Info()
	if info.Width != 320 {
		t.Errorf("expected width 320, got %d", info.Width)
	}
	if info.Height != 240 {
		t.Errorf("expected height 240, got %d", info.Height)
	}
	if info.FPS != 30 {
		t.Errorf("expected 30 fps, got %v", info.FPS)
	}
	if info.FrameCount != 60 {
		t.Errorf("expected 60 frames, got %d", info.FrameCount)
	}
	if info.Duration == 0 {
		t.Error("duration is zero")
	}
}

func TestOpenMissingFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	_, err := newTestDecoder(t).Open(context.Background(), "nonexistent.mp4")
	if err == nil {
		t.Error("Open should fail for non-existent file")
	}
	t.Logf("Error (expected): %v", err)
}

func TestOpenInvalidFile(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := filepath.Join(t.TempDir(), "invalid.mp4")
	if err := os.WriteFile(path, []byte("not a video"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := newTestDecoder(t).Open(context.Background(), path)
	if err == nil {
		t.Error("Open should fail for invalid video file")
	}
	t.Logf("Error (expected): %v", err)
}

func TestDecodeFrame(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, 2, 30)
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	frame, err := src.DecodeFrame(0)
	if err != nil {
		t.Fatalf("DecodeFrame(0) failed: %v", err)
	}
	if frame.Width != 320 || frame.Height != 240 {
		t.Errorf("frame size %dx%d, want 320x240", frame.Width, frame.Height)
	}
	if len(frame.Pix) != 320*240*3 {
		t.Errorf("pixel buffer %d bytes, want %d", len(frame.Pix), 320*240*3)
	}
}

func TestDecodeSeekPatterns(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, 2, 30)
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	// Sequential reads ride the decode pipe, backward and repeated
	// seeks restart it. All must succeed.
	for _, index := range []int{0, 1, 2, 40, 10, 10, 59} {
		if _, err := src.DecodeFrame(index); err != nil {
			t.Errorf("DecodeFrame(%d) failed: %v", index, err)
		}
	}
}

func TestSeekTimestampStaysBeforeFrame(t *testing.T) {
	// The -ss cut keeps frames with pts >= the (rounded) timestamp,
	// so the seek point must sit strictly between the previous
	// frame's pts and the requested frame's, even after %.6f
	// formatting trims it.
	rates := []float64{
		24, 25, 30, 60,
		24000.0 / 1001.0,
		30000.0 / 1001.0,
		60000.0 / 1001.0,
	}

	for _, fps := range rates {
		if got := seekTimestamp(0, fps); got != 0 {
			t.Errorf("fps %v: seekTimestamp(0) = %v, want 0", fps, got)
		}

		for index := 1; index < 600; index++ {
			ts := seekTimestamp(index, fps)
			rounded, err := strconv.ParseFloat(fmt.Sprintf("%.6f", ts), 64)
			if err != nil {
				t.Fatal(err)
			}

			prev := float64(index-1) / fps
			want := float64(index) / fps
			if rounded <= prev {
				t.Fatalf("fps %v index %d: seek %v not after frame %d pts %v",
					fps, index, rounded, index-1, prev)
			}
			if rounded > want {
				t.Fatalf("fps %v index %d: seek %v past frame pts %v",
					fps, index, rounded, want)
			}
		}
	}
}

func TestSeekMatchesSequentialDecode(t *testing.T) {
	skipIfNoFFmpeg(t)

	// A fractional NTSC rate is the case where a naive index/fps
	// timestamp rounds past the target frame and delivery starts one
	// frame late.
	path := makeTestVideoRate(t, 2, "30000/1001")
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	// Walk the pipe sequentially from frame 0, keeping every frame.
	// testsrc paints a moving pattern, so adjacent frames differ.
	const last = 20
	sequential := make(map[int][]byte)
	for i := 0; i <= last; i++ {
		f, err := src.DecodeFrame(i)
		if err != nil {
			t.Fatalf("sequential DecodeFrame(%d) failed: %v", i, err)
		}
		sequential[i] = f.Pix
	}

	for _, index := range []int{10, 5, 0, last} {
		f, err := src.DecodeFrame(index)
		if err != nil {
			t.Fatalf("seek DecodeFrame(%d) failed: %v", index, err)
		}
		if !bytes.Equal(f.Pix, sequential[index]) {
			t.Errorf("frame %d: seek decode differs from sequential decode", index)
		}
	}
}

func TestDecodeOutOfRange(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, 1, 30)
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	for _, index := range []int{-1, src.FrameCount(), src.FrameCount() + 100} {
		_, err := src.DecodeFrame(index)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("DecodeFrame(%d): expected ErrOutOfRange, got %v", index, err)
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	skipIfNoFFmpeg(t)

	path := makeTestVideo(t, 1, 30)
	src, err := newTestDecoder(t).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := src.DecodeFrame(0); err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestFrameImage(t *testing.T) {
	// 2x1 frame: red pixel then blue pixel.
	f := &Frame{
		Width:  2,
		Height: 1,
		Pix:    []byte{0xff, 0x00, 0x00, 0x00, 0x00, 0xff},
	}

	img := f.Image()
	if got := img.Bounds(); got.Dx() != 2 || got.Dy() != 1 {
		t.Fatalf("unexpected bounds %v", got)
	}

	r, g, b, a := img.At(0, 0).RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("pixel 0: got rgba(%d,%d,%d,%d), want opaque red", r, g, b, a)
	}
	r, g, b, a = img.At(1, 0).RGBA()
	if r != 0 || g != 0 || b != 0xffff || a != 0xffff {
		t.Errorf("pixel 1: got rgba(%d,%d,%d,%d), want opaque blue", r, g, b, a)
	}
}
