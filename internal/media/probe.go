package media

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/kikiluvv/sidereel/pkg/util"
)

// probe extracts stream metadata from a video file via ffprobe.
func (d *Decoder) probe(ctx context.Context, filePath string) (Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, d.ffprobePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return Info{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := Info{Path: filePath}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Width = stream.Width
		info.Height = stream.Height
		if stream.RFrameRate != "" {
			info.FPS = util.ParseFrameRate(stream.RFrameRate)
		}
		if n, err := strconv.Atoi(stream.NbFrames); err == nil {
			info.FrameCount = n
		}
		break
	}

	if info.Width == 0 || info.Height == 0 {
		return Info{}, fmt.Errorf("no video stream in %s", filePath)
	}
	if info.FPS <= 0 {
		return Info{}, fmt.Errorf("invalid frame rate in %s", filePath)
	}

	// Some containers omit nb_frames; derive it from duration.
	if info.FrameCount == 0 && info.Duration > 0 {
		info.FrameCount = int(math.Round(info.Duration.Seconds() * info.FPS))
	}
	if info.FrameCount <= 0 {
		return Info{}, fmt.Errorf("could not determine frame count for %s", filePath)
	}

	return info, nil
}

// Open probes a video file and prepares it for frame decoding.
func (d *Decoder) Open(ctx context.Context, filePath string) (*Source, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filePath, err)
	}

	info, err := d.probe(ctx, filePath)
	if err != nil {
		return nil, err
	}

	d.logger.Info().
		Str("path", filePath).
		Int("frames", info.FrameCount).
		Float64("fps", info.FPS).
		Int("width", info.Width).
		Int("height", info.Height).
		Dur("duration", info.Duration).
		Msg("video opened")

	return &Source{
		logger:     d.logger.With().Str("path", filePath).Logger(),
		ffmpegPath: d.ffmpegPath,
		info:       info,
		cursor:     -1,
	}, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
}
