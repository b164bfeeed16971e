package main

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/sidereel/internal/compose"
	"github.com/kikiluvv/sidereel/internal/config"
	"github.com/kikiluvv/sidereel/internal/gui"
	"github.com/kikiluvv/sidereel/internal/logging"
	"github.com/kikiluvv/sidereel/internal/media"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sidereel [video1] [video2]",
	Short: "sidereel - frame-locked comparison of two videos",
	Long:  "A desktop tool that plays two videos in frame lockstep, side by side or overlaid with a draggable wipe divider.",
	Args:  cobra.MaximumNArgs(2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var pathA, pathB string
		if len(args) > 0 {
			pathA = args[0]
		}
		if len(args) > 1 {
			pathB = args[1]
		}
		return gui.Run(log.Logger, cfg, pathA, pathB)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(snapshotCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe [video]",
	Short: "Print video metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoder, err := media.NewDecoder(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath)
		if err != nil {
			return err
		}

		src, err := decoder.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer src.Close()

		info := src.Info()
		fmt.Printf("path:     %s\n", info.Path)
		fmt.Printf("frames:   %d\n", info.FrameCount)
		fmt.Printf("fps:      %.3f\n", info.FPS)
		fmt.Printf("size:     %dx%d\n", info.Width, info.Height)
		fmt.Printf("duration: %s\n", info.Duration)
		return nil
	},
}

var (
	snapFrame   int
	snapMode    string
	snapDivider float64
	snapWidth   int
	snapHeight  int
	snapOut     string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [video1] [video2]",
	Short: "Render one comparison frame to PNG without the GUI",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		decoder, err := media.NewDecoder(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath)
		if err != nil {
			return err
		}

		srcA, err := decoder.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer srcA.Close()

		srcB, err := decoder.Open(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		defer srcB.Close()

		frameA, err := srcA.DecodeFrame(snapFrame)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		frameB, err := srcB.DecodeFrame(snapFrame)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[1], err)
		}

		out := image.NewRGBA(image.Rect(0, 0, snapWidth, snapHeight))
		switch snapMode {
		case "overlay":
			compose.RenderOverlay(out, frameA.Image(), frameB.Image(), snapDivider)
		case "side-by-side":
			compose.RenderSideBySide(out, frameA.Image(), frameB.Image())
		default:
			return fmt.Errorf("unknown mode %q (want side-by-side or overlay)", snapMode)
		}

		f, err := os.Create(snapOut)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := png.Encode(f, out); err != nil {
			return err
		}

		log.Info().
			Str("output", snapOut).
			Int("frame", snapFrame).
			Str("mode", snapMode).
			Msg("snapshot written")
		return nil
	},
}

func init() {
	snapshotCmd.Flags().IntVar(&snapFrame, "frame", 0, "frame index to render")
	snapshotCmd.Flags().StringVar(&snapMode, "mode", "side-by-side", "comparison mode (side-by-side or overlay)")
	snapshotCmd.Flags().Float64Var(&snapDivider, "divider", 0.5, "wipe divider position in [0,1] (overlay mode)")
	snapshotCmd.Flags().IntVar(&snapWidth, "width", 1280, "output width")
	snapshotCmd.Flags().IntVar(&snapHeight, "height", 720, "output height")
	snapshotCmd.Flags().StringVarP(&snapOut, "output", "o", "snapshot.png", "output PNG path")
}
