package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-pulse/analyzer"
	"github.com/RyanBlaney/sonido-pulse/logging"
	"github.com/RyanBlaney/sonido-pulse/soundwave"
)

var (
	analyzeFrameSize int
	analyzeWindow    string
	analyzeSubbands  int
	analyzeHistory   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file.wav]",
	Short: "Extract features and beats from a WAV file",
	Long: `Stream a WAV file frame by frame through the analysis pipeline and
report beat activity (kick, snare, hi-hat) plus per-frame feature values
when verbose output is enabled.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVar(&analyzeFrameSize, "frame-size", 1024,
		"analysis frame size in samples")
	analyzeCmd.Flags().StringVar(&analyzeWindow, "window", "hann",
		"window function (none, hann, hamming, blackman, triangular, welch)")
	analyzeCmd.Flags().IntVar(&analyzeSubbands, "subbands", 32,
		"beat detection sub-band count")
	analyzeCmd.Flags().IntVar(&analyzeHistory, "history", 43,
		"beat detection energy history depth in frames")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := analyzer.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Explicit flags win over the config file
	if cmd.Flags().Changed("frame-size") {
		cfg.FrameSize = analyzeFrameSize
	}
	if cmd.Flags().Changed("window") {
		cfg.Window = analyzeWindow
	}
	if cmd.Flags().Changed("subbands") {
		cfg.SubbandCount = analyzeSubbands
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryDepth = analyzeHistory
	}

	wave, err := soundwave.LoadWAV(args[0])
	if err != nil {
		return err
	}

	pipeline, err := analyzer.New(cfg)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	log := logging.WithFields(logging.Fields{"file": filepath.Base(args[0])})
	log.Info("analyzing", logging.Fields{
		"sample_rate": wave.SampleRate(),
		"channels":    wave.NumChannels(),
		"duration_s":  fmt.Sprintf("%.2f", wave.Duration()),
		"frame_size":  cfg.FrameSize,
		"window":      cfg.Window,
	})

	var frames, kicks, snares, hihats int

	for start := 0; start+cfg.FrameSize <= wave.NumFrames(); start += cfg.FrameSize {
		frame, err := wave.MonoFrameRange(start, start+cfg.FrameSize)
		if err != nil {
			return err
		}

		if err := pipeline.ProcessFrame(frame, true); err != nil {
			return err
		}
		frames++

		timestamp := float64(start) / float64(wave.SampleRate())

		if pipeline.IsKick() {
			kicks++
			log.Debug("kick", logging.Fields{"t": fmt.Sprintf("%.3f", timestamp)})
		}
		if snare, _ := pipeline.IsSnare(); snare {
			snares++
			log.Debug("snare", logging.Fields{"t": fmt.Sprintf("%.3f", timestamp)})
		}
		if hihat, _ := pipeline.IsHiHat(); hihat {
			hihats++
			log.Debug("hihat", logging.Fields{"t": fmt.Sprintf("%.3f", timestamp)})
		}

		if viper.GetBool("verbose") {
			rms, _ := pipeline.RootMeanSquare()
			centroid, _ := pipeline.SpectralCentroid()
			onsetStrength, _ := pipeline.SpectralDifferenceHWR()

			log.Debug("frame", logging.Fields{
				"t":        fmt.Sprintf("%.3f", timestamp),
				"rms":      fmt.Sprintf("%.5f", rms),
				"centroid": fmt.Sprintf("%.2f", centroid),
				"onset":    fmt.Sprintf("%.5f", onsetStrength),
			})
		}
	}

	log.Info("analysis complete", logging.Fields{
		"frames": frames,
		"kicks":  kicks,
		"snares": snares,
		"hihats": hihats,
	})

	return nil
}
