package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/antiphon-audio/antiphon/engine"
	"github.com/antiphon-audio/antiphon/logging"
)

var pitchOut string

var pitchCmd = &cobra.Command{
	Use:   "pitch <audio-file>",
	Short: "Extract the pitch contour only",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, err := decodeAudio(args[0])
		if err != nil {
			return err
		}

		tracker := engine.NewPitchTracker(cfg.Pitch)
		track, err := tracker.Track(audio.PCM, audio.SampleRate)
		if err != nil {
			return err
		}

		out := pitchOut
		if out == "" {
			out = filepath.Join(".", "pitch_full.json")
		}
		if err := writeJSON(out, track); err != nil {
			return err
		}

		voiced := 0
		for _, p := range track.Pitch {
			if p.Voiced {
				voiced++
			}
		}
		logging.Info("pitch contour written", logging.Fields{
			"file":   out,
			"frames": track.FrameCount,
			"voiced": voiced,
		})
		return nil
	},
}

func init() {
	pitchCmd.Flags().StringVarP(&pitchOut, "out", "o", "", "output file (default pitch_full.json)")
}
