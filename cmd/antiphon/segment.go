package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/antiphon-audio/antiphon/engine"
	"github.com/antiphon-audio/antiphon/logging"
)

var (
	segmentOut      string
	segmentCallRefs []string
	segmentRespRefs []string
	segmentPropose  int
)

var segmentCmd = &cobra.Command{
	Use:   "segment <audio-file>",
	Short: "Detect call and response sections",
	Long: `Segment extracts the pitch contour and detects labeled sections,
without pairing or alignment. With --propose N it also prints the N most
confident detected sections per label as candidate reference ranges for
a follow-up fingerprint pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, err := decodeAudio(args[0])
		if err != nil {
			return err
		}

		callRefs, err := parseRanges(segmentCallRefs)
		if err != nil {
			return fmt.Errorf("invalid --call-ref: %w", err)
		}
		respRefs, err := parseRanges(segmentRespRefs)
		if err != nil {
			return fmt.Errorf("invalid --response-ref: %w", err)
		}

		tracker := engine.NewPitchTracker(cfg.Pitch)
		track, err := tracker.Track(audio.PCM, audio.SampleRate)
		if err != nil {
			return err
		}

		var segments []engine.Segment
		if len(callRefs) > 0 && len(respRefs) > 0 {
			extractor, err := engine.NewFeatureExtractor(cfg.Feature, audio.SampleRate)
			if err != nil {
				return err
			}
			builder := engine.NewFingerprintBuilder(extractor, audio.PCM, track)
			callFP, err := builder.Build(engine.LabelCall, callRefs)
			if err != nil {
				return err
			}
			respFP, err := builder.Build(engine.LabelResponse, respRefs)
			if err != nil {
				return err
			}
			segmenter := engine.NewSegmenter(cfg.Segmenter, extractor)
			segments, err = segmenter.Segment(audio.PCM, track, callFP, respFP, nil)
			if err != nil {
				return err
			}
		} else {
			auto := engine.NewAutoSegmenter(cfg.AutoSeg, cfg.Pitch)
			segments, err = auto.Segment(audio.PCM, track)
			if err != nil {
				return err
			}
		}

		out := segmentOut
		if out == "" {
			out = filepath.Join(".", "sections.json")
		}
		if err := writeJSON(out, segments); err != nil {
			return err
		}

		logging.Info("sections written", logging.Fields{
			"file":     out,
			"sections": len(segments),
		})

		if segmentPropose > 0 {
			calls, responses := engine.ProposeReferences(segments, segmentPropose)
			for _, r := range calls {
				fmt.Printf("--call-ref %.2f:%.2f\n", r.Start, r.End)
			}
			for _, r := range responses {
				fmt.Printf("--response-ref %.2f:%.2f\n", r.Start, r.End)
			}
		}
		return nil
	},
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentOut, "out", "o", "", "output file (default sections.json)")
	segmentCmd.Flags().StringArrayVar(&segmentCallRefs, "call-ref", nil, "known call range start:end (repeatable)")
	segmentCmd.Flags().StringArrayVar(&segmentRespRefs, "response-ref", nil, "known response range start:end (repeatable)")
	segmentCmd.Flags().IntVar(&segmentPropose, "propose", 0, "print top-N candidate reference ranges per label")
}
