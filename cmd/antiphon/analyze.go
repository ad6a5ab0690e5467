package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/antiphon-audio/antiphon/engine"
	"github.com/antiphon-audio/antiphon/logging"
	"github.com/antiphon-audio/antiphon/transcode"
)

var (
	analyzeOut      string
	analyzeCallRefs []string
	analyzeRespRefs []string
	analyzeWorkers  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <audio-file>",
	Short: "Run the full pipeline on a recording",
	Long: `Analyze decodes the recording, extracts its pitch contour, detects
call and response sections, pairs them and finds the optimal alignment
offset for each pair. Results are written as JSON files to the output
directory.

Reference ranges are given as start:end in seconds, for example
--call-ref 12.5:18.0. When both call and response references are
provided, segmentation matches each window against fingerprints built
from them; otherwise sections are detected unsupervised.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", ".", "output directory")
	analyzeCmd.Flags().StringArrayVar(&analyzeCallRefs, "call-ref", nil, "known call range start:end (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&analyzeRespRefs, "response-ref", nil, "known response range start:end (repeatable)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "alignment workers (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	audio, err := decodeAudio(args[0])
	if err != nil {
		return err
	}

	callRefs, err := parseRanges(analyzeCallRefs)
	if err != nil {
		return fmt.Errorf("invalid --call-ref: %w", err)
	}
	respRefs, err := parseRanges(analyzeRespRefs)
	if err != nil {
		return fmt.Errorf("invalid --response-ref: %w", err)
	}

	if analyzeWorkers > 0 {
		cfg.Workers = analyzeWorkers
	}

	progress := newProgressBars(os.Stderr)

	analyzer := engine.NewAnalyzer(cfg)
	result, err := analyzer.Run(cmd.Context(), engine.RunInput{
		Samples:            audio.PCM,
		SampleRate:         audio.SampleRate,
		CallReferences:     callRefs,
		ResponseReferences: respRefs,
		Progress:           progress.update,
	})
	progress.wait()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(analyzeOut, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(analyzeOut, "pitch_full.json"), result.Track); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(analyzeOut, "sections.json"), result.Segments); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(analyzeOut, "alignments.json"), result.Alignments); err != nil {
		return err
	}

	logging.Info("analysis written", logging.Fields{
		"dir":        analyzeOut,
		"segments":   len(result.Segments),
		"pairs":      len(result.Pairs),
		"alignments": len(result.Alignments),
	})
	return nil
}

func decodeAudio(path string) (*transcode.AudioData, error) {
	decoder := transcode.NewDecoder(nil)
	audio, err := decoder.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	logging.Info("decoded recording", logging.Fields{
		"file":        path,
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.Seconds(),
	})
	return audio, nil
}

func parseRanges(args []string) ([]engine.TimeRange, error) {
	ranges := make([]engine.TimeRange, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%q is not start:end", arg)
		}
		start, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad start in %q: %w", arg, err)
		}
		end, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad end in %q: %w", arg, err)
		}
		if end <= start {
			return nil, fmt.Errorf("%q: end must be after start", arg)
		}
		ranges = append(ranges, engine.TimeRange{Start: start, End: end})
	}
	return ranges, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// progressBars renders one mpb bar per pipeline stage. Updates arrive from
// worker goroutines, so bar creation is guarded.
type progressBars struct {
	p    *mpb.Progress
	mu   sync.Mutex
	bars map[string]*mpb.Bar
}

func newProgressBars(w *os.File) *progressBars {
	return &progressBars{
		p:    mpb.New(mpb.WithWidth(64), mpb.WithOutput(w)),
		bars: make(map[string]*mpb.Bar),
	}
}

func (pb *progressBars) update(stage string, completed, total int) {
	pb.mu.Lock()
	bar, ok := pb.bars[stage]
	if !ok {
		bar = pb.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(stage+": "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		pb.bars[stage] = bar
	}
	pb.mu.Unlock()

	bar.SetCurrent(int64(completed))
}

func (pb *progressBars) wait() {
	pb.mu.Lock()
	for _, bar := range pb.bars {
		bar.Abort(true)
	}
	pb.mu.Unlock()
	pb.p.Wait()
}
