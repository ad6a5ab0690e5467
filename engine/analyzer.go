package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/antiphon-audio/antiphon/engine/config"
	"github.com/antiphon-audio/antiphon/logging"
)

// ErrEmptyWaveform is returned when analysis is attempted on no samples
var ErrEmptyWaveform = errors.New("empty waveform")

// RunInput is one recording to analyze. Reference ranges are optional;
// when both label lists are present segmentation uses fingerprint
// distances, otherwise the unsupervised detector runs.
type RunInput struct {
	Samples            []float64
	SampleRate         int
	CallReferences     []TimeRange
	ResponseReferences []TimeRange
	Progress           ProgressFunc
}

// RunResult is the full output of one analysis run
type RunResult struct {
	Track      *PitchTrack       `json:"track"`
	Segments   []Segment         `json:"segments"`
	Pairs      []Pair            `json:"pairs"`
	Alignments []AlignmentRecord `json:"alignments"`
}

// Analyzer runs the full pipeline: pitch tracking, segmentation, pairing
// and alignment.
type Analyzer struct {
	cfg    *config.Config
	logger logging.Logger
}

// NewAnalyzer creates an analyzer from a configuration
func NewAnalyzer(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{
		cfg: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}
}

// Run executes the pipeline on one recording
func (an *Analyzer) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if len(in.Samples) == 0 {
		return nil, ErrEmptyWaveform
	}
	if in.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", in.SampleRate)
	}

	tracker := NewPitchTracker(an.cfg.Pitch)
	track, err := tracker.TrackWithProgress(in.Samples, in.SampleRate, in.Progress)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	segments, err := an.segment(in, track)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pairs := Pairs(segments)
	alignments := an.alignPairs(ctx, track, pairs, in.Progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	an.logger.Info("analysis complete", logging.Fields{
		"duration": track.Duration,
		"segments": len(segments),
		"pairs":    len(pairs),
	})

	return &RunResult{
		Track:      track,
		Segments:   segments,
		Pairs:      pairs,
		Alignments: alignments,
	}, nil
}

func (an *Analyzer) segment(in RunInput, track *PitchTrack) ([]Segment, error) {
	if len(in.CallReferences) > 0 && len(in.ResponseReferences) > 0 {
		extractor, err := NewFeatureExtractor(an.cfg.Feature, in.SampleRate)
		if err != nil {
			return nil, err
		}

		builder := NewFingerprintBuilder(extractor, in.Samples, track)
		callFP, err := builder.Build(LabelCall, in.CallReferences)
		if err != nil {
			return nil, err
		}
		respFP, err := builder.Build(LabelResponse, in.ResponseReferences)
		if err != nil {
			return nil, err
		}

		segmenter := NewSegmenter(an.cfg.Segmenter, extractor)
		return segmenter.Segment(in.Samples, track, callFP, respFP, in.Progress)
	}

	an.logger.Info("no reference ranges, using unsupervised detection")
	auto := NewAutoSegmenter(an.cfg.AutoSeg, an.cfg.Pitch)
	return auto.Segment(in.Samples, track)
}

// alignPairs computes optimal offsets for all pairs across a small worker
// pool. Results come back in pair order regardless of completion order.
func (an *Analyzer) alignPairs(ctx context.Context, track *PitchTrack, pairs []Pair, progress ProgressFunc) []AlignmentRecord {
	if len(pairs) == 0 {
		return []AlignmentRecord{}
	}

	aligner := NewAligner(an.cfg.Align)
	records := make([]AlignmentRecord, len(pairs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var done sync.Mutex
	completed := 0

	for _i := 0; _i < an.cfg.Workers; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				pair := pairs[idx]
				call := SliceContour(track, pair.Call.Start, pair.Call.End)
				response := SliceContour(track, pair.Response.Start, pair.Response.End)

				offset, corr := aligner.FindOptimalOffset(call, response)
				record := AlignmentRecord{
					PairID:            pair.ID,
					CallSectionID:     pair.Call.ID,
					ResponseSectionID: pair.Response.ID,
					OptimalOffset:     offset,
					Correlation:       corr,
				}
				if corr != nil {
					metrics := aligner.MetricsWithUnaligned(pair.ID, call, response, offset)
					record.CorrelationUnaligned = metrics.CorrelationUnaligned
					record.CosineSimilarity = metrics.Cosine
				}
				records[idx] = record

				done.Lock()
				completed++
				notify(progress, "alignment", completed, len(pairs))
				done.Unlock()
			}
		}()
	}

feed:
	for idx := range pairs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool {
		return records[i].PairID < records[j].PairID
	})
	return records
}

// ProposeReferences suggests the most confident detected segments per
// label as candidate reference ranges for a follow-up fingerprint pass
func ProposeReferences(segments []Segment, perLabel int) (calls, responses []TimeRange) {
	byConfidence := make([]Segment, len(segments))
	copy(byConfidence, segments)
	sort.SliceStable(byConfidence, func(i, j int) bool {
		return byConfidence[i].Confidence > byConfidence[j].Confidence
	})

	for _, s := range byConfidence {
		switch s.Label {
		case LabelCall:
			if len(calls) < perLabel {
				calls = append(calls, TimeRange{Start: s.Start, End: s.End})
			}
		case LabelResponse:
			if len(responses) < perLabel {
				responses = append(responses, TimeRange{Start: s.Start, End: s.End})
			}
		}
	}
	return calls, responses
}
