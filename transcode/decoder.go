package transcode

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/antiphon-audio/antiphon/logging"
)

// AudioData holds decoded mono PCM samples
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Codec      string        `json:"codec,omitempty"`
}

// DecoderConfig holds decoder configuration. A zero TargetSampleRate keeps
// the source rate, which is what pitch analysis wants.
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 0, // Keep source rate
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          120 * time.Second,
	}
}

// AudioMetadata holds detected audio properties from ffprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
}

// Decoder decodes audio files to mono float64 PCM using FFmpeg
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile probes and decodes an audio file, downmixing to mono
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "decoder",
		"filename":  filename,
	})

	metadata, err := d.ProbeFile(filename)
	if err != nil {
		logger.Error(err, "failed to probe audio file")
		return nil, err
	}

	logger.Debug("probed audio file", logging.Fields{
		"sample_rate": metadata.SampleRate,
		"channels":    metadata.Channels,
		"codec":       metadata.Codec,
		"duration":    metadata.Duration,
	})

	sampleRate := d.config.TargetSampleRate
	if sampleRate <= 0 {
		sampleRate = metadata.SampleRate
	}

	args := []string{
		"-i", filename,
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_f64le",
		"-v", "quiet",
		"pipe:1",
	}

	ctx, cancel := d.commandContext()
	defer cancel()
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	logger.Debug("running ffmpeg", logging.Fields{
		"args": strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	logger.Debug("decode complete", logging.Fields{
		"samples":  len(samples),
		"duration": duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Duration:   duration,
		Codec:      metadata.Codec,
	}, nil
}

// ProbeFile extracts stream metadata from the first audio stream of a file
func (d *Decoder) ProbeFile(filename string) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}

	ctx, cancel := d.commandContext()
	defer cancel()
	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// ValidateConfig checks that ffmpeg and ffprobe are reachable
func (d *Decoder) ValidateConfig() error {
	if err := exec.Command(d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.Command(d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}

func (d *Decoder) commandContext() (context.Context, context.CancelFunc) {
	if d.config.Timeout > 0 {
		return context.WithTimeout(context.Background(), d.config.Timeout)
	}
	return context.WithCancel(context.Background())
}

func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("invalid sample rate %q: %w", stream.SampleRate, err)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}
	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
	}, nil
}

// bytesToFloat64 reinterprets raw f64le bytes as samples, trimming any
// trailing partial sample
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
