// Package probe extracts media metadata via ffprobe. A probe failure never
// fails an import: the asset is stored with unknown metadata and downstream
// code treats missing duration as "unknown, use a default".
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the probed metadata for one media file. Zero values mean the
// field could not be determined.
type Result struct {
	DurationMs int64
	Width      int
	Height     int
	FrameRate  float64
	HasAudio   bool
	VideoCodec string
	AudioCodec string
}

// Prober extracts metadata for a media file path.
type Prober interface {
	Probe(ctx context.Context, filePath string) (*Result, error)
}

// FFprobe shells out to the ffprobe binary.
type FFprobe struct {
	binPath string
	logger  *slog.Logger
}

// NewFFprobe creates a prober using the given ffprobe executable.
func NewFFprobe(binPath string, logger *slog.Logger) *FFprobe {
	if binPath == "" {
		binPath = "ffprobe"
	}
	return &FFprobe{binPath: binPath, logger: logger}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func (f *FFprobe) Probe(ctx context.Context, filePath string) (*Result, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.binPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	res := &Result{}
	if dur, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		res.DurationMs = int64(dur * 1000)
	}

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			res.Width = stream.Width
			res.Height = stream.Height
			res.VideoCodec = stream.CodecName
			res.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			res.HasAudio = true
			res.AudioCodec = stream.CodecName
		}
	}
	return res, nil
}

// parseFrameRate converts ffprobe's rational form (e.g. "30000/1001").
func parseFrameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// StubProber reports unknown metadata for every file. Used when ffprobe is
// unavailable; imports still succeed.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (s *StubProber) Probe(ctx context.Context, filePath string) (*Result, error) {
	s.logger.Info("probe stub: metadata unavailable", "path", filePath)
	return &Result{}, nil
}
