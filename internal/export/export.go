// Package export hands the timeline off to external renderers. The engine
// performs no encoding itself: a snapshot of the full document graph goes
// to the video renderer, and a CMX3600 EDL cut list can be produced for
// conventional NLE round-trips.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Snapshot is the renderer handoff: the complete document plus format
// metadata, serialized as one JSON file.
type Snapshot struct {
	Version  int                `json:"version"`
	Document *timeline.Document `json:"document"`
}

// WriteSnapshot serializes the document for the external renderer and
// returns the written path.
func WriteSnapshot(doc *timeline.Document, outputDir string) (string, error) {
	if err := ValidateOutputDir(outputDir); err != nil {
		return "", err
	}

	name := SanitizeName(doc.Project.Name, 120)
	if name == "" {
		name = "demostudio_export"
	}

	snap := Snapshot{Version: 1, Document: doc}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	path := filepath.Join(outputDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// cutEntry is one resolved EDL event.
type cutEntry struct {
	clipName  string
	mediaPath string
	srcInMs   int64
	srcOutMs  int64
	recInMs   int64
	recOutMs  int64
}

// GenerateEDL builds a CMX3600 cut list from the document's video-track
// clips: source times come from clip in-points, record times from timeline
// placement. Clips are ordered by record time across tracks.
func GenerateEDL(doc *timeline.Document, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	var entries []cutEntry
	for _, track := range doc.SortedTracks() {
		if track.Type != timeline.TrackVideo {
			continue
		}
		for _, clip := range doc.ClipsOnTrack(track.ID) {
			name := clip.Name
			if name == "" {
				name = filepath.Base(clip.SourcePath)
			}
			entries = append(entries, cutEntry{
				clipName:  SanitizeName(name, 160),
				mediaPath: clip.SourcePath,
				srcInMs:   clip.InPointMs,
				srcOutMs:  clip.InPointMs + clip.DurationMs,
				recInMs:   clip.StartTimeMs,
				recOutMs:  clip.EndTimeMs(),
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].recInMs < entries[j].recInMs })

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, e := range entries {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				msToTimecode(e.srcInMs, fps), msToTimecode(e.srcOutMs, fps),
				msToTimecode(e.recInMs, fps), msToTimecode(e.recOutMs, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", e.clipName),
			fmt.Sprintf("* MEDIA PATH:  %s", e.mediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int64, fps int) string {
	totalFrames := int64(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % int64(fps)
	totalSeconds := totalFrames / int64(fps)
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
