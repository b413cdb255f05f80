// Package assets builds import-time asset records for the project library.
// An asset captures the probed metadata of a media file at import; clips
// reference the file path, not the asset, so the record can be deleted
// independently.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/demostudio/demostudio-agent/internal/probe"
	"github.com/demostudio/demostudio-agent/internal/timeline"
)

var videoExts = map[string]bool{".mp4": true, ".mov": true, ".mkv": true, ".webm": true}
var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}
var audioExts = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".ogg": true, ".flac": true}

// TypeForPath classifies a file by extension, defaulting to video.
func TypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExts[ext]:
		return timeline.SourceImage
	case audioExts[ext]:
		return timeline.SourceAudio
	case videoExts[ext]:
		return timeline.SourceVideo
	default:
		return timeline.SourceVideo
	}
}

// Importer creates asset records from files on disk.
type Importer struct {
	prober probe.Prober
	logger *slog.Logger
}

func NewImporter(prober probe.Prober, logger *slog.Logger) *Importer {
	return &Importer{prober: prober, logger: logger}
}

// Import stats and probes a file and returns the asset record. A probe
// failure leaves the metadata fields nil and still succeeds: the asset is
// importable with unknown duration and dimensions.
func (im *Importer) Import(ctx context.Context, projectID, path string) (timeline.Asset, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return timeline.Asset{}, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return timeline.Asset{}, fmt.Errorf("file does not exist: %w", err)
	}
	if info.IsDir() {
		return timeline.Asset{}, fmt.Errorf("path is a directory")
	}

	asset := timeline.Asset{
		ID:        timeline.NewID(),
		ProjectID: projectID,
		Name:      filepath.Base(absPath),
		FilePath:  absPath,
		AssetType: TypeForPath(absPath),
		FileSize:  info.Size(),
		CreatedAt: info.ModTime().UTC(),
	}

	res, err := im.prober.Probe(ctx, absPath)
	if err != nil {
		im.logger.Warn("probe failed, importing asset with unknown metadata",
			"path", absPath, "error", err)
		return asset, nil
	}

	if res.DurationMs > 0 {
		d := res.DurationMs
		asset.DurationMs = &d
	}
	if res.Width > 0 {
		w := res.Width
		asset.Width = &w
	}
	if res.Height > 0 {
		h := res.Height
		asset.Height = &h
	}
	if asset.AssetType != timeline.SourceImage {
		hasAudio := res.HasAudio
		asset.HasAudio = &hasAudio
	}
	return asset, nil
}

// Present reports whether an asset's backing file still exists on disk.
func Present(a *timeline.Asset) bool {
	info, err := os.Stat(a.FilePath)
	return err == nil && !info.IsDir()
}
