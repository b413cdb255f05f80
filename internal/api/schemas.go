package api

import (
	"time"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	DurationMs  int64  `json:"duration_ms"`
	PositionMs  int64  `json:"position_ms"`
	Playing     bool   `json:"playing"`
	CanUndo     bool   `json:"can_undo"`
	CanRedo     bool   `json:"can_redo"`
}

type TransportResponse struct {
	PositionMs int64 `json:"position_ms"`
	Playing    bool  `json:"playing"`
}

type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

type ProjectResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FrameRate  int    `json:"frame_rate"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type AddTrackRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name,omitempty"`
	TargetTrackID string `json:"target_track_id,omitempty"`
}

type AddTrackResponse struct {
	TrackID string `json:"track_id"`
}

type AddClipRequest struct {
	TrackID     string `json:"track_id"`
	AssetID     string `json:"asset_id,omitempty"`
	SourcePath  string `json:"source_path,omitempty"`
	StartTimeMs int64  `json:"start_time_ms"`
	DurationMs  int64  `json:"duration_ms,omitempty"`
}

type AddClipResponse struct {
	ClipID       string `json:"clip_id"`
	LinkedClipID string `json:"linked_clip_id,omitempty"`
}

type SplitRequest struct {
	TimeMs *int64 `json:"time_ms,omitempty"`
}

type SplitResponse struct {
	FirstID  string `json:"first_id"`
	SecondID string `json:"second_id"`
}

type LinkRequest struct {
	AudioClipID string `json:"audio_clip_id"`
}

type DragBeginRequest struct {
	ClipID    string `json:"clip_id"`
	PointerMs int64  `json:"pointer_ms"`
}

type DragUpdateRequest struct {
	PointerMs int64   `json:"pointer_ms"`
	Zoom      float64 `json:"zoom"`
	Snapping  bool    `json:"snapping"`
}

type DragUpdateResponse struct {
	StartTimeMs int64 `json:"start_time_ms"`
}

type TrimBeginRequest struct {
	ClipID string `json:"clip_id"`
}

type TrimUpdateRequest struct {
	ClipID string `json:"clip_id"`
	Edge   string `json:"edge"`
	TimeMs int64  `json:"time_ms"`
}

// EffectClipParams carries the optional fields of an effect-clip create or
// update. Nil means "leave as is" on update and "use the default" on
// create; which type-specific fields apply depends on the owning track's
// type.
type EffectClipParams struct {
	Name        *string `json:"name,omitempty"`
	StartTimeMs *int64  `json:"start_time_ms,omitempty"`
	DurationMs  *int64  `json:"duration_ms,omitempty"`
	EaseInMs    *int64  `json:"ease_in_ms,omitempty"`
	EaseOutMs   *int64  `json:"ease_out_ms,omitempty"`

	// Zoom.
	Scale   *float64 `json:"scale,omitempty"`
	CenterX *float64 `json:"center_x,omitempty"`
	CenterY *float64 `json:"center_y,omitempty"`

	// Blur.
	Intensity    *float64 `json:"intensity,omitempty"`
	RegionX      *float64 `json:"region_x,omitempty"`
	RegionY      *float64 `json:"region_y,omitempty"`
	RegionWidth  *float64 `json:"region_width,omitempty"`
	RegionHeight *float64 `json:"region_height,omitempty"`
	CornerRadius *float64 `json:"corner_radius,omitempty"`
	BlurInside   *bool    `json:"blur_inside,omitempty"`

	// Pan.
	StartX *float64 `json:"start_x,omitempty"`
	StartY *float64 `json:"start_y,omitempty"`
	EndX   *float64 `json:"end_x,omitempty"`
	EndY   *float64 `json:"end_y,omitempty"`
}

type AddEffectClipRequest struct {
	TrackID string `json:"track_id"`
	EffectClipParams
}

type EffectClipResponse struct {
	ClipID string `json:"clip_id"`
}

type RepositionRequest struct {
	DeltaX        float64 `json:"delta_x"`
	DeltaY        float64 `json:"delta_y"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
}

type HistoryResponse struct {
	Applied bool `json:"applied"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

type ImportAssetRequest struct {
	Path string `json:"path"`
}

type AssetResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Path          string `json:"path"`
	Type          string `json:"type"`
	DurationMs    *int64 `json:"duration_ms,omitempty"`
	Width         *int   `json:"width,omitempty"`
	Height        *int   `json:"height,omitempty"`
	HasAudio      *bool  `json:"has_audio,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	FileSize      int64  `json:"file_size"`
	CreatedAt     string `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type ExportRequest struct {
	Format    string `json:"format"`
	OutputDir string `json:"output_dir,omitempty"`
}

type ExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p timeline.Project) ProjectResponse {
	return ProjectResponse{
		ID:         p.ID,
		Name:       p.Name,
		Format:     p.Format,
		Width:      p.Width,
		Height:     p.Height,
		FrameRate:  p.FrameRate,
		DurationMs: p.DurationMs,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  p.UpdatedAt.Format(time.RFC3339),
	}
}

func AssetToResponse(a timeline.Asset) AssetResponse {
	return AssetResponse{
		ID:            a.ID,
		Name:          a.Name,
		Path:          a.FilePath,
		Type:          a.AssetType,
		DurationMs:    a.DurationMs,
		Width:         a.Width,
		Height:        a.Height,
		HasAudio:      a.HasAudio,
		ThumbnailPath: a.ThumbnailPath,
		FileSize:      a.FileSize,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}
