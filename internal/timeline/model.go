// Package timeline defines the demo timeline data model: a project with
// ordered tracks carrying time-ranged clips and effect clips, plus the
// imported asset library and the project background. The model is pure
// state; mutation semantics live in the session and interaction packages.
package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Track types. Background is synthesized per project and never user-creatable.
const (
	TrackBackground = "background"
	TrackVideo      = "video"
	TrackImage      = "image"
	TrackAudio      = "audio"
	TrackZoom       = "zoom"
	TrackBlur       = "blur"
	TrackPan        = "pan"
)

// Source and asset types.
const (
	SourceVideo = "video"
	SourceImage = "image"
	SourceAudio = "audio"
)

// Background types.
const (
	BackgroundSolid    = "solid"
	BackgroundGradient = "gradient"
	BackgroundPattern  = "pattern"
	BackgroundImage    = "image"
)

// MinClipDurationMs is the floor below which no trim or clamp may shrink a
// clip. Keeps trim math well-defined.
const MinClipDurationMs int64 = 100

// NewID returns a new entity identifier.
func NewID() string {
	return uuid.NewString()
}

// Project is the outer demo record. DurationMs tracks the background track
// length and is mutable by trimming; all clip times are relative to project
// time zero.
type Project struct {
	ID            string    `json:"id"`
	AppID         string    `json:"app_id,omitempty"`
	Name          string    `json:"name"`
	Format        string    `json:"format"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	FrameRate     int       `json:"frame_rate"`
	DurationMs    int64     `json:"duration_ms"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	ExportPath    string    `json:"export_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Track is an ordered lane of clips. SortOrder defines both list order and
// compositing z-order: lower sort order composites on top. Effect tracks
// (zoom, blur, pan) carry TargetTrackID naming the content track they
// modulate and own no visual content themselves.
type Track struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	Type          string  `json:"type"`
	Name          string  `json:"name"`
	SortOrder     int     `json:"sort_order"`
	Visible       bool    `json:"visible"`
	Locked        bool    `json:"locked"`
	Muted         bool    `json:"muted"`
	Volume        float64 `json:"volume"`
	TargetTrackID string  `json:"target_track_id,omitempty"`
}

// IsEffect reports whether the track modulates a content track rather than
// carrying media.
func (t *Track) IsEffect() bool {
	return t.Type == TrackZoom || t.Type == TrackBlur || t.Type == TrackPan
}

// IsContent reports whether the track carries visual media.
func (t *Track) IsContent() bool {
	return t.Type == TrackVideo || t.Type == TrackImage
}

// Shadow is the drop-shadow styling carried on a clip.
type Shadow struct {
	Enabled bool    `json:"enabled"`
	Blur    float64 `json:"blur"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Opacity float64 `json:"opacity"`
	Color   string  `json:"color,omitempty"`
}

// LocalZoom is a clip-local zoom window, relative to the clip's own
// interval. It applies only when no track-level effect clip covers the
// clip's effective time.
type LocalZoom struct {
	StartMs   int64   `json:"start_ms"`
	EndMs     int64   `json:"end_ms"`
	Scale     float64 `json:"scale"`
	CenterX   float64 `json:"center_x"`
	CenterY   float64 `json:"center_y"`
	EaseInMs  int64   `json:"ease_in_ms"`
	EaseOutMs int64   `json:"ease_out_ms"`
}

// Clip is a time-ranged reference to a media source placed on a content or
// audio track. It occupies the half-open interval
// [StartTimeMs, StartTimeMs+DurationMs). LinkedClipID pairs a video clip
// with the audio clip split from the same source; linked clips move and
// trim together until explicitly unlinked.
type Clip struct {
	ID               string     `json:"id"`
	TrackID          string     `json:"track_id"`
	Name             string     `json:"name"`
	SourcePath       string     `json:"source_path"`
	SourceType       string     `json:"source_type"`
	SourceDurationMs int64      `json:"source_duration_ms,omitempty"` // 0 = unknown
	StartTimeMs      int64      `json:"start_time_ms"`
	DurationMs       int64      `json:"duration_ms"`
	InPointMs        int64      `json:"in_point_ms"`
	PositionX        float64    `json:"position_x"`
	PositionY        float64    `json:"position_y"`
	Scale            float64    `json:"scale"`
	Rotation         float64    `json:"rotation"`
	Opacity          float64    `json:"opacity"`
	CropTop          float64    `json:"crop_top"`
	CropRight        float64    `json:"crop_right"`
	CropBottom       float64    `json:"crop_bottom"`
	CropLeft         float64    `json:"crop_left"`
	CornerRadius     float64    `json:"corner_radius"`
	Shadow           Shadow     `json:"shadow"`
	Volume           float64    `json:"volume"`
	Muted            bool       `json:"muted"`
	HasAudio         bool       `json:"has_audio"`
	LinkedClipID     string     `json:"linked_clip_id,omitempty"`
	LocalZoom        *LocalZoom `json:"local_zoom,omitempty"`
}

// EndTimeMs returns the exclusive end of the clip's interval.
func (c *Clip) EndTimeMs() int64 {
	return c.StartTimeMs + c.DurationMs
}

// Contains reports whether t falls inside the clip's half-open interval.
func (c *Clip) Contains(t int64) bool {
	return t >= c.StartTimeMs && t < c.EndTimeMs()
}

// SourceTimeAt maps a timeline instant to the clip's source time.
func (c *Clip) SourceTimeAt(t int64) int64 {
	return c.InPointMs + (t - c.StartTimeMs)
}

// EffectWindow is the shared time range and easing envelope of every effect
// clip type.
type EffectWindow struct {
	StartTimeMs int64 `json:"start_time_ms"`
	DurationMs  int64 `json:"duration_ms"`
	EaseInMs    int64 `json:"ease_in_ms"`
	EaseOutMs   int64 `json:"ease_out_ms"`
}

// EndTimeMs returns the exclusive end of the window.
func (w EffectWindow) EndTimeMs() int64 {
	return w.StartTimeMs + w.DurationMs
}

// Contains reports whether t falls inside the window's half-open interval.
func (w EffectWindow) Contains(t int64) bool {
	return t >= w.StartTimeMs && t < w.EndTimeMs()
}

// ZoomClip scales the targeted content track around a center point.
type ZoomClip struct {
	ID      string `json:"id"`
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
	EffectWindow
	Scale   float64 `json:"scale"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
}

// BlurClip blurs a region of the frame. The region may be drawn even when
// no content clip sits directly behind it.
type BlurClip struct {
	ID      string `json:"id"`
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
	EffectWindow
	Intensity    float64 `json:"intensity"`
	RegionX      float64 `json:"region_x"`
	RegionY      float64 `json:"region_y"`
	RegionWidth  float64 `json:"region_width"`
	RegionHeight float64 `json:"region_height"`
	CornerRadius float64 `json:"corner_radius"`
	BlurInside   bool    `json:"blur_inside"`
}

// PanClip translates the targeted content track from a start offset to an
// end offset over its window.
type PanClip struct {
	ID      string `json:"id"`
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
	EffectWindow
	StartX float64 `json:"start_x"`
	StartY float64 `json:"start_y"`
	EndX   float64 `json:"end_x"`
	EndY   float64 `json:"end_y"`
}

// Background is the always-present bottom layer of a project.
type Background struct {
	ProjectID         string  `json:"project_id"`
	Type              string  `json:"type"`
	Color             string  `json:"color,omitempty"`
	GradientStops     string  `json:"gradient_stops,omitempty"`
	GradientDirection string  `json:"gradient_direction,omitempty"`
	GradientAngle     float64 `json:"gradient_angle,omitempty"`
	PatternType       string  `json:"pattern_type,omitempty"`
	PatternColor      string  `json:"pattern_color,omitempty"`
	PatternScale      float64 `json:"pattern_scale,omitempty"`
	MediaPath         string  `json:"media_path,omitempty"`
	MediaScale        float64 `json:"media_scale,omitempty"`
	MediaPositionX    float64 `json:"media_position_x,omitempty"`
	MediaPositionY    float64 `json:"media_position_y,omitempty"`
}

// Asset is an import-time record of a media file. Probed metadata is
// immutable once set; nil means the probe failed or has not run. Clips hold
// the file path, not a live asset reference, so deleting an asset does not
// cascade to clips.
type Asset struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Name          string    `json:"name"`
	FilePath      string    `json:"file_path"`
	AssetType     string    `json:"asset_type"`
	DurationMs    *int64    `json:"duration_ms,omitempty"`
	Width         *int      `json:"width,omitempty"`
	Height        *int      `json:"height,omitempty"`
	HasAudio      *bool     `json:"has_audio,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
