// Package compositor evaluates what is on screen at a given instant. It is
// a pure function over the timeline document: no side effects, no retained
// state, deterministic for a fixed document and time.
package compositor

import (
	"fmt"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Layer is one content clip's resolved render state. Every clip on a
// visible content track appears in the frame; clips not covering the
// instant carry Opacity 0 and Visible false so their backing media handle
// stays mounted instead of being torn down while scrubbing.
type Layer struct {
	ClipID       string  `json:"clip_id"`
	TrackID      string  `json:"track_id"`
	SourcePath   string  `json:"source_path"`
	SourceType   string  `json:"source_type"`
	Visible      bool    `json:"visible"`
	GapFilled    bool    `json:"gap_filled"`
	SourceTimeMs int64   `json:"source_time_ms"`
	Opacity      float64 `json:"opacity"`
	ZIndex       int     `json:"z_index"`
	Transform    string  `json:"transform,omitempty"`
	Scale        float64 `json:"scale"`
	TranslateX   float64 `json:"translate_x"`
	TranslateY   float64 `json:"translate_y"`
	ZoomCenterX  float64 `json:"zoom_center_x"`
	ZoomCenterY  float64 `json:"zoom_center_y"`
	PositionX    float64 `json:"position_x"`
	PositionY    float64 `json:"position_y"`
	Muted        bool    `json:"muted"`
	Volume       float64 `json:"volume"`
}

// BlurRegion is one active blur overlay. Regions are resolved independently
// of content layers: a region may be drawn even when no clip sits behind it.
type BlurRegion struct {
	BlurClipID   string  `json:"blur_clip_id"`
	TrackID      string  `json:"track_id"`
	Intensity    float64 `json:"intensity"`
	RegionX      float64 `json:"region_x"`
	RegionY      float64 `json:"region_y"`
	RegionWidth  float64 `json:"region_width"`
	RegionHeight float64 `json:"region_height"`
	CornerRadius float64 `json:"corner_radius"`
	BlurInside   bool    `json:"blur_inside"`
}

// Frame is the ordered, resolved layer set for one instant, consumed by the
// host rendering surface.
type Frame struct {
	TimeMs      int64               `json:"time_ms"`
	Background  timeline.Background `json:"background"`
	Layers      []Layer             `json:"layers"`
	BlurRegions []BlurRegion        `json:"blur_regions,omitempty"`
}

// Evaluate computes the frame at timeMs. Out-of-range times are clamped to
// [0, project duration]; the call never panics. Tracks composite in sort
// order with lower sort order on top; when several effect tracks target the
// same content track, the first one in that iteration order wins.
func Evaluate(doc *timeline.Document, timeMs int64) Frame {
	frame := Frame{Background: backgroundOf(doc)}

	if doc == nil {
		return frame
	}
	if timeMs < 0 {
		timeMs = 0
	}
	if doc.Project.DurationMs > 0 && timeMs > doc.Project.DurationMs {
		timeMs = doc.Project.DurationMs
	}
	frame.TimeMs = timeMs

	maxSort := doc.MaxSortOrder()
	for _, track := range doc.SortedTracks() {
		if !track.IsContent() || !track.Visible {
			continue
		}

		clips := doc.ClipsOnTrack(track.ID)
		if len(clips) == 0 {
			continue
		}

		active, gapFilled := resolveClip(clips, timeMs)
		zIndex := maxSort - track.SortOrder + 1

		for i := range clips {
			clip := &clips[i]
			layer := Layer{
				ClipID:     clip.ID,
				TrackID:    track.ID,
				SourcePath: clip.SourcePath,
				SourceType: clip.SourceType,
				ZIndex:     zIndex,
				Scale:      1,
				PositionX:  clip.PositionX,
				PositionY:  clip.PositionY,
				Muted:      clip.Muted || track.Muted,
				Volume:     clip.Volume * track.Volume,
			}

			if active == nil || clip.ID != active.ID {
				layer.SourceTimeMs = clip.InPointMs
				frame.Layers = append(frame.Layers, layer)
				continue
			}

			effTime := effectiveTime(clip, timeMs)
			layer.Visible = true
			layer.GapFilled = gapFilled
			layer.SourceTimeMs = clip.SourceTimeAt(effTime)
			layer.Opacity = clip.Opacity

			fx := resolveEffects(doc, track.ID, clip, effTime)
			layer.Scale = fx.scale * clip.Scale
			layer.TranslateX = fx.translateX
			layer.TranslateY = fx.translateY
			layer.ZoomCenterX = fx.centerX
			layer.ZoomCenterY = fx.centerY
			layer.Transform = transformString(layer.Scale, fx.translateX, fx.translateY)

			frame.Layers = append(frame.Layers, layer)
		}
	}

	frame.BlurRegions = resolveBlurRegions(doc, timeMs)
	return frame
}

func backgroundOf(doc *timeline.Document) timeline.Background {
	if doc != nil && doc.Background != nil {
		return *doc.Background
	}
	return timeline.Background{Type: timeline.BackgroundSolid, Color: "#000000"}
}

// resolveClip picks the clip covering timeMs, or falls back to the nearest
// clip by boundary distance so its media handle stays mounted across gaps:
// prefer the clip ending most recently before timeMs, else the one starting
// soonest after.
func resolveClip(clips []timeline.Clip, timeMs int64) (active *timeline.Clip, gapFilled bool) {
	for i := range clips {
		if clips[i].Contains(timeMs) {
			return &clips[i], false
		}
	}

	var before *timeline.Clip
	var after *timeline.Clip
	for i := range clips {
		c := &clips[i]
		if c.EndTimeMs() <= timeMs {
			if before == nil || c.EndTimeMs() > before.EndTimeMs() {
				before = c
			}
		} else if c.StartTimeMs > timeMs {
			if after == nil || c.StartTimeMs < after.StartTimeMs {
				after = c
			}
		}
	}
	if before != nil {
		return before, true
	}
	return after, true
}

// effectiveTime is the instant at which a clip is sampled: the raw time
// when the clip covers it, otherwise the nearest in-range boundary so a
// gap-filled clip holds a frozen frame rather than advancing.
func effectiveTime(clip *timeline.Clip, timeMs int64) int64 {
	if clip.Contains(timeMs) {
		return timeMs
	}
	if timeMs >= clip.EndTimeMs() {
		return clip.EndTimeMs() - 1
	}
	return clip.StartTimeMs
}

type effectValue struct {
	scale      float64
	centerX    float64
	centerY    float64
	translateX float64
	translateY float64
}

// resolveEffects computes the combined effect value for a visible clip at
// its effective time. Track-level effects win over the clip-local zoom
// window; the identity value applies when neither covers the instant.
func resolveEffects(doc *timeline.Document, contentTrackID string, clip *timeline.Clip, effTime int64) effectValue {
	fx := effectValue{scale: 1, centerX: 0.5, centerY: 0.5}

	zoomFound := false
	panFound := false
	for _, et := range doc.EffectTracksTargeting(contentTrackID) {
		switch et.Type {
		case timeline.TrackZoom:
			if zoomFound {
				continue
			}
			for _, z := range doc.ZoomClipsOnTrack(et.ID) {
				if !z.Contains(effTime) {
					continue
				}
				strength := Envelope(z.EffectWindow, effTime)
				fx.scale = lerp(1, z.Scale, strength)
				fx.centerX = z.CenterX
				fx.centerY = z.CenterY
				zoomFound = true
				break
			}
		case timeline.TrackPan:
			if panFound {
				continue
			}
			for _, p := range doc.PanClipsOnTrack(et.ID) {
				if !p.Contains(effTime) {
					continue
				}
				progress := Progress(p.EffectWindow, effTime)
				fx.translateX = lerp(p.StartX, p.EndX, progress)
				fx.translateY = lerp(p.StartY, p.EndY, progress)
				panFound = true
				break
			}
		}
	}

	if !zoomFound && clip.LocalZoom != nil {
		local := effTime - clip.StartTimeMs
		w := timeline.EffectWindow{
			StartTimeMs: clip.LocalZoom.StartMs,
			DurationMs:  clip.LocalZoom.EndMs - clip.LocalZoom.StartMs,
			EaseInMs:    clip.LocalZoom.EaseInMs,
			EaseOutMs:   clip.LocalZoom.EaseOutMs,
		}
		if w.Contains(local) {
			strength := Envelope(w, local)
			fx.scale = lerp(1, clip.LocalZoom.Scale, strength)
			fx.centerX = clip.LocalZoom.CenterX
			fx.centerY = clip.LocalZoom.CenterY
		}
	}

	return fx
}

// resolveBlurRegions collects every active blur clip on visible blur tracks
// at the raw frame time, with intensity shaped by the easing envelope.
func resolveBlurRegions(doc *timeline.Document, timeMs int64) []BlurRegion {
	var out []BlurRegion
	for _, track := range doc.SortedTracks() {
		if track.Type != timeline.TrackBlur || !track.Visible {
			continue
		}
		for _, b := range doc.BlurClipsOnTrack(track.ID) {
			if !b.Contains(timeMs) {
				continue
			}
			strength := Envelope(b.EffectWindow, timeMs)
			if strength <= 0 {
				continue
			}
			out = append(out, BlurRegion{
				BlurClipID:   b.ID,
				TrackID:      track.ID,
				Intensity:    b.Intensity * strength,
				RegionX:      b.RegionX,
				RegionY:      b.RegionY,
				RegionWidth:  b.RegionWidth,
				RegionHeight: b.RegionHeight,
				CornerRadius: b.CornerRadius,
				BlurInside:   b.BlurInside,
			})
		}
	}
	return out
}

// transformString renders the combined transform in the fixed order
// scale then translate. Identity transforms render as the empty string.
func transformString(scale, tx, ty float64) string {
	if scale == 1 && tx == 0 && ty == 0 {
		return ""
	}
	return fmt.Sprintf("scale(%.4f) translate(%.1fpx, %.1fpx)", scale, tx, ty)
}
