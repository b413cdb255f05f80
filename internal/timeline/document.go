package timeline

import (
	"sort"
	"time"
)

// Document is the full in-memory model of one demo project: the aggregate
// that the compositor and clock read, the interaction engine mutates, and
// the store persists.
type Document struct {
	Project    Project     `json:"project"`
	Background *Background `json:"background,omitempty"`
	Tracks     []Track     `json:"tracks"`
	Clips      []Clip      `json:"clips"`
	ZoomClips  []ZoomClip  `json:"zoom_clips"`
	BlurClips  []BlurClip  `json:"blur_clips"`
	PanClips   []PanClip   `json:"pan_clips"`
	Assets     []Asset     `json:"assets"`
}

// NewDocument builds a fresh project with the standard track set: a
// background track at the bottom, then video, audio, and a zoom effect
// track targeting the video track.
func NewDocument(name string, width, height, frameRate int) *Document {
	now := time.Now()
	doc := &Document{
		Project: Project{
			ID:        NewID(),
			Name:      name,
			Format:    "landscape",
			Width:     width,
			Height:    height,
			FrameRate: frameRate,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	doc.Background = &Background{
		ProjectID: doc.Project.ID,
		Type:      BackgroundSolid,
		Color:     "#1e1e2e",
	}

	video := Track{ID: NewID(), ProjectID: doc.Project.ID, Type: TrackVideo, Name: "Video 1", SortOrder: 2, Visible: true, Volume: 1.0}
	doc.Tracks = []Track{
		{ID: NewID(), ProjectID: doc.Project.ID, Type: TrackZoom, Name: "Zoom", SortOrder: 1, Visible: true, Volume: 1.0, TargetTrackID: video.ID},
		video,
		{ID: NewID(), ProjectID: doc.Project.ID, Type: TrackAudio, Name: "Audio 1", SortOrder: 3, Visible: true, Volume: 1.0},
		{ID: NewID(), ProjectID: doc.Project.ID, Type: TrackBackground, Name: "Background", SortOrder: 4, Visible: true, Volume: 1.0},
	}
	return doc
}

// Clone returns a deep copy. Snapshots handed to the history stack and to
// read-only consumers must never alias the live document's slices.
func (d *Document) Clone() *Document {
	out := &Document{Project: d.Project}
	if d.Background != nil {
		bg := *d.Background
		out.Background = &bg
	}
	out.Tracks = append([]Track(nil), d.Tracks...)
	out.Clips = make([]Clip, len(d.Clips))
	for i, c := range d.Clips {
		out.Clips[i] = c
		if c.LocalZoom != nil {
			lz := *c.LocalZoom
			out.Clips[i].LocalZoom = &lz
		}
	}
	out.ZoomClips = append([]ZoomClip(nil), d.ZoomClips...)
	out.BlurClips = append([]BlurClip(nil), d.BlurClips...)
	out.PanClips = append([]PanClip(nil), d.PanClips...)
	out.Assets = make([]Asset, len(d.Assets))
	for i, a := range d.Assets {
		out.Assets[i] = a
		if a.DurationMs != nil {
			v := *a.DurationMs
			out.Assets[i].DurationMs = &v
		}
		if a.Width != nil {
			v := *a.Width
			out.Assets[i].Width = &v
		}
		if a.Height != nil {
			v := *a.Height
			out.Assets[i].Height = &v
		}
		if a.HasAudio != nil {
			v := *a.HasAudio
			out.Assets[i].HasAudio = &v
		}
	}
	return out
}

// TrackByID returns the track with the given id, or nil.
func (d *Document) TrackByID(id string) *Track {
	for i := range d.Tracks {
		if d.Tracks[i].ID == id {
			return &d.Tracks[i]
		}
	}
	return nil
}

// ClipByID returns the clip with the given id, or nil.
func (d *Document) ClipByID(id string) *Clip {
	for i := range d.Clips {
		if d.Clips[i].ID == id {
			return &d.Clips[i]
		}
	}
	return nil
}

// SortedTracks returns the tracks ordered by SortOrder ascending, ties
// broken by id for stability.
func (d *Document) SortedTracks() []Track {
	out := append([]Track(nil), d.Tracks...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MaxSortOrder returns the highest track sort order, or 0 when no tracks
// exist.
func (d *Document) MaxSortOrder() int {
	max := 0
	for i := range d.Tracks {
		if d.Tracks[i].SortOrder > max {
			max = d.Tracks[i].SortOrder
		}
	}
	return max
}

// ClipsOnTrack returns the track's clips ordered by start time.
func (d *Document) ClipsOnTrack(trackID string) []Clip {
	var out []Clip
	for i := range d.Clips {
		if d.Clips[i].TrackID == trackID {
			out = append(out, d.Clips[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTimeMs < out[j].StartTimeMs
	})
	return out
}

// EffectTracksTargeting returns the effect tracks whose TargetTrackID is
// the given content track, in sort order. Iteration order here is the only
// precedence rule between competing effect tracks: first match wins.
func (d *Document) EffectTracksTargeting(contentTrackID string) []Track {
	var out []Track
	for _, t := range d.SortedTracks() {
		if t.IsEffect() && t.TargetTrackID == contentTrackID {
			out = append(out, t)
		}
	}
	return out
}

// ZoomClipsOnTrack returns the zoom clips on a track ordered by start time.
func (d *Document) ZoomClipsOnTrack(trackID string) []ZoomClip {
	var out []ZoomClip
	for i := range d.ZoomClips {
		if d.ZoomClips[i].TrackID == trackID {
			out = append(out, d.ZoomClips[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTimeMs < out[j].StartTimeMs })
	return out
}

// BlurClipsOnTrack returns the blur clips on a track ordered by start time.
func (d *Document) BlurClipsOnTrack(trackID string) []BlurClip {
	var out []BlurClip
	for i := range d.BlurClips {
		if d.BlurClips[i].TrackID == trackID {
			out = append(out, d.BlurClips[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTimeMs < out[j].StartTimeMs })
	return out
}

// PanClipsOnTrack returns the pan clips on a track ordered by start time.
func (d *Document) PanClipsOnTrack(trackID string) []PanClip {
	var out []PanClip
	for i := range d.PanClips {
		if d.PanClips[i].TrackID == trackID {
			out = append(out, d.PanClips[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTimeMs < out[j].StartTimeMs })
	return out
}

// ZoomClipByID returns the zoom clip with the given id, or nil.
func (d *Document) ZoomClipByID(id string) *ZoomClip {
	for i := range d.ZoomClips {
		if d.ZoomClips[i].ID == id {
			return &d.ZoomClips[i]
		}
	}
	return nil
}

// BlurClipByID returns the blur clip with the given id, or nil.
func (d *Document) BlurClipByID(id string) *BlurClip {
	for i := range d.BlurClips {
		if d.BlurClips[i].ID == id {
			return &d.BlurClips[i]
		}
	}
	return nil
}

// PanClipByID returns the pan clip with the given id, or nil.
func (d *Document) PanClipByID(id string) *PanClip {
	for i := range d.PanClips {
		if d.PanClips[i].ID == id {
			return &d.PanClips[i]
		}
	}
	return nil
}

// EffectWindowByID returns the shared time window of the zoom, blur, or
// pan clip with the given id, or nil. Gestures operate on the window
// without caring which effect type owns it.
func (d *Document) EffectWindowByID(id string) *EffectWindow {
	if z := d.ZoomClipByID(id); z != nil {
		return &z.EffectWindow
	}
	if b := d.BlurClipByID(id); b != nil {
		return &b.EffectWindow
	}
	if p := d.PanClipByID(id); p != nil {
		return &p.EffectWindow
	}
	return nil
}

// RemoveEffectClip deletes the zoom, blur, or pan clip with the given id.
func (d *Document) RemoveEffectClip(id string) bool {
	for i := range d.ZoomClips {
		if d.ZoomClips[i].ID == id {
			d.ZoomClips = append(d.ZoomClips[:i], d.ZoomClips[i+1:]...)
			return true
		}
	}
	for i := range d.BlurClips {
		if d.BlurClips[i].ID == id {
			d.BlurClips = append(d.BlurClips[:i], d.BlurClips[i+1:]...)
			return true
		}
	}
	for i := range d.PanClips {
		if d.PanClips[i].ID == id {
			d.PanClips = append(d.PanClips[:i], d.PanClips[i+1:]...)
			return true
		}
	}
	return false
}

// ContentDurationMs is the end of the last clip on any content track. The
// project duration follows it: effect clips past the content end do not
// extend the timeline.
func (d *Document) ContentDurationMs() int64 {
	var max int64
	for i := range d.Clips {
		if end := d.Clips[i].EndTimeMs(); end > max {
			max = end
		}
	}
	return max
}

// AddTrack appends a track, assigning the next sort order when none is set.
func (d *Document) AddTrack(t Track) {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.SortOrder == 0 && len(d.Tracks) > 0 {
		t.SortOrder = d.MaxSortOrder() + 1
	}
	if t.Volume == 0 {
		t.Volume = 1.0
	}
	d.Tracks = append(d.Tracks, t)
}

// AddClip appends a clip after clamping its invariants.
func (d *Document) AddClip(c Clip) *Clip {
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.Scale == 0 {
		c.Scale = 1.0
	}
	if c.Opacity == 0 {
		c.Opacity = 1.0
	}
	if c.Volume == 0 {
		c.Volume = 1.0
	}
	ClampClip(&c)
	d.Clips = append(d.Clips, c)
	return &d.Clips[len(d.Clips)-1]
}

// RemoveClip deletes a clip and clears any link pointing at it. The linked
// partner is kept; only the pairing is removed.
func (d *Document) RemoveClip(id string) bool {
	idx := -1
	for i := range d.Clips {
		if d.Clips[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	d.Clips = append(d.Clips[:idx], d.Clips[idx+1:]...)
	for i := range d.Clips {
		if d.Clips[i].LinkedClipID == id {
			d.Clips[i].LinkedClipID = ""
		}
	}
	return true
}

// RemoveTrack deletes a track and cascades to its clips and effect clips.
// Effect tracks targeting a removed content track are left in place and
// become inert.
func (d *Document) RemoveTrack(id string) bool {
	idx := -1
	for i := range d.Tracks {
		if d.Tracks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	d.Tracks = append(d.Tracks[:idx], d.Tracks[idx+1:]...)

	var clipIDs []string
	for i := range d.Clips {
		if d.Clips[i].TrackID == id {
			clipIDs = append(clipIDs, d.Clips[i].ID)
		}
	}
	for _, cid := range clipIDs {
		d.RemoveClip(cid)
	}

	zc := d.ZoomClips[:0]
	for _, z := range d.ZoomClips {
		if z.TrackID != id {
			zc = append(zc, z)
		}
	}
	d.ZoomClips = zc

	bc := d.BlurClips[:0]
	for _, b := range d.BlurClips {
		if b.TrackID != id {
			bc = append(bc, b)
		}
	}
	d.BlurClips = bc

	pc := d.PanClips[:0]
	for _, p := range d.PanClips {
		if p.TrackID != id {
			pc = append(pc, p)
		}
	}
	d.PanClips = pc
	return true
}

// LinkClips pairs a video clip with an audio clip. Both directions are set.
func (d *Document) LinkClips(videoID, audioID string) bool {
	v := d.ClipByID(videoID)
	a := d.ClipByID(audioID)
	if v == nil || a == nil {
		return false
	}
	v.LinkedClipID = a.ID
	a.LinkedClipID = v.ID
	return true
}

// UnlinkClips removes a pairing without altering either clip's mute state.
func (d *Document) UnlinkClips(id string) bool {
	c := d.ClipByID(id)
	if c == nil || c.LinkedClipID == "" {
		return false
	}
	if partner := d.ClipByID(c.LinkedClipID); partner != nil {
		partner.LinkedClipID = ""
	}
	c.LinkedClipID = ""
	return true
}

// ClampClip restores clip invariants after a mutation. Violations are
// corrected in place, never reported: the engine prioritizes staying in a
// renderable state over strict validation.
func ClampClip(c *Clip) {
	if c.StartTimeMs < 0 {
		c.StartTimeMs = 0
	}
	if c.DurationMs < MinClipDurationMs {
		c.DurationMs = MinClipDurationMs
	}
	if c.InPointMs < 0 {
		c.InPointMs = 0
	}
	if c.SourceDurationMs > 0 {
		if c.InPointMs >= c.SourceDurationMs {
			c.InPointMs = c.SourceDurationMs - MinClipDurationMs
			if c.InPointMs < 0 {
				c.InPointMs = 0
			}
		}
		if c.InPointMs+c.DurationMs > c.SourceDurationMs {
			c.DurationMs = c.SourceDurationMs - c.InPointMs
			if c.DurationMs < MinClipDurationMs {
				c.DurationMs = MinClipDurationMs
			}
		}
	}
	if c.Opacity < 0 {
		c.Opacity = 0
	}
	if c.Opacity > 1 {
		c.Opacity = 1
	}
	if c.Volume < 0 {
		c.Volume = 0
	}
}
