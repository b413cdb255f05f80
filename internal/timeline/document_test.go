package timeline

import (
	"testing"
)

func sampleDoc() *Document {
	return &Document{
		Project: Project{ID: "p1", Name: "Demo", Width: 1920, Height: 1080, DurationMs: 8000},
		Background: &Background{
			ProjectID: "p1", Type: BackgroundSolid, Color: "#000000",
		},
		Tracks: []Track{
			{ID: "zoom1", ProjectID: "p1", Type: TrackZoom, SortOrder: 1, Visible: true, Volume: 1, TargetTrackID: "video1"},
			{ID: "video1", ProjectID: "p1", Type: TrackVideo, SortOrder: 2, Visible: true, Volume: 1},
			{ID: "audio1", ProjectID: "p1", Type: TrackAudio, SortOrder: 3, Visible: true, Volume: 1},
		},
		Clips: []Clip{
			{ID: "c1", TrackID: "video1", StartTimeMs: 0, DurationMs: 3000, Scale: 1, Opacity: 1, Volume: 1},
			{ID: "c2", TrackID: "video1", StartTimeMs: 5000, DurationMs: 3000, Scale: 1, Opacity: 1, Volume: 1},
			{ID: "a1", TrackID: "audio1", StartTimeMs: 0, DurationMs: 3000, Scale: 1, Opacity: 1, Volume: 1},
		},
		ZoomClips: []ZoomClip{
			{ID: "z1", TrackID: "zoom1", EffectWindow: EffectWindow{StartTimeMs: 500, DurationMs: 1000}, Scale: 2},
		},
	}
}

func TestClone_DeepCopies(t *testing.T) {
	doc := sampleDoc()
	doc.Clips[0].LocalZoom = &LocalZoom{StartMs: 0, EndMs: 1000, Scale: 2}

	clone := doc.Clone()

	clone.Clips[0].StartTimeMs = 999
	clone.Clips[0].LocalZoom.Scale = 5
	clone.Tracks[0].Locked = true
	clone.Background.Color = "#ffffff"

	if doc.Clips[0].StartTimeMs != 0 {
		t.Error("clip mutation leaked into the original")
	}
	if doc.Clips[0].LocalZoom.Scale != 2 {
		t.Error("local zoom mutation leaked into the original")
	}
	if doc.Tracks[0].Locked {
		t.Error("track mutation leaked into the original")
	}
	if doc.Background.Color != "#000000" {
		t.Error("background mutation leaked into the original")
	}
}

func TestClip_HalfOpenInterval(t *testing.T) {
	c := Clip{StartTimeMs: 1000, DurationMs: 500}

	if c.Contains(999) {
		t.Error("time before start should not be contained")
	}
	if !c.Contains(1000) {
		t.Error("start is inclusive")
	}
	if !c.Contains(1499) {
		t.Error("last covered millisecond missing")
	}
	if c.Contains(1500) {
		t.Error("end is exclusive")
	}
}

func TestClip_SourceTimeAt(t *testing.T) {
	c := Clip{StartTimeMs: 1000, DurationMs: 500, InPointMs: 250}
	if got := c.SourceTimeAt(1200); got != 450 {
		t.Fatalf("SourceTimeAt(1200) = %d, want 450", got)
	}
}

func TestSortedTracks_StableOrder(t *testing.T) {
	doc := sampleDoc()
	// Two tracks sharing a sort order fall back to id ordering.
	doc.Tracks = append(doc.Tracks, Track{ID: "aaa", Type: TrackVideo, SortOrder: 2})

	sorted := doc.SortedTracks()
	if sorted[0].ID != "zoom1" {
		t.Fatalf("first track = %s, want zoom1", sorted[0].ID)
	}
	if sorted[1].ID != "aaa" || sorted[2].ID != "video1" {
		t.Fatalf("tie broken wrong: %s, %s", sorted[1].ID, sorted[2].ID)
	}
}

func TestRemoveClip_ClearsDanglingLinks(t *testing.T) {
	doc := sampleDoc()
	doc.LinkClips("c1", "a1")

	if !doc.RemoveClip("a1") {
		t.Fatal("RemoveClip returned false")
	}
	if doc.ClipByID("c1").LinkedClipID != "" {
		t.Fatal("dangling link not cleared")
	}
}

func TestRemoveTrack_CascadesToClips(t *testing.T) {
	doc := sampleDoc()

	if !doc.RemoveTrack("video1") {
		t.Fatal("RemoveTrack returned false")
	}
	if doc.ClipByID("c1") != nil || doc.ClipByID("c2") != nil {
		t.Fatal("clips on removed track should be gone")
	}
	// The effect track targeting it survives, inert.
	if doc.TrackByID("zoom1") == nil {
		t.Fatal("targeting effect track should survive")
	}
}

func TestRemoveTrack_CascadesToEffectClips(t *testing.T) {
	doc := sampleDoc()

	if !doc.RemoveTrack("zoom1") {
		t.Fatal("RemoveTrack returned false")
	}
	if len(doc.ZoomClips) != 0 {
		t.Fatal("zoom clips on removed track should be gone")
	}
}

func TestLinkClips_BothDirections(t *testing.T) {
	doc := sampleDoc()

	if !doc.LinkClips("c1", "a1") {
		t.Fatal("LinkClips returned false")
	}
	if doc.ClipByID("c1").LinkedClipID != "a1" || doc.ClipByID("a1").LinkedClipID != "c1" {
		t.Fatal("link not symmetric")
	}

	if !doc.UnlinkClips("a1") {
		t.Fatal("UnlinkClips returned false")
	}
	if doc.ClipByID("c1").LinkedClipID != "" || doc.ClipByID("a1").LinkedClipID != "" {
		t.Fatal("unlink not symmetric")
	}
}

func TestContentDurationMs(t *testing.T) {
	doc := sampleDoc()
	if got := doc.ContentDurationMs(); got != 8000 {
		t.Fatalf("ContentDurationMs() = %d, want 8000", got)
	}

	doc.RemoveClip("c2")
	if got := doc.ContentDurationMs(); got != 3000 {
		t.Fatalf("ContentDurationMs() after removal = %d, want 3000", got)
	}
}

func TestAddClip_AppliesDefaults(t *testing.T) {
	doc := sampleDoc()

	added := doc.AddClip(Clip{TrackID: "video1", StartTimeMs: -50, DurationMs: 10})
	if added.ID == "" {
		t.Fatal("id not assigned")
	}
	if added.Scale != 1 || added.Opacity != 1 || added.Volume != 1 {
		t.Fatalf("defaults not applied: %+v", added)
	}
	if added.StartTimeMs != 0 {
		t.Fatalf("start = %d, want clamped to 0", added.StartTimeMs)
	}
	if added.DurationMs != MinClipDurationMs {
		t.Fatalf("duration = %d, want %d", added.DurationMs, MinClipDurationMs)
	}
}

func TestEffectTracksTargeting(t *testing.T) {
	doc := sampleDoc()

	targeting := doc.EffectTracksTargeting("video1")
	if len(targeting) != 1 || targeting[0].ID != "zoom1" {
		t.Fatalf("targeting = %+v, want [zoom1]", targeting)
	}
	if got := doc.EffectTracksTargeting("audio1"); len(got) != 0 {
		t.Fatalf("audio1 should have no effect tracks, got %+v", got)
	}
}

func TestNewDocument_DefaultTrackSet(t *testing.T) {
	doc := NewDocument("Fresh", 1920, 1080, 30)

	if doc.Project.ID == "" || doc.Project.Name != "Fresh" {
		t.Fatalf("project = %+v", doc.Project)
	}
	if doc.Background == nil || doc.Background.Type != BackgroundSolid {
		t.Fatal("default background missing")
	}

	types := map[string]bool{}
	for _, tr := range doc.Tracks {
		types[tr.Type] = true
	}
	for _, want := range []string{TrackBackground, TrackVideo, TrackAudio, TrackZoom} {
		if !types[want] {
			t.Errorf("default track set missing %s", want)
		}
	}

	// The zoom track targets the video track.
	for _, tr := range doc.Tracks {
		if tr.Type == TrackZoom {
			target := doc.TrackByID(tr.TargetTrackID)
			if target == nil || target.Type != TrackVideo {
				t.Fatal("zoom track should target the video track")
			}
		}
	}
}

func TestEffectClipLookupByID(t *testing.T) {
	doc := sampleDoc()
	doc.BlurClips = []BlurClip{{ID: "b1", TrackID: "blur1", EffectWindow: EffectWindow{StartTimeMs: 0, DurationMs: 500}}}
	doc.PanClips = []PanClip{{ID: "pan1", TrackID: "pan1", EffectWindow: EffectWindow{StartTimeMs: 0, DurationMs: 500}}}

	if doc.ZoomClipByID("z1") == nil {
		t.Error("zoom clip z1 not found")
	}
	if doc.BlurClipByID("b1") == nil {
		t.Error("blur clip b1 not found")
	}
	if doc.PanClipByID("pan1") == nil {
		t.Error("pan clip pan1 not found")
	}
	if doc.ZoomClipByID("b1") != nil {
		t.Error("zoom lookup matched a blur clip id")
	}

	for _, id := range []string{"z1", "b1", "pan1"} {
		w := doc.EffectWindowByID(id)
		if w == nil {
			t.Fatalf("EffectWindowByID(%q) = nil", id)
		}
		// The window aliases the owning clip.
		w.StartTimeMs = 4242
		if again := doc.EffectWindowByID(id); again.StartTimeMs != 4242 {
			t.Errorf("window for %q is a copy, not an alias", id)
		}
	}
	if doc.EffectWindowByID("nope") != nil {
		t.Error("unknown id should yield nil window")
	}
}

func TestRemoveEffectClip(t *testing.T) {
	doc := sampleDoc()
	doc.BlurClips = []BlurClip{{ID: "b1", TrackID: "blur1", EffectWindow: EffectWindow{DurationMs: 500}}}
	doc.PanClips = []PanClip{{ID: "pan1", TrackID: "pan1", EffectWindow: EffectWindow{DurationMs: 500}}}

	if !doc.RemoveEffectClip("z1") {
		t.Fatal("RemoveEffectClip(z1) = false")
	}
	if len(doc.ZoomClips) != 0 {
		t.Errorf("zoom clips remaining = %d, want 0", len(doc.ZoomClips))
	}
	if !doc.RemoveEffectClip("b1") || !doc.RemoveEffectClip("pan1") {
		t.Fatal("blur/pan removal failed")
	}
	if doc.RemoveEffectClip("z1") {
		t.Error("second removal should report false")
	}
}
