package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDoc() *timeline.Document {
	return &timeline.Document{
		Project: timeline.Project{ID: "p1", Name: "Demo", Width: 1920, Height: 1080, DurationMs: 6000},
		Tracks: []timeline.Track{
			{ID: "video1", ProjectID: "p1", Type: timeline.TrackVideo, SortOrder: 1, Visible: true, Volume: 1},
			{ID: "audio1", ProjectID: "p1", Type: timeline.TrackAudio, SortOrder: 2, Visible: true, Volume: 1},
		},
		Clips: []timeline.Clip{
			{ID: "c1", TrackID: "video1", StartTimeMs: 0, DurationMs: 2000, Scale: 1, Opacity: 1, Volume: 1},
			{ID: "c2", TrackID: "video1", StartTimeMs: 4000, DurationMs: 2000, Scale: 1, Opacity: 1, Volume: 1},
		},
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New(testDoc(), nil, nil, testLogger())
	t.Cleanup(s.Close)
	return s
}

func TestApply_PushesUndoAndRecomputesDuration(t *testing.T) {
	s := newTestSession(t)

	err := s.Apply("remove clip", func(doc *timeline.Document) error {
		doc.RemoveClip("c2")
		return nil
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !s.CanUndo() {
		t.Fatal("expected an undo entry after Apply")
	}
	if got := s.Project().DurationMs; got != 2000 {
		t.Fatalf("project duration = %d, want 2000", got)
	}
}

func TestApply_ErrorLeavesNoUndoEntry(t *testing.T) {
	s := newTestSession(t)

	wantErr := errors.New("boom")
	err := s.Apply("failing", func(doc *timeline.Document) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Apply error = %v, want wrapped %v", err, wantErr)
	}
	if s.CanUndo() {
		t.Fatal("failed command must not be undoable")
	}
}

func TestUndoRedo_RoundTrip(t *testing.T) {
	s := newTestSession(t)

	if s.Undo() {
		t.Fatal("Undo on empty stack should report false")
	}

	_ = s.Apply("remove clip", func(doc *timeline.Document) error {
		doc.RemoveClip("c2")
		return nil
	})

	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if s.Snapshot().ClipByID("c2") == nil {
		t.Fatal("undo did not restore the removed clip")
	}
	if got := s.Project().DurationMs; got != 6000 {
		t.Fatalf("duration after undo = %d, want 6000", got)
	}

	if !s.Redo() {
		t.Fatal("Redo returned false")
	}
	if s.Snapshot().ClipByID("c2") != nil {
		t.Fatal("redo did not re-remove the clip")
	}
}

func TestDragGesture_OneUndoStep(t *testing.T) {
	s := newTestSession(t)

	if err := s.BeginClipDrag("c1", 500); err != nil {
		t.Fatalf("BeginClipDrag: %v", err)
	}
	// Many intermediate updates, one history entry.
	for _, pointer := range []int64{800, 1100, 1400} {
		if _, err := s.UpdateClipDrag(pointer, 1.0, false); err != nil {
			t.Fatalf("UpdateClipDrag(%d): %v", pointer, err)
		}
	}
	if s.CanUndo() {
		t.Fatal("in-flight gesture must not be undoable")
	}
	if err := s.EndClipDrag(); err != nil {
		t.Fatalf("EndClipDrag: %v", err)
	}

	moved := s.Snapshot().ClipByID("c1")
	if moved.StartTimeMs != 900 {
		t.Fatalf("start after drag = %d, want 900", moved.StartTimeMs)
	}
	if !s.CanUndo() {
		t.Fatal("completed gesture should be undoable")
	}

	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if got := s.Snapshot().ClipByID("c1").StartTimeMs; got != 0 {
		t.Fatalf("start after undo = %d, want 0", got)
	}
	if s.CanUndo() {
		t.Fatal("the whole gesture should undo as one step")
	}
}

func TestDragGesture_Conflicts(t *testing.T) {
	s := newTestSession(t)

	if _, err := s.UpdateClipDrag(100, 1.0, false); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("update without gesture: %v", err)
	}
	if err := s.EndClipDrag(); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("end without gesture: %v", err)
	}

	if err := s.BeginClipDrag("c1", 500); err != nil {
		t.Fatalf("BeginClipDrag: %v", err)
	}
	if err := s.BeginClipDrag("c2", 4100); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("second drag begin: %v", err)
	}
	if err := s.BeginTrim("c2"); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("trim begin during drag: %v", err)
	}
}

func TestTrimGesture_OneUndoStep(t *testing.T) {
	s := newTestSession(t)

	if err := s.BeginTrim("c1"); err != nil {
		t.Fatalf("BeginTrim: %v", err)
	}
	if err := s.UpdateTrimEnd("c1", 1500); err != nil {
		t.Fatalf("UpdateTrimEnd: %v", err)
	}
	if err := s.UpdateTrimEnd("c1", 1200); err != nil {
		t.Fatalf("UpdateTrimEnd: %v", err)
	}
	if err := s.EndTrim(); err != nil {
		t.Fatalf("EndTrim: %v", err)
	}

	if got := s.Snapshot().ClipByID("c1").DurationMs; got != 1200 {
		t.Fatalf("duration after trim = %d, want 1200", got)
	}
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if got := s.Snapshot().ClipByID("c1").DurationMs; got != 2000 {
		t.Fatalf("duration after undo = %d, want 2000", got)
	}
}

func TestTrimGesture_UnknownClip(t *testing.T) {
	s := newTestSession(t)
	if err := s.BeginTrim("missing"); err == nil {
		t.Fatal("BeginTrim on unknown clip should fail")
	}
	if err := s.UpdateTrimStart("c1", 100); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("trim update without gesture: %v", err)
	}
	if err := s.EndTrim(); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("trim end without gesture: %v", err)
	}
}

func TestSplitClip_SingleUndoStep(t *testing.T) {
	s := newTestSession(t)

	first, second, err := s.SplitClip("c1", 800)
	if err != nil {
		t.Fatalf("SplitClip: %v", err)
	}

	doc := s.Snapshot()
	if doc.ClipByID(first).DurationMs != 800 || doc.ClipByID(second).DurationMs != 1200 {
		t.Fatalf("halves = %d/%d, want 800/1200",
			doc.ClipByID(first).DurationMs, doc.ClipByID(second).DurationMs)
	}

	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	doc = s.Snapshot()
	if doc.ClipByID(second) != nil {
		t.Fatal("split second half should disappear on undo")
	}
	if got := doc.ClipByID("c1").DurationMs; got != 2000 {
		t.Fatalf("original duration after undo = %d, want 2000", got)
	}
}

func TestSplitAtPlayhead(t *testing.T) {
	s := newTestSession(t)
	s.Clock().SeekTo(4500)

	first, second, err := s.SplitAtPlayhead("c2")
	if err != nil {
		t.Fatalf("SplitAtPlayhead: %v", err)
	}
	doc := s.Snapshot()
	if got := doc.ClipByID(first).DurationMs; got != 500 {
		t.Fatalf("first half duration = %d, want 500", got)
	}
	if got := doc.ClipByID(second).StartTimeMs; got != 4500 {
		t.Fatalf("second half start = %d, want 4500", got)
	}
}

func TestSplit_RejectsBoundary(t *testing.T) {
	s := newTestSession(t)
	if _, _, err := s.SplitClip("c1", 0); err == nil {
		t.Fatal("split at clip start should fail")
	}
	if s.CanUndo() {
		t.Fatal("rejected split must not leave an undo entry")
	}
}

func TestEvaluateFrame_UsesLiveDocument(t *testing.T) {
	s := newTestSession(t)

	frame := s.EvaluateFrame(500)
	if len(frame.Layers) == 0 {
		t.Fatal("expected at least one layer at 500ms")
	}
	if frame.Layers[0].ClipID != "c1" {
		t.Fatalf("top layer = %s, want c1", frame.Layers[0].ClipID)
	}
}

func TestClockDurationFollowsContent(t *testing.T) {
	s := newTestSession(t)

	_ = s.Apply("remove tail", func(doc *timeline.Document) error {
		doc.RemoveClip("c2")
		return nil
	})

	// Seeking past the new content end clamps to it.
	s.Clock().SeekTo(10000)
	if got := s.Clock().PositionMs(); got != 2000 {
		t.Fatalf("clamped position = %d, want 2000", got)
	}
}

func newEffectTestSession(t *testing.T) *Session {
	t.Helper()
	doc := testDoc()
	doc.Tracks = append(doc.Tracks, timeline.Track{
		ID: "zoom1", ProjectID: "p1", Type: timeline.TrackZoom, SortOrder: 0, Visible: true, Volume: 1, TargetTrackID: "video1",
	})
	doc.ZoomClips = []timeline.ZoomClip{
		{ID: "z1", TrackID: "zoom1", EffectWindow: timeline.EffectWindow{StartTimeMs: 1000, DurationMs: 2000}, Scale: 2},
	}
	s := New(doc, nil, nil, testLogger())
	t.Cleanup(s.Close)
	return s
}

func TestEffectDragGesture_OneUndoStep(t *testing.T) {
	s := newEffectTestSession(t)

	// Grab z1 200ms into its window.
	if err := s.BeginEffectDrag("z1", 1200); err != nil {
		t.Fatalf("BeginEffectDrag: %v", err)
	}
	if _, err := s.UpdateEffectDrag(1700, 1.0, false); err != nil {
		t.Fatalf("UpdateEffectDrag: %v", err)
	}
	start, err := s.UpdateEffectDrag(2700, 1.0, false)
	if err != nil {
		t.Fatalf("UpdateEffectDrag: %v", err)
	}
	if start != 2500 {
		t.Fatalf("start = %d, want 2500", start)
	}
	if s.CanUndo() {
		t.Fatal("in-flight effect drag must not be undoable")
	}
	if err := s.EndEffectDrag(); err != nil {
		t.Fatalf("EndEffectDrag: %v", err)
	}

	if got := s.Snapshot().ZoomClipByID("z1").StartTimeMs; got != 2500 {
		t.Fatalf("zoom clip start = %d, want 2500", got)
	}
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	if got := s.Snapshot().ZoomClipByID("z1").StartTimeMs; got != 1000 {
		t.Fatalf("zoom clip start after undo = %d, want 1000 (whole gesture in one step)", got)
	}
}

func TestEffectDragGesture_Conflicts(t *testing.T) {
	s := newEffectTestSession(t)

	if _, err := s.UpdateEffectDrag(100, 1.0, false); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("update without gesture = %v, want ErrNoGestureActive", err)
	}
	if err := s.EndEffectDrag(); !errors.Is(err, ErrNoGestureActive) {
		t.Fatalf("end without gesture = %v, want ErrNoGestureActive", err)
	}

	if err := s.BeginEffectDrag("z1", 1200); err != nil {
		t.Fatalf("BeginEffectDrag: %v", err)
	}
	if err := s.BeginEffectDrag("z1", 1300); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("second begin = %v, want ErrGestureActive", err)
	}
	if err := s.BeginClipDrag("c1", 100); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("clip drag during effect drag = %v, want ErrGestureActive", err)
	}
	if err := s.BeginTrim("c1"); !errors.Is(err, ErrGestureActive) {
		t.Fatalf("trim during effect drag = %v, want ErrGestureActive", err)
	}
}

func TestEffectTrimGesture_OneUndoStep(t *testing.T) {
	s := newEffectTestSession(t)

	if err := s.BeginEffectTrim("z1"); err != nil {
		t.Fatalf("BeginEffectTrim: %v", err)
	}
	if err := s.UpdateEffectTrimEnd("z1", 2600); err != nil {
		t.Fatalf("UpdateEffectTrimEnd: %v", err)
	}
	if err := s.UpdateEffectTrimStart("z1", 1400); err != nil {
		t.Fatalf("UpdateEffectTrimStart: %v", err)
	}
	if err := s.EndTrim(); err != nil {
		t.Fatalf("EndTrim: %v", err)
	}

	z := s.Snapshot().ZoomClipByID("z1")
	if z.StartTimeMs != 1400 || z.DurationMs != 1200 {
		t.Fatalf("window = {start %d, dur %d}, want {1400, 1200}", z.StartTimeMs, z.DurationMs)
	}
	if !s.Undo() {
		t.Fatal("Undo returned false")
	}
	z = s.Snapshot().ZoomClipByID("z1")
	if z.StartTimeMs != 1000 || z.DurationMs != 2000 {
		t.Fatalf("window after undo = {start %d, dur %d}, want {1000, 2000}", z.StartTimeMs, z.DurationMs)
	}
}

func TestEffectTrim_UnknownClip(t *testing.T) {
	s := newEffectTestSession(t)

	if err := s.BeginEffectTrim("nope"); err == nil {
		t.Fatal("expected error for unknown effect clip")
	}
	if s.CanUndo() {
		t.Fatal("failed begin must not leave an undo entry")
	}
}
