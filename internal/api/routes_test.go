package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/demostudio/demostudio-agent/internal/assets"
	"github.com/demostudio/demostudio-agent/internal/db"
	"github.com/demostudio/demostudio-agent/internal/media"
	"github.com/demostudio/demostudio-agent/internal/probe"
	"github.com/demostudio/demostudio-agent/internal/session"
	"github.com/demostudio/demostudio-agent/internal/store"
	"github.com/demostudio/demostudio-agent/internal/timeline"
)

const testToken = "test-token"

func testServerConfig(t *testing.T) ServerConfig {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := store.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	mediaPath := filepath.Join(t.TempDir(), "screen.mp4")
	if err := os.WriteFile(mediaPath, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	assetDur := int64(8000)
	assetAudio := true
	doc := &timeline.Document{
		Project: timeline.Project{ID: "p1", Name: "Demo", Format: "landscape", Width: 1920, Height: 1080, FrameRate: 30, DurationMs: 2000},
		Background: &timeline.Background{
			ProjectID: "p1", Type: timeline.BackgroundSolid, Color: "#1e1e2e",
		},
		Tracks: []timeline.Track{
			{ID: "video1", ProjectID: "p1", Type: timeline.TrackVideo, Name: "Video 1", SortOrder: 1, Visible: true, Volume: 1},
			{ID: "audio1", ProjectID: "p1", Type: timeline.TrackAudio, Name: "Audio 1", SortOrder: 2, Visible: true, Volume: 1},
			{ID: "bg1", ProjectID: "p1", Type: timeline.TrackBackground, Name: "Background", SortOrder: 3, Visible: true, Volume: 1},
		},
		Clips: []timeline.Clip{
			{ID: "c1", TrackID: "video1", SourcePath: mediaPath, SourceType: timeline.SourceVideo, StartTimeMs: 0, DurationMs: 2000, Scale: 1, Opacity: 1, Volume: 1},
		},
		Assets: []timeline.Asset{
			{ID: "as1", ProjectID: "p1", Name: "screen.mp4", FilePath: mediaPath, AssetType: timeline.SourceVideo, DurationMs: &assetDur, HasAudio: &assetAudio, FileSize: 16, CreatedAt: time.Now().UTC()},
		},
	}

	sess := session.New(doc, nil, nil, logger)
	t.Cleanup(sess.Close)

	return ServerConfig{
		Session:     sess,
		Repository:  repo,
		Importer:    assets.NewImporter(probe.NewStubProber(logger), logger),
		MediaServer: media.NewServer(logger),
		ExportDir:   t.TempDir(),
		Logger:      logger,
		StartTime:   time.Now(),
	}
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestStatus(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ProjectID != "p1" || resp.ProjectName != "Demo" {
		t.Errorf("project = %+v", resp)
	}
	if resp.DurationMs != 2000 || resp.Playing {
		t.Errorf("transport = %+v", resp)
	}
	if resp.CanUndo || resp.CanRedo {
		t.Errorf("fresh session history flags = %+v", resp)
	}
}

func TestFrame(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/frame?t=500", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["time_ms"] != float64(500) {
		t.Errorf("time_ms = %v", body["time_ms"])
	}
	layers, ok := body["layers"].([]interface{})
	if !ok || len(layers) != 1 {
		t.Fatalf("layers = %v", body["layers"])
	}
}

func TestFrame_BadTime(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/frame?t=abc", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTransport_SeekPlayPause(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/transport/seek", SeekRequest{PositionMs: 1500}))
	if rr.Code != http.StatusOK {
		t.Fatalf("seek status = %d", rr.Code)
	}
	var resp TransportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.PositionMs != 1500 || resp.Playing {
		t.Errorf("after seek = %+v", resp)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/transport/play", nil))
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Playing {
		t.Error("play did not start playback")
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/transport/pause", nil))
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Playing {
		t.Error("pause did not stop playback")
	}
}

func TestAddTrack(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/tracks",
		AddTrackRequest{Type: timeline.TrackZoom, TargetTrackID: "video1"}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp AddTrackResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	track := cfg.Session.Snapshot().TrackByID(resp.TrackID)
	if track == nil || track.TargetTrackID != "video1" {
		t.Fatalf("track not added: %+v", track)
	}
}

func TestAddTrack_InvalidType(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	for _, bad := range []string{"", "subtitle", timeline.TrackBackground} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/tracks", AddTrackRequest{Type: bad}))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("type %q: status = %d, want %d", bad, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestDeleteTrack_BackgroundRefused(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodDelete, "/tracks/bg1", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAddClip_CreatesLinkedAudio(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/clips",
		AddClipRequest{TrackID: "video1", AssetID: "as1", StartTimeMs: 3000}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp AddClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ClipID == "" || resp.LinkedClipID == "" {
		t.Fatalf("response = %+v, want both clip ids", resp)
	}

	doc := cfg.Session.Snapshot()
	video := doc.ClipByID(resp.ClipID)
	audio := doc.ClipByID(resp.LinkedClipID)
	if video == nil || audio == nil {
		t.Fatal("clips missing from document")
	}
	if video.DurationMs != 8000 {
		t.Errorf("clip duration = %d, want asset duration 8000", video.DurationMs)
	}
	if audio.TrackID != "audio1" || audio.SourceType != timeline.SourceAudio {
		t.Errorf("audio clip = %+v", audio)
	}
	if video.LinkedClipID != audio.ID || audio.LinkedClipID != video.ID {
		t.Error("clips not linked")
	}
}

func TestAddClip_UnknownAsset(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/clips",
		AddClipRequest{TrackID: "video1", AssetID: "nope"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSplitClip(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	at := int64(800)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/clips/c1/split", SplitRequest{TimeMs: &at}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp SplitResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	doc := cfg.Session.Snapshot()
	if doc.ClipByID(resp.FirstID).DurationMs != 800 || doc.ClipByID(resp.SecondID).DurationMs != 1200 {
		t.Errorf("halves = %+v / %+v", doc.ClipByID(resp.FirstID), doc.ClipByID(resp.SecondID))
	}
}

func TestUndoRedoFlow(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodDelete, "/clips/c1", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/undo", nil))
	var hist HistoryResponse
	if err := json.NewDecoder(rr.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if !hist.Applied || !hist.CanRedo || hist.CanUndo {
		t.Errorf("undo response = %+v", hist)
	}
	if cfg.Session.Snapshot().ClipByID("c1") == nil {
		t.Fatal("undo did not restore the clip")
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/redo", nil))
	if err := json.NewDecoder(rr.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if !hist.Applied || hist.CanRedo {
		t.Errorf("redo response = %+v", hist)
	}

	// Nothing left to redo.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/redo", nil))
	if err := json.NewDecoder(rr.Body).Decode(&hist); err != nil {
		t.Fatal(err)
	}
	if hist.Applied {
		t.Error("redo on empty stack reported applied")
	}
}

func TestDragGestureConflict(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/drag/begin",
		DragBeginRequest{ClipID: "c1", PointerMs: 500}))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("begin status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/drag/begin",
		DragBeginRequest{ClipID: "c1", PointerMs: 500}))
	if rr.Code != http.StatusConflict {
		t.Fatalf("second begin status = %d, want %d", rr.Code, http.StatusConflict)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "GESTURE_CONFLICT" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestListAssets(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/assets", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp AssetsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Assets) != 1 || resp.Assets[0].ID != "as1" {
		t.Errorf("assets = %+v", resp.Assets)
	}
}

func TestImportAsset(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	path := filepath.Join(t.TempDir(), "extra.mp4")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/assets", ImportAssetRequest{Path: path}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp AssetResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Name != "extra.mp4" || resp.Type != timeline.SourceVideo {
		t.Errorf("asset = %+v", resp)
	}
	if len(cfg.Session.Snapshot().Assets) != 2 {
		t.Errorf("asset count = %d, want 2", len(cfg.Session.Snapshot().Assets))
	}
}

func TestImportAsset_MissingPath(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/assets", ImportAssetRequest{}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMediaFile(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/media/file", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing asset_id status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/media/file?asset_id=nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown asset status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/media/file?asset_id=as1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.String() != "fake video bytes" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestExport_JSON(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/export", ExportRequest{Format: "json"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp ExportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Format != "json" || resp.Status != "ok" {
		t.Errorf("response = %+v", resp)
	}
	if _, err := os.Stat(resp.OutputPath); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestExport_EDL(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/export", ExportRequest{Format: "edl"}))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp ExportResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(resp.OutputPath)
	if err != nil {
		t.Fatalf("read export error = %v", err)
	}
	if !bytes.Contains(data, []byte("TITLE: Demo")) {
		t.Errorf("EDL content:\n%s", data)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/export", ExportRequest{Format: "mp4"}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAddClip_OnAudioTrack(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/clips", AddClipRequest{
		TrackID:     "audio1",
		SourcePath:  "/music/narration.mp3",
		StartTimeMs: 500,
		DurationMs:  3000,
	}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var resp AddClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	clip := cfg.Session.Snapshot().ClipByID(resp.ClipID)
	if clip == nil {
		t.Fatal("clip not in document")
	}
	if clip.TrackID != "audio1" {
		t.Errorf("track = %s, want audio1", clip.TrackID)
	}
	if clip.SourceType != timeline.SourceAudio {
		t.Errorf("source type = %s, want audio", clip.SourceType)
	}
	if clip.LinkedClipID != "" {
		t.Errorf("standalone audio clip got linked to %s", clip.LinkedClipID)
	}
}

func addTestEffectTrack(t *testing.T, router http.Handler, trackType string) string {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/tracks", AddTrackRequest{
		Type: trackType, TargetTrackID: "video1",
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add %s track status = %d: %s", trackType, rr.Code, rr.Body.String())
	}
	var resp AddTrackResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp.TrackID
}

func TestEffectClipLifecycle(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)
	trackID := addTestEffectTrack(t, router, timeline.TrackZoom)

	start := int64(500)
	dur := int64(2000)
	scale := 2.5
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips", AddEffectClipRequest{
		TrackID: trackID,
		EffectClipParams: EffectClipParams{
			StartTimeMs: &start, DurationMs: &dur, Scale: &scale,
		},
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	var created EffectClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	z := cfg.Session.Snapshot().ZoomClipByID(created.ClipID)
	if z == nil {
		t.Fatal("zoom clip not in document")
	}
	if z.StartTimeMs != 500 || z.DurationMs != 2000 || z.Scale != 2.5 {
		t.Fatalf("zoom clip = %+v", z)
	}
	if z.CenterX != 0.5 || z.CenterY != 0.5 {
		t.Errorf("center defaults = (%v, %v), want (0.5, 0.5)", z.CenterX, z.CenterY)
	}
	if z.EaseInMs != 300 || z.EaseOutMs != 300 {
		t.Errorf("ease defaults = (%d, %d), want (300, 300)", z.EaseInMs, z.EaseOutMs)
	}

	// Update only the scale; the window stays put.
	newScale := 1.8
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips/"+created.ClipID, EffectClipParams{
		Scale: &newScale,
	}))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}
	z = cfg.Session.Snapshot().ZoomClipByID(created.ClipID)
	if z.Scale != 1.8 || z.StartTimeMs != 500 || z.DurationMs != 2000 {
		t.Fatalf("zoom clip after update = %+v", z)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodDelete, "/effect-clips/"+created.ClipID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d: %s", rr.Code, rr.Body.String())
	}
	if cfg.Session.Snapshot().ZoomClipByID(created.ClipID) != nil {
		t.Fatal("zoom clip survived delete")
	}

	// Create, update, delete were three discrete commands.
	for i := 0; i < 3; i++ {
		if !cfg.Session.Undo() {
			t.Fatalf("undo %d returned false", i+1)
		}
	}
	// Track add was the fourth; the timeline is back to no zoom clips.
	if n := len(cfg.Session.Snapshot().ZoomClips); n != 0 {
		t.Fatalf("zoom clips after full undo = %d, want 0", n)
	}
}

func TestEffectClip_RejectsContentTrack(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	dur := int64(1000)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips", AddEffectClipRequest{
		TrackID:          "video1",
		EffectClipParams: EffectClipParams{DurationMs: &dur},
	}))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEffectClip_BlurDefaults(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)
	trackID := addTestEffectTrack(t, router, timeline.TrackBlur)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips", AddEffectClipRequest{
		TrackID: trackID,
	}))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	var created EffectClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	b := cfg.Session.Snapshot().BlurClipByID(created.ClipID)
	if b == nil {
		t.Fatal("blur clip not in document")
	}
	if b.Intensity != 20 || !b.BlurInside {
		t.Errorf("blur defaults = %+v", b)
	}
	if b.RegionWidth != 0.3 || b.RegionHeight != 0.3 {
		t.Errorf("region defaults = (%v, %v), want (0.3, 0.3)", b.RegionWidth, b.RegionHeight)
	}
	if b.DurationMs != 3000 {
		t.Errorf("duration default = %d, want 3000", b.DurationMs)
	}
}

func TestEffectDragGestureEndpoints(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)
	trackID := addTestEffectTrack(t, router, timeline.TrackZoom)

	start := int64(1000)
	dur := int64(2000)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips", AddEffectClipRequest{
		TrackID:          trackID,
		EffectClipParams: EffectClipParams{StartTimeMs: &start, DurationMs: &dur},
	}))
	var created EffectClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-drag/begin", DragBeginRequest{
		ClipID: created.ClipID, PointerMs: 1200,
	}))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("begin status = %d: %s", rr.Code, rr.Body.String())
	}

	// A clip drag during the effect drag answers the gesture conflict code.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/drag/begin", DragBeginRequest{
		ClipID: "c1", PointerMs: 100,
	}))
	if rr.Code != http.StatusConflict {
		t.Fatalf("conflicting begin status = %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-drag/update", DragUpdateRequest{
		PointerMs: 2700, Zoom: 1.0,
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}
	var upd DragUpdateResponse
	if err := json.NewDecoder(rr.Body).Decode(&upd); err != nil {
		t.Fatal(err)
	}
	if upd.StartTimeMs != 2500 {
		t.Errorf("start = %d, want 2500", upd.StartTimeMs)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-drag/end", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("end status = %d: %s", rr.Code, rr.Body.String())
	}
	if got := cfg.Session.Snapshot().ZoomClipByID(created.ClipID).StartTimeMs; got != 2500 {
		t.Fatalf("zoom clip start = %d, want 2500", got)
	}
}

func TestEffectTrimGestureEndpoints(t *testing.T) {
	cfg := testServerConfig(t)
	router := NewRouter(cfg)
	trackID := addTestEffectTrack(t, router, timeline.TrackZoom)

	start := int64(1000)
	dur := int64(2000)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/effect-clips", AddEffectClipRequest{
		TrackID:          trackID,
		EffectClipParams: EffectClipParams{StartTimeMs: &start, DurationMs: &dur},
	}))
	var created EffectClipResponse
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-trim/begin", TrimBeginRequest{
		ClipID: created.ClipID,
	}))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("begin status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-trim/update", TrimUpdateRequest{
		ClipID: created.ClipID, Edge: "end", TimeMs: 2400,
	}))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/gestures/effect-trim/end", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("end status = %d: %s", rr.Code, rr.Body.String())
	}

	z := cfg.Session.Snapshot().ZoomClipByID(created.ClipID)
	if z.DurationMs != 1400 {
		t.Fatalf("duration = %d, want 1400", z.DurationMs)
	}
}
