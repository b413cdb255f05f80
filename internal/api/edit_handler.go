package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/demostudio/demostudio-agent/internal/interaction"
	"github.com/demostudio/demostudio-agent/internal/session"
	"github.com/demostudio/demostudio-agent/internal/timeline"
)

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeCommandError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrGestureActive) || errors.Is(err, session.ErrNoGestureActive) {
		WriteError(w, http.StatusConflict, err.Error(), "GESTURE_CONFLICT")
		return
	}
	WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
}

func addTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddTrackRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		switch req.Type {
		case timeline.TrackVideo, timeline.TrackImage, timeline.TrackAudio,
			timeline.TrackZoom, timeline.TrackBlur, timeline.TrackPan:
		default:
			WriteError(w, http.StatusBadRequest, "unknown track type", "BAD_REQUEST")
			return
		}

		track := timeline.Track{
			ID:            timeline.NewID(),
			Type:          req.Type,
			Name:          req.Name,
			Visible:       true,
			Volume:        1.0,
			TargetTrackID: req.TargetTrackID,
		}
		if track.Name == "" {
			track.Name = req.Type
		}

		err := cfg.Session.Apply("add track", func(doc *timeline.Document) error {
			if track.TargetTrackID != "" && doc.TrackByID(track.TargetTrackID) == nil {
				return fmt.Errorf("target track %s not found", track.TargetTrackID)
			}
			track.ProjectID = doc.Project.ID
			doc.AddTrack(track)
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, AddTrackResponse{TrackID: track.ID})
	}
}

func deleteTrackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := cfg.Session.Apply("delete track", func(doc *timeline.Document) error {
			t := doc.TrackByID(id)
			if t == nil {
				return fmt.Errorf("track %s not found", id)
			}
			if t.Type == timeline.TrackBackground {
				return errors.New("background track cannot be deleted")
			}
			doc.RemoveTrack(id)
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// addClipHandler places an asset on a track. A video asset with audio also
// gets a linked audio clip when the document has an audio track; the video
// side is muted and the pair moves together from then on.
func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TrackID == "" {
			WriteError(w, http.StatusBadRequest, "track_id is required", "BAD_REQUEST")
			return
		}
		if req.AssetID == "" && req.SourcePath == "" {
			WriteError(w, http.StatusBadRequest, "asset_id or source_path is required", "BAD_REQUEST")
			return
		}

		var resp AddClipResponse
		err := cfg.Session.Apply("add clip", func(doc *timeline.Document) error {
			track := doc.TrackByID(req.TrackID)
			if track == nil {
				return fmt.Errorf("track %s not found", req.TrackID)
			}
			if !track.IsContent() && track.Type != timeline.TrackAudio {
				return fmt.Errorf("track %s cannot hold clips", req.TrackID)
			}
			if track.Locked {
				return fmt.Errorf("track %s is locked", req.TrackID)
			}

			clip := timeline.Clip{
				ID:          timeline.NewID(),
				TrackID:     track.ID,
				SourcePath:  req.SourcePath,
				StartTimeMs: req.StartTimeMs,
				DurationMs:  req.DurationMs,
				Scale:       1.0,
				Opacity:     1.0,
				Volume:      1.0,
			}

			var hasAudio bool
			if req.AssetID != "" {
				var asset *timeline.Asset
				for i := range doc.Assets {
					if doc.Assets[i].ID == req.AssetID {
						asset = &doc.Assets[i]
						break
					}
				}
				if asset == nil {
					return fmt.Errorf("asset %s not found", req.AssetID)
				}
				clip.Name = asset.Name
				clip.SourcePath = asset.FilePath
				clip.SourceType = asset.AssetType
				if asset.DurationMs != nil {
					clip.SourceDurationMs = *asset.DurationMs
					if clip.DurationMs == 0 {
						clip.DurationMs = *asset.DurationMs
					}
				}
				hasAudio = asset.HasAudio != nil && *asset.HasAudio
			} else if track.Type == timeline.TrackAudio {
				clip.SourceType = timeline.SourceAudio
			} else {
				clip.SourceType = timeline.SourceVideo
			}
			if clip.DurationMs == 0 {
				clip.DurationMs = 5000
			}
			clip.HasAudio = hasAudio

			added := doc.AddClip(clip)
			resp.ClipID = added.ID

			if hasAudio && clip.SourceType == timeline.SourceVideo && track.IsContent() {
				for i := range doc.Tracks {
					if doc.Tracks[i].Type != timeline.TrackAudio || doc.Tracks[i].Locked {
						continue
					}
					audio := timeline.Clip{
						ID:               timeline.NewID(),
						TrackID:          doc.Tracks[i].ID,
						Name:             clip.Name,
						SourcePath:       clip.SourcePath,
						SourceType:       timeline.SourceAudio,
						SourceDurationMs: clip.SourceDurationMs,
						StartTimeMs:      clip.StartTimeMs,
						DurationMs:       clip.DurationMs,
						InPointMs:        clip.InPointMs,
						Scale:            1.0,
						Opacity:          1.0,
						Volume:           1.0,
						HasAudio:         true,
					}
					addedAudio := doc.AddClip(audio)
					doc.LinkClips(resp.ClipID, addedAudio.ID)
					resp.LinkedClipID = addedAudio.ID
					break
				}
			}
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, resp)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := cfg.Session.Apply("delete clip", func(doc *timeline.Document) error {
			if !doc.RemoveClip(id) {
				return fmt.Errorf("clip %s not found", id)
			}
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req SplitRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var first, second string
		var err error
		if req.TimeMs != nil {
			first, second, err = cfg.Session.SplitClip(id, *req.TimeMs)
		} else {
			first, second, err = cfg.Session.SplitAtPlayhead(id)
		}
		if err != nil {
			writeCommandError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, SplitResponse{FirstID: first, SecondID: second})
	}
}

func linkClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req LinkRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.AudioClipID == "" {
			WriteError(w, http.StatusBadRequest, "audio_clip_id is required", "BAD_REQUEST")
			return
		}

		err := cfg.Session.Apply("link clips", func(doc *timeline.Document) error {
			if !doc.LinkClips(id, req.AudioClipID) {
				return fmt.Errorf("clip pair %s/%s not found", id, req.AudioClipID)
			}
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func unlinkClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := cfg.Session.Apply("unlink clips", func(doc *timeline.Document) error {
			if !doc.UnlinkClips(id) {
				return fmt.Errorf("clip %s has no link", id)
			}
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func repositionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req RepositionRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.DisplayWidth <= 0 || req.DisplayHeight <= 0 {
			WriteError(w, http.StatusBadRequest, "display dimensions must be positive", "BAD_REQUEST")
			return
		}

		err := cfg.Session.Apply("reposition clip", func(doc *timeline.Document) error {
			return interaction.Reposition(doc, id, req.DeltaX, req.DeltaY, req.DisplayWidth, req.DisplayHeight)
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func dragBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragBeginRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.BeginClipDrag(req.ClipID, req.PointerMs); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func dragUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragUpdateRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		start, err := cfg.Session.UpdateClipDrag(req.PointerMs, req.Zoom, req.Snapping)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, DragUpdateResponse{StartTimeMs: start})
	}
}

func dragEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.EndClipDrag(); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimBeginRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.BeginTrim(req.ClipID); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimUpdateRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var err error
		switch req.Edge {
		case "start":
			err = cfg.Session.UpdateTrimStart(req.ClipID, req.TimeMs)
		case "end":
			err = cfg.Session.UpdateTrimEnd(req.ClipID, req.TimeMs)
		default:
			WriteError(w, http.StatusBadRequest, "edge must be start or end", "BAD_REQUEST")
			return
		}
		if err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.EndTrim(); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := cfg.Session.Undo()
		WriteJSON(w, http.StatusOK, HistoryResponse{
			Applied: applied,
			CanUndo: cfg.Session.CanUndo(),
			CanRedo: cfg.Session.CanRedo(),
		})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied := cfg.Session.Redo()
		WriteJSON(w, http.StatusOK, HistoryResponse{
			Applied: applied,
			CanUndo: cfg.Session.CanUndo(),
			CanRedo: cfg.Session.CanRedo(),
		})
	}
}
