package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

// Effect clips are created on an effect track and take their type from it:
// a zoom track only ever holds zoom clips. Create fills unset params with
// the editing defaults; update touches only the params present in the
// request.

func addEffectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddEffectClipRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.TrackID == "" {
			WriteError(w, http.StatusBadRequest, "track_id is required", "BAD_REQUEST")
			return
		}

		var resp EffectClipResponse
		err := cfg.Session.Apply("add effect clip", func(doc *timeline.Document) error {
			track := doc.TrackByID(req.TrackID)
			if track == nil {
				return fmt.Errorf("track %s not found", req.TrackID)
			}
			if !track.IsEffect() {
				return fmt.Errorf("track %s cannot hold effect clips", req.TrackID)
			}
			if track.Locked {
				return fmt.Errorf("track %s is locked", req.TrackID)
			}

			window := timeline.EffectWindow{DurationMs: 3000}
			applyWindowParams(&window, req.EffectClipParams)

			id := timeline.NewID()
			name := track.Name
			if req.Name != nil {
				name = *req.Name
			}

			switch track.Type {
			case timeline.TrackZoom:
				z := timeline.ZoomClip{
					ID: id, TrackID: track.ID, Name: name, EffectWindow: window,
					Scale: 1.5, CenterX: 0.5, CenterY: 0.5,
				}
				if req.EaseInMs == nil {
					z.EaseInMs = 300
				}
				if req.EaseOutMs == nil {
					z.EaseOutMs = 300
				}
				applyZoomParams(&z, req.EffectClipParams)
				doc.ZoomClips = append(doc.ZoomClips, z)
			case timeline.TrackBlur:
				b := timeline.BlurClip{
					ID: id, TrackID: track.ID, Name: name, EffectWindow: window,
					Intensity: 20, RegionX: 0.5, RegionY: 0.5,
					RegionWidth: 0.3, RegionHeight: 0.3, BlurInside: true,
				}
				applyBlurParams(&b, req.EffectClipParams)
				doc.BlurClips = append(doc.BlurClips, b)
			case timeline.TrackPan:
				p := timeline.PanClip{ID: id, TrackID: track.ID, Name: name, EffectWindow: window}
				applyPanParams(&p, req.EffectClipParams)
				doc.PanClips = append(doc.PanClips, p)
			}

			resp.ClipID = id
			return nil
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, resp)
	}
}

func updateEffectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req EffectClipParams
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		err := cfg.Session.Apply("update effect clip", func(doc *timeline.Document) error {
			switch {
			case doc.ZoomClipByID(id) != nil:
				z := doc.ZoomClipByID(id)
				applyWindowParams(&z.EffectWindow, req)
				if req.Name != nil {
					z.Name = *req.Name
				}
				applyZoomParams(z, req)
			case doc.BlurClipByID(id) != nil:
				b := doc.BlurClipByID(id)
				applyWindowParams(&b.EffectWindow, req)
				if req.Name != nil {
					b.Name = *req.Name
				}
				applyBlurParams(b, req)
			case doc.PanClipByID(id) != nil:
				p := doc.PanClipByID(id)
				applyWindowParams(&p.EffectWindow, req)
				if req.Name != nil {
					p.Name = *req.Name
				}
				applyPanParams(p, req)
			default:
				return fmt.Errorf("effect clip %s not found", id)
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

func deleteEffectClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := cfg.Session.Apply("delete effect clip", func(doc *timeline.Document) error {
			if !doc.RemoveEffectClip(id) {
				return fmt.Errorf("effect clip %s not found", id)
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

func effectDragBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragBeginRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.BeginEffectDrag(req.ClipID, req.PointerMs); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func effectDragUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DragUpdateRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		start, err := cfg.Session.UpdateEffectDrag(req.PointerMs, req.Zoom, req.Snapping)
		if err != nil {
			writeCommandError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, DragUpdateResponse{StartTimeMs: start})
	}
}

func effectDragEndHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Session.EndEffectDrag(); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func effectTrimBeginHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimBeginRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Session.BeginEffectTrim(req.ClipID); err != nil {
			writeCommandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func effectTrimUpdateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrimUpdateRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		var err error
		switch req.Edge {
		case "start":
			err = cfg.Session.UpdateEffectTrimStart(req.ClipID, req.TimeMs)
		case "end":
			err = cfg.Session.UpdateEffectTrimEnd(req.ClipID, req.TimeMs)
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

func applyWindowParams(w *timeline.EffectWindow, p EffectClipParams) {
	if p.StartTimeMs != nil {
		w.StartTimeMs = *p.StartTimeMs
		if w.StartTimeMs < 0 {
			w.StartTimeMs = 0
		}
	}
	if p.DurationMs != nil {
		w.DurationMs = *p.DurationMs
	}
	if w.DurationMs < timeline.MinClipDurationMs {
		w.DurationMs = timeline.MinClipDurationMs
	}
	if p.EaseInMs != nil {
		w.EaseInMs = *p.EaseInMs
	}
	if p.EaseOutMs != nil {
		w.EaseOutMs = *p.EaseOutMs
	}
}

func applyZoomParams(z *timeline.ZoomClip, p EffectClipParams) {
	if p.Scale != nil {
		z.Scale = *p.Scale
	}
	if p.CenterX != nil {
		z.CenterX = *p.CenterX
	}
	if p.CenterY != nil {
		z.CenterY = *p.CenterY
	}
}

func applyBlurParams(b *timeline.BlurClip, p EffectClipParams) {
	if p.Intensity != nil {
		b.Intensity = *p.Intensity
	}
	if p.RegionX != nil {
		b.RegionX = *p.RegionX
	}
	if p.RegionY != nil {
		b.RegionY = *p.RegionY
	}
	if p.RegionWidth != nil {
		b.RegionWidth = *p.RegionWidth
	}
	if p.RegionHeight != nil {
		b.RegionHeight = *p.RegionHeight
	}
	if p.CornerRadius != nil {
		b.CornerRadius = *p.CornerRadius
	}
	if p.BlurInside != nil {
		b.BlurInside = *p.BlurInside
	}
}

func applyPanParams(p *timeline.PanClip, params EffectClipParams) {
	if params.StartX != nil {
		p.StartX = *params.StartX
	}
	if params.StartY != nil {
		p.StartY = *params.StartY
	}
	if params.EndX != nil {
		p.EndX = *params.EndX
	}
	if params.EndY != nil {
		p.EndY = *params.EndY
	}
}
