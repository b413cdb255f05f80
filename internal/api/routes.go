package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Get("/document", documentHandler(cfg))
		r.Post("/document/save", saveHandler(cfg))
		r.Get("/frame", frameHandler(cfg))

		r.Get("/transport", transportHandler(cfg))
		r.Post("/transport/play", playHandler(cfg))
		r.Post("/transport/pause", pauseHandler(cfg))
		r.Post("/transport/seek", seekHandler(cfg))

		r.Post("/tracks", addTrackHandler(cfg))
		r.Delete("/tracks/{id}", deleteTrackHandler(cfg))
		r.Post("/clips", addClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Post("/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/clips/{id}/link", linkClipHandler(cfg))
		r.Post("/clips/{id}/unlink", unlinkClipHandler(cfg))
		r.Post("/clips/{id}/reposition", repositionHandler(cfg))
		r.Post("/effect-clips", addEffectClipHandler(cfg))
		r.Post("/effect-clips/{id}", updateEffectClipHandler(cfg))
		r.Delete("/effect-clips/{id}", deleteEffectClipHandler(cfg))

		r.Post("/gestures/drag/begin", dragBeginHandler(cfg))
		r.Post("/gestures/drag/update", dragUpdateHandler(cfg))
		r.Post("/gestures/drag/end", dragEndHandler(cfg))
		r.Post("/gestures/trim/begin", trimBeginHandler(cfg))
		r.Post("/gestures/trim/update", trimUpdateHandler(cfg))
		r.Post("/gestures/trim/end", trimEndHandler(cfg))
		r.Post("/gestures/effect-drag/begin", effectDragBeginHandler(cfg))
		r.Post("/gestures/effect-drag/update", effectDragUpdateHandler(cfg))
		r.Post("/gestures/effect-drag/end", effectDragEndHandler(cfg))
		r.Post("/gestures/effect-trim/begin", effectTrimBeginHandler(cfg))
		r.Post("/gestures/effect-trim/update", effectTrimUpdateHandler(cfg))
		r.Post("/gestures/effect-trim/end", trimEndHandler(cfg))

		r.Post("/undo", undoHandler(cfg))
		r.Post("/redo", redoHandler(cfg))

		r.Get("/assets", listAssetsHandler(cfg))
		r.Post("/assets", importAssetHandler(cfg))
		r.Delete("/assets/{id}", deleteAssetHandler(cfg))
		r.Get("/media/file", mediaHandler(cfg))

		r.Post("/export", exportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: "0.1.0",
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := cfg.Session.Project()
		clock := cfg.Session.Clock()
		WriteJSON(w, http.StatusOK, StatusResponse{
			ProjectID:   p.ID,
			ProjectName: p.Name,
			DurationMs:  p.DurationMs,
			PositionMs:  clock.PositionMs(),
			Playing:     clock.IsPlaying(),
			CanUndo:     cfg.Session.CanUndo(),
			CanRedo:     cfg.Session.CanRedo(),
		})
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Repository.ListProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func documentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Session.Snapshot())
	}
}

func saveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := cfg.Session.Snapshot()
		if err := cfg.Repository.SaveDocument(r.Context(), doc); err != nil {
			cfg.Logger.Error("manual save failed", "error", err, "project_id", doc.Project.ID)
			WriteError(w, http.StatusInternalServerError, "save failed", "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// frameHandler evaluates the composition at a query time, defaulting to
// the current playhead.
func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeMs := cfg.Session.Clock().PositionMs()
		if t := r.URL.Query().Get("t"); t != "" {
			parsed, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "t must be an integer of milliseconds", "BAD_REQUEST")
				return
			}
			timeMs = parsed
		}

		WriteJSON(w, http.StatusOK, cfg.Session.EvaluateFrame(timeMs))
	}
}

func transportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clock := cfg.Session.Clock()
		WriteJSON(w, http.StatusOK, TransportResponse{
			PositionMs: clock.PositionMs(),
			Playing:    clock.IsPlaying(),
		})
	}
}

func playHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Clock().Play()
		transportHandler(cfg)(w, r)
	}
}

func pauseHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Session.Clock().Pause()
		transportHandler(cfg)(w, r)
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		cfg.Session.Clock().SeekTo(req.PositionMs)
		transportHandler(cfg)(w, r)
	}
}

func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID := r.URL.Query().Get("asset_id")
		if assetID == "" {
			WriteError(w, http.StatusBadRequest, "asset_id is required", "BAD_REQUEST")
			return
		}

		doc := cfg.Session.Snapshot()
		var path string
		for _, a := range doc.Assets {
			if a.ID == assetID {
				path = a.FilePath
				break
			}
		}
		if path == "" {
			WriteError(w, http.StatusNotFound, "asset not found", "NOT_FOUND")
			return
		}

		if err := cfg.MediaServer.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("media serve error", "error", err, "asset_id", assetID)
		}
	}
}
