package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/demostudio/demostudio-agent/internal/timeline"
)

func listAssetsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := cfg.Session.Snapshot()
		resp := AssetsResponse{Assets: make([]AssetResponse, len(doc.Assets))}
		for i, a := range doc.Assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

// importAssetHandler probes a local media file and adds it to the asset
// library. Probe failures are not fatal; the asset is stored without
// metadata and the clip editor falls back to defaults.
func importAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportAssetRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		projectID := cfg.Session.Project().ID
		asset, err := cfg.Importer.Import(r.Context(), projectID, req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		applyErr := cfg.Session.Apply("import asset", func(doc *timeline.Document) error {
			for i := range doc.Assets {
				if doc.Assets[i].FilePath == asset.FilePath {
					asset = doc.Assets[i]
					return nil
				}
			}
			doc.Assets = append(doc.Assets, asset)
			return nil
		})
		if applyErr != nil {
			writeCommandError(w, applyErr)
			return
		}

		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func deleteAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := cfg.Session.Apply("delete asset", func(doc *timeline.Document) error {
			for i := range doc.Assets {
				if doc.Assets[i].ID == id {
					doc.Assets = append(doc.Assets[:i], doc.Assets[i+1:]...)
					return nil
				}
			}
			return fmt.Errorf("asset %s not found", id)
		})
		if err != nil {
			writeCommandError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
