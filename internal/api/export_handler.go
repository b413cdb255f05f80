package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/demostudio/demostudio-agent/internal/export"
)

// exportHandler writes the timeline out for external tools: "edl" for a
// CMX 3600 cut list, "json" for a full document snapshot.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		outputDir := req.OutputDir
		if outputDir == "" {
			outputDir = cfg.ExportDir
		}
		if err := export.ValidateOutputDir(outputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		doc := cfg.Session.Snapshot()

		switch strings.ToLower(req.Format) {
		case "edl":
			projectName := export.SanitizeName(doc.Project.Name, 120)
			if projectName == "" {
				projectName = "demostudio_export"
			}

			frameRate := float64(doc.Project.FrameRate)
			if frameRate <= 0 {
				frameRate = 30.0
			}

			edl := export.GenerateEDL(doc, projectName, frameRate)
			outputPath := filepath.Join(outputDir, projectName+".edl")
			if err := os.WriteFile(outputPath, []byte(edl), 0o644); err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
				return
			}

			WriteJSON(w, http.StatusOK, ExportResponse{
				Status:     "ok",
				Format:     "edl",
				OutputPath: outputPath,
				ClipCount:  len(doc.Clips),
			})

		case "json":
			outputPath, err := export.WriteSnapshot(doc, outputDir)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
				return
			}

			WriteJSON(w, http.StatusOK, ExportResponse{
				Status:     "ok",
				Format:     "json",
				OutputPath: outputPath,
			})

		default:
			WriteError(w, http.StatusBadRequest, "format must be edl or json", "BAD_REQUEST")
		}
	}
}
