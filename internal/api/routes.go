package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/pkg/timecode"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler())

	r.Route("/video", func(r chi.Router) {
		r.Post("/", uploadVideoHandler(cfg))
		r.Delete("/", evictVideoHandler(cfg))
		r.Get("/metadata", metadataHandler(cfg))
		r.Get("/frame", frameHandler(cfg))
		r.Post("/clip", clipHandler(cfg))
		r.Get("/minutes", minuteOverviewHandler(cfg))
		r.Get("/minutes/{minute}", minuteWindowHandler(cfg))
	})

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", selectionRowsHandler(cfg))
		r.Post("/", selectHandler(cfg))
		r.Post("/batch", selectBatchHandler(cfg))
		r.Delete("/", clearSelectionHandler(cfg))
		r.Get("/export.csv", selectionCSVHandler(cfg))
		r.Get("/export.zip", selectionZipHandler(cfg))
	})

	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func uploadVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "multipart field 'file' is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		payload, err := io.ReadAll(file)
		if err != nil {
			WriteError(w, http.StatusRequestEntityTooLarge, "upload too large or truncated", "PAYLOAD_TOO_LARGE")
			return
		}

		res, err := cfg.Service.Upload(r.Context(), payload, header.Filename)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		status := http.StatusCreated
		if res.Cached {
			status = http.StatusOK
		}
		WriteJSON(w, status, UploadToResponse(res))
	}
}

func evictVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Service.Evict()
		w.WriteHeader(http.StatusNoContent)
	}
}

func metadataHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := cfg.Service.Metadata()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, meta)
	}
}

func frameHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seconds, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "query parameter 't' must be a number of seconds", "BAD_REQUEST")
			return
		}

		scale := 1.0
		if raw := r.URL.Query().Get("scale"); raw != "" {
			scale, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "query parameter 'scale' must be a number", "BAD_REQUEST")
				return
			}
		}

		shot, err := cfg.Service.Screenshot(r.Context(), seconds, scale)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeDownload(w, "image/png", shot.Filename, shot.PNG)
	}
}

func clipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, err := cfg.Service.Clip(r.Context(), req.StartSecs, req.EndSecs)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeDownload(w, "video/mp4", clip.Filename, clip.MP4)
	}
}

func minuteOverviewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frames, err := cfg.Service.MinuteOverview(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, FramesResponse{Frames: frames})
	}
}

func minuteWindowHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		minute, err := strconv.Atoi(chi.URLParam(r, "minute"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "minute must be an integer", "BAD_REQUEST")
			return
		}

		frames, err := cfg.Service.MinuteWindow(r.Context(), minute)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, FramesResponse{Frames: frames})
	}
}

func selectionRowsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, SelectionResponse{Rows: cfg.Service.SelectionRows()})
	}
}

func selectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		added, err := cfg.Service.Select(r.Context(), req.Timecode)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectResponse{
			Added:    added,
			Selected: len(cfg.Service.SelectionRows()),
		})
	}
}

func selectBatchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		added, err := cfg.Service.SelectBatch(r.Context(), req.Timecodes)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SelectBatchResponse{
			Added:    added,
			Selected: len(cfg.Service.SelectionRows()),
		})
	}
}

func clearSelectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Service.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	}
}

func selectionCSVHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Buffer through the service so a late failure does not truncate a
		// download that already carries a 200.
		name, data, err := renderSelection(func(sink io.Writer) (string, error) {
			return cfg.Service.WriteSelectionCSV(sink)
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeDownload(w, "text/csv", name, data)
	}
}

func selectionZipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, data, err := renderSelection(func(sink io.Writer) (string, error) {
			return cfg.Service.WriteSelectionZip(r.Context(), sink)
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeDownload(w, "application/zip", name, data)
	}
}

func renderSelection(write func(io.Writer) (string, error)) (string, []byte, error) {
	buf := &bytes.Buffer{}
	name, err := write(buf)
	if err != nil {
		return "", nil, err
	}
	return name, buf.Bytes(), nil
}

func writeDownload(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrNoSession):
		WriteError(w, http.StatusNotFound, "no video loaded", "NO_SESSION")
	case errors.Is(err, entity.ErrNotLoaded):
		WriteError(w, http.StatusConflict, "session is closed", "SESSION_CLOSED")
	case errors.Is(err, entity.ErrOutOfRange),
		errors.Is(err, entity.ErrInvalidRange),
		errors.Is(err, timecode.ErrMalformed):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, entity.ErrDecode):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "UNDECODABLE")
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
