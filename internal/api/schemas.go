package api

import (
	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
	"github.com/sgtao/stapp-mpeg4-clipper/internal/usecase"
)

type UploadResponse struct {
	SessionID   string          `json:"session_id"`
	Fingerprint string          `json:"fingerprint"`
	DisplayName string          `json:"display_name"`
	Cached      bool            `json:"cached"`
	Metadata    entity.Metadata `json:"metadata"`
}

type FramesResponse struct {
	Frames []entity.Frame `json:"frames"`
}

type SelectRequest struct {
	Timecode string `json:"timecode"`
}

type SelectResponse struct {
	Added    bool `json:"added"`
	Selected int  `json:"selected"`
}

type SelectBatchRequest struct {
	Timecodes []string `json:"timecodes"`
}

type SelectBatchResponse struct {
	Added    int `json:"added"`
	Selected int `json:"selected"`
}

type SelectionResponse struct {
	Rows []entity.SelectionRow `json:"rows"`
}

type ClipRequest struct {
	StartSecs float64 `json:"start_secs"`
	EndSecs   float64 `json:"end_secs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func UploadToResponse(res *usecase.UploadResult) UploadResponse {
	return UploadResponse{
		SessionID:   res.SessionID,
		Fingerprint: res.Fingerprint,
		DisplayName: res.DisplayName,
		Cached:      res.Cached,
		Metadata:    res.Metadata,
	}
}
