package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/services"
)

// BulkEditPreviewRequest for POST preview body.
type BulkEditPreviewRequest struct {
	Container   string `json:"container"`
	Field       string `json:"field"`
	FindText    string `json:"find_text"`
	ReplaceText string `json:"replace_text"`
}

// BulkEditPreviewResponse wraps preview rows.
type BulkEditPreviewResponse struct {
	Rows  []services.PreviewRow `json:"rows"`
	Count int                   `json:"count"`
}

// BulkEditApplyRequest for POST apply body. Rows carry the final values as
// reviewed in the preview, including any hand edits.
type BulkEditApplyRequest struct {
	Container string              `json:"container"`
	Field     string              `json:"field"`
	Rows      []services.ApplyRow `json:"rows"`
}

// BulkEditApplyResponse wraps per-row apply results.
type BulkEditApplyResponse struct {
	Results []services.ApplyResult `json:"results"`
	Applied int                    `json:"applied"`
	Failed  int                    `json:"failed"`
}

// BulkEditHandler handles bulk find-and-replace requests.
type BulkEditHandler struct {
	bulkEdit services.BulkEditService
	logger   *zap.Logger
}

// NewBulkEditHandler creates a new bulk edit handler.
func NewBulkEditHandler(bulkEdit services.BulkEditService, logger *zap.Logger) *BulkEditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkEditHandler{bulkEdit: bulkEdit, logger: logger}
}

// RegisterRoutes registers the bulk edit routes on the given mux.
func (h *BulkEditHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/feedback/bulk-edit/preview", h.Preview)
	mux.HandleFunc("POST /api/feedback/bulk-edit/apply", h.Apply)
}

// Preview handles POST /api/feedback/bulk-edit/preview
func (h *BulkEditHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req BulkEditPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	container, err := containers.Parse(req.Container)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	rows, err := h.bulkEdit.Preview(r.Context(), container, req.Field, req.FindText, req.ReplaceText)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: BulkEditPreviewResponse{
		Rows:  rows,
		Count: len(rows),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Apply handles POST /api/feedback/bulk-edit/apply
func (h *BulkEditHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req BulkEditApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	container, err := containers.Parse(req.Container)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	results, err := h.bulkEdit.Apply(r.Context(), container, req.Field, req.Rows)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	applied := 0
	for _, res := range results {
		if res.Success {
			applied++
		}
	}

	response := ApiResponse{Success: true, Data: BulkEditApplyResponse{
		Results: results,
		Applied: applied,
		Failed:  len(results) - applied,
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *BulkEditHandler) writeServiceError(w http.ResponseWriter, err error) {
	if werr := serviceErrorResponse(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
