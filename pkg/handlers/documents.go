package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
	"github.com/blitz-ai/feedback-console/pkg/services"
)

// DocumentListResponse wraps a document listing for the front-end.
type DocumentListResponse struct {
	Documents []*models.FeedbackDocument `json:"documents"`
	Container string                     `json:"container"`
	Page      int                        `json:"page,omitempty"`
	Count     int                        `json:"count"`
}

// TransferResponse describes the outcome of a document transfer. Partial
// means the destination write landed but the source copy is still present.
type TransferResponse struct {
	Document        *models.FeedbackDocument `json:"document"`
	SourceContainer string                   `json:"source_container"`
	TargetContainer string                   `json:"target_container"`
	Partial         bool                     `json:"partial"`
	PartialReason   string                   `json:"partial_reason,omitempty"`
}

// DocumentsHandler handles feedback document HTTP requests.
type DocumentsHandler struct {
	documents services.DocumentService
	transfers services.TransferService
	logger    *zap.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(documents services.DocumentService, transfers services.TransferService, logger *zap.Logger) *DocumentsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentsHandler{
		documents: documents,
		transfers: transfers,
		logger:    logger,
	}
}

// RegisterRoutes registers the document routes on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/feedback/containers", h.Containers)
	mux.HandleFunc("GET /api/feedback/documents", h.List)
	mux.HandleFunc("GET /api/feedback/documents/all", h.ListAll)
	mux.HandleFunc("GET /api/feedback/documents/search", h.Search)
	mux.HandleFunc("POST /api/feedback/documents", h.Create)
	mux.HandleFunc("PUT /api/feedback/documents/{id}", h.Update)
	mux.HandleFunc("DELETE /api/feedback/documents/{id}", h.Delete)
	mux.HandleFunc("POST /api/feedback/documents/{id}/transfer", h.Transfer)
}

// Containers handles GET /api/feedback/containers
func (h *DocumentsHandler) Containers(w http.ResponseWriter, r *http.Request) {
	response := ApiResponse{Success: true, Data: containers.All}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/feedback/documents?container=&page=&limit=
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}
	page, limit := parsePagination(r)

	docs, err := h.documents.ListPage(r.Context(), container, page, limit)
	if err != nil {
		h.logger.Error("Failed to list documents",
			zap.String("container", string(container)),
			zap.Int("page", page),
			zap.Error(err))
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: DocumentListResponse{
		Documents: docs,
		Container: string(container),
		Page:      page,
		Count:     len(docs),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListAll handles GET /api/feedback/documents/all?container=
func (h *DocumentsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}

	docs, err := h.documents.ListAll(r.Context(), container)
	if err != nil {
		h.logger.Error("Failed to list all documents",
			zap.String("container", string(container)),
			zap.Error(err))
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: DocumentListResponse{
		Documents: docs,
		Container: string(container),
		Count:     len(docs),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/feedback/documents/search?container=&q=&field=
func (h *DocumentsHandler) Search(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}

	term := r.URL.Query().Get("q")
	field := r.URL.Query().Get("field")

	docs, err := h.documents.Search(r.Context(), container, term, field)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: DocumentListResponse{
		Documents: docs,
		Container: string(container),
		Count:     len(docs),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/feedback/documents?container=
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}

	var doc models.FeedbackDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	created, err := h.documents.Create(r.Context(), container, &doc)
	if err != nil {
		h.logger.Error("Failed to create document",
			zap.String("container", string(container)),
			zap.Error(err))
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: created}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/feedback/documents/{id}?container=
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var doc models.FeedbackDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	updated, err := h.documents.Update(r.Context(), container, id, &doc)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: updated}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/feedback/documents/{id}?container=
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	container, ok := parseContainerParam(w, r, "container", h.logger)
	if !ok {
		return
	}
	id := r.PathValue("id")

	if err := h.documents.Delete(r.Context(), container, id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Message: "Document deleted"}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Transfer handles POST /api/feedback/documents/{id}/transfer?source_container=&target_container=
// When the target is omitted the source's paired official container is used.
func (h *DocumentsHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	source, ok := parseContainerParam(w, r, "source_container", h.logger)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var target containers.Container
	if r.URL.Query().Get("target_container") != "" {
		target, ok = parseContainerParam(w, r, "target_container", h.logger)
		if !ok {
			return
		}
	} else {
		target, ok = containers.TransferTarget(source)
		if !ok {
			if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_container",
				"Container has no transfer target"); werr != nil {
				h.logger.Error("Failed to write error response", zap.Error(werr))
			}
			return
		}
	}

	doc, err := h.transfers.Transfer(r.Context(), source, target, id)
	if err != nil {
		var partial *apperrors.TransferPartialError
		if errors.As(err, &partial) {
			// The document landed in the destination but the source copy
			// remains; report the duplicated state, not a hard failure.
			response := ApiResponse{
				Success: false,
				Data: TransferResponse{
					Document:        doc,
					SourceContainer: string(source),
					TargetContainer: string(target),
					Partial:         true,
					PartialReason:   partial.Error(),
				},
				Error: "transfer_partial",
			}
			if werr := WriteJSON(w, http.StatusOK, response); werr != nil {
				h.logger.Error("Failed to write response", zap.Error(werr))
			}
			return
		}
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: TransferResponse{
		Document:        doc,
		SourceContainer: string(source),
		TargetContainer: string(target),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DocumentsHandler) writeServiceError(w http.ResponseWriter, err error) {
	if werr := serviceErrorResponse(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
