package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/relational"
)

// ExecuteQueryRequest for POST /api/query body.
type ExecuteQueryRequest struct {
	Database string `json:"database"`
	Query    string `json:"query"`
}

// DatabasesResponse lists the registered relational databases.
type DatabasesResponse struct {
	Databases []string `json:"databases"`
}

// TablesResponse lists the public tables of one database.
type TablesResponse struct {
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}

// ConnectionTestResponse reports whether a database is reachable.
type ConnectionTestResponse struct {
	Database  string `json:"database"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// QueryHandler handles ad-hoc SQL requests against the analytics databases.
type QueryHandler struct {
	relational relational.Service
	logger     *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(relationalSvc relational.Service, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{relational: relationalSvc, logger: logger}
}

// RegisterRoutes registers the query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/databases", h.Databases)
	mux.HandleFunc("POST /api/query", h.Execute)
	mux.HandleFunc("GET /api/databases/{database}/test", h.TestConnection)
	mux.HandleFunc("GET /api/databases/{database}/tables", h.Tables)
}

// Databases handles GET /api/databases
func (h *QueryHandler) Databases(w http.ResponseWriter, r *http.Request) {
	response := ApiResponse{Success: true, Data: DatabasesResponse{
		Databases: h.relational.Databases(),
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/query
// SQL-level failures come back as a QueryResult with success=false; only a
// bad database name or malformed statement is an HTTP-level error.
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if werr := ErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid request body"); werr != nil {
			h.logger.Error("Failed to write error response", zap.Error(werr))
		}
		return
	}

	result, err := h.relational.Execute(r.Context(), req.Database, req.Query)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// TestConnection handles GET /api/databases/{database}/test
func (h *QueryHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("database")

	result := ConnectionTestResponse{Database: db, Connected: true}
	if err := h.relational.TestConnection(r.Context(), db); err != nil {
		h.logger.Warn("Connection test failed",
			zap.String("database", db),
			zap.Error(err))
		result.Connected = false
		result.Error = err.Error()
	}

	response := ApiResponse{Success: result.Connected, Data: result}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Tables handles GET /api/databases/{database}/tables
func (h *QueryHandler) Tables(w http.ResponseWriter, r *http.Request) {
	db := r.PathValue("database")

	tables, err := h.relational.Tables(r.Context(), db)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	response := ApiResponse{Success: true, Data: TablesResponse{
		Database: db,
		Tables:   tables,
	}}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *QueryHandler) writeServiceError(w http.ResponseWriter, err error) {
	if werr := serviceErrorResponse(w, err); werr != nil {
		h.logger.Error("Failed to write error response", zap.Error(werr))
	}
}
