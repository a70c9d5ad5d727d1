package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"plangraph/application/ports"
	"plangraph/application/services"
	"plangraph/domain/editor"
	"plangraph/domain/versioning"
	"plangraph/pkg/common"
	pkgerrors "plangraph/pkg/errors"
)

const maxElementsBytes = 4 << 20 // 4 MiB

// GraphHandler handles graph retrieval, edit and deletion
type GraphHandler struct {
	coordinator *services.SyncCoordinator
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(coordinator *services.SyncCoordinator, validate *validator.Validate, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		coordinator: coordinator,
		validate:    validate,
		logger:      logger,
	}
}

// UpdateGraphRequest carries the edited wire elements
type UpdateGraphRequest struct {
	Elements []editor.Element `json:"elements" validate:"required,min=1"`
}

// VersionResponse describes one committed version
type VersionResponse struct {
	GraphID   string `json:"graph_id"`
	Version   int    `json:"version"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
}

// UpdateGraph handles PUT /graphs/{graphID}/elements. Edits arriving within
// the coalescing window share one committed version.
func (h *GraphHandler) UpdateGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		common.RespondAppError(w, pkgerrors.NewValidationError("graph id is required"))
		return
	}

	var req UpdateGraphRequest
	if err := common.ParseJSONBody(r, &req, maxElementsBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("elements are required").WithCause(err))
		return
	}

	version, err := h.coordinator.ApplyEdit(r.Context(), graphID, req.Elements)
	if err != nil {
		h.logger.Warn("Edit rejected",
			zap.String("graphID", graphID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toVersionResponse(version))
}

// GetGraph handles GET /graphs/{graphID}?version=N
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	version, err := versionParam(r)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	record, err := h.coordinator.GetVersion(r.Context(), graphID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toVersionResponse(record))
}

// GetGraphElements handles GET /graphs/{graphID}/elements?version=N
func (h *GraphHandler) GetGraphElements(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	version, err := versionParam(r)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	record, elements, err := h.coordinator.GetElements(r.Context(), graphID, version)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"graph_id": record.GraphID,
		"version":  record.Version,
		"elements": elements,
	})
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.coordinator.ListGraphs(r.Context())
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// DeleteGraph handles DELETE /graphs/{graphID}
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")

	if err := h.coordinator.DeleteGraph(r.Context(), graphID); err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"graph_id": graphID,
		"deleted":  true,
	})
}

func versionParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return ports.LatestVersion, nil
	}
	version, err := strconv.Atoi(raw)
	if err != nil || version < 1 {
		return 0, pkgerrors.NewValidationError("version must be a positive integer")
	}
	return version, nil
}

func toVersionResponse(v *versioning.GraphVersion) VersionResponse {
	return VersionResponse{
		GraphID:   v.GraphID,
		Version:   v.Version,
		Source:    string(v.Source),
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
		Nodes:     v.Snapshot.NodeCount(),
		Edges:     v.Snapshot.EdgeCount(),
	}
}
