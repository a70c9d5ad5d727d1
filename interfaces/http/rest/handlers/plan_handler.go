package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"plangraph/application/services"
	"plangraph/domain/editor"
	"plangraph/pkg/common"
	pkgerrors "plangraph/pkg/errors"
)

const maxPlanBytes = 1 << 20 // 1 MiB

// PlanHandler handles plan submission
type PlanHandler struct {
	coordinator *services.SyncCoordinator
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(coordinator *services.SyncCoordinator, validate *validator.Validate, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		coordinator: coordinator,
		validate:    validate,
		logger:      logger,
	}
}

// GeneratePlanRequest carries the plan JSON produced by the language model
type GeneratePlanRequest struct {
	Plan json.RawMessage `json:"plan" validate:"required"`
}

// GeneratePlanResponse returns the committed version and its wire rendering
type GeneratePlanResponse struct {
	GraphID  string           `json:"graph_id"`
	Version  int              `json:"version"`
	Source   string           `json:"source"`
	Elements []editor.Element `json:"elements"`
}

// CreatePlan handles POST /plans: plan JSON in, version 1 out. Persistence
// runs in the background; the response never waits for the database.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if err := common.ParseJSONBody(r, &req, maxPlanBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.RespondAppError(w, pkgerrors.NewValidationError("plan is required").WithCause(err))
		return
	}

	version, elements, err := h.coordinator.GeneratePlan(r.Context(), req.Plan)
	if err != nil {
		h.logger.Warn("Plan rejected", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, GeneratePlanResponse{
		GraphID:  version.GraphID,
		Version:  version.Version,
		Source:   string(version.Source),
		Elements: elements,
	})
}
