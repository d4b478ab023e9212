package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// WeightsHandler exposes the stateless weight operations.
type WeightsHandler struct {
	engine *engine.Engine
}

func NewWeightsHandler(e *engine.Engine) *WeightsHandler {
	return &WeightsHandler{engine: e}
}

type ValidateWeightsRequest struct {
	// ProgressMethod is optional; without it the weights must sum to 100.
	ProgressMethod store.ProgressMethod `json:"progress_method,omitempty"`
	SubUnits       []store.SubUnit      `json:"sub_units"`
}

func (h *WeightsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateWeightsRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		apiErr.write(w)
		return
	}
	if req.ProgressMethod == "" {
		writeJSON(w, http.StatusOK, h.engine.Validate(req.SubUnits))
		return
	}
	writeJSON(w, http.StatusOK, h.engine.ValidateForMethod(req.ProgressMethod, req.SubUnits))
}

type RedistributeRequest struct {
	Policy   string          `json:"policy"`
	SubUnits []store.SubUnit `json:"sub_units"`
}

func (h *WeightsHandler) Redistribute(w http.ResponseWriter, r *http.Request) {
	var req RedistributeRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		apiErr.write(w)
		return
	}
	resp, apiErr := redistribute(h.engine, req.SubUnits, req.Policy)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	if resp.SubUnits == nil {
		resp.SubUnits = []store.SubUnit{}
	}
	writeJSON(w, http.StatusOK, resp)
}
