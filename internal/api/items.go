package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Stratix/internal/editor"
	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

type ItemsHandler struct {
	store  store.Store
	engine *engine.Engine
	editor *editor.Manager
	logger *slog.Logger
}

func NewItemsHandler(s store.Store, e *engine.Engine, ed *editor.Manager, logger *slog.Logger) *ItemsHandler {
	return &ItemsHandler{store: s, engine: e, editor: ed, logger: logger}
}

type ProgressResponse struct {
	engine.ProgressResult
	Validation *engine.ValidationResult `json:"validation,omitempty"`
}

func (h *ItemsHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	resp := ProgressResponse{ProgressResult: h.engine.ExplainProgress(item)}
	if len(item.SubUnits) > 0 {
		v := h.engine.ValidateForMethod(item.ProgressMethod, item.SubUnits)
		resp.Validation = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusCard is the plain-language status of one item.
type StatusCard struct {
	ItemID     uuid.UUID        `json:"item_id"`
	Title      string           `json:"title"`
	AreaName   string           `json:"area_name,omitempty"`
	Status     store.ItemStatus `json:"status"`
	Progress   int              `json:"progress"`
	Budget     *decimal.Decimal `json:"budget,omitempty"`
	ActualCost *decimal.Decimal `json:"actual_cost,omitempty"`
	// BudgetEfficiency is set only when both budget and actual cost are known.
	BudgetEfficiency *float64 `json:"budget_efficiency,omitempty"`
	Summary          string   `json:"summary"`
}

func (h *ItemsHandler) Status(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	areaName := ""
	if item.AreaID != nil {
		area, err := h.store.GetArea(r.Context(), p.TenantID, *item.AreaID)
		if err != nil {
			internalError(err).write(w)
			return
		}
		if area != nil {
			areaName = area.Name
		}
	}
	writeJSON(w, http.StatusOK, buildStatusCard(item, h.engine.Progress(item), areaName))
}

func buildStatusCard(item *store.Item, progress int, areaName string) StatusCard {
	card := StatusCard{
		ItemID:   item.ID,
		Title:    item.Title,
		AreaName: areaName,
		Status:   item.Status,
		Progress: progress,
	}
	if item.Budget.Valid {
		card.Budget = &item.Budget.Decimal
	}
	if item.ActualCost.Valid {
		card.ActualCost = &item.ActualCost.Decimal
	}

	area := areaName
	if area == "" {
		area = "no area"
	}
	card.Summary = fmt.Sprintf("Initiative '%s' in %s is at %d%% progress. Status: %s.", item.Title, area, progress, item.Status)
	if item.Budget.Valid && item.ActualCost.Valid && item.Budget.Decimal.IsPositive() {
		eff := budgetEfficiency(item.Budget.Decimal, item.ActualCost.Decimal)
		card.BudgetEfficiency = &eff
		card.Summary += fmt.Sprintf(" Budget: %s, spent: %s (efficiency: %.1f%%).",
			item.Budget.Decimal.StringFixed(2), item.ActualCost.Decimal.StringFixed(2), eff)
	}
	return card
}

type WeightEntry struct {
	SubUnitID        uuid.UUID           `json:"sub_unit_id"`
	WeightPercentage decimal.NullDecimal `json:"weight_percentage"`
}

type WeightsRequest struct {
	Weights []WeightEntry `json:"weights"`
}

type SubUnitsResponse struct {
	SubUnits   []store.SubUnit         `json:"sub_units"`
	Validation engine.ValidationResult `json:"validation"`
}

// applyWeights returns a copy of the stored sub-units with the requested
// weights applied. Sub-units not named keep their stored weight.
func applyWeights(units []store.SubUnit, entries []WeightEntry) ([]store.SubUnit, *apiError) {
	out := make([]store.SubUnit, len(units))
	copy(out, units)
	index := make(map[uuid.UUID]int, len(out))
	for i, u := range out {
		index[u.ID] = i
	}
	seen := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		i, ok := index[e.SubUnitID]
		if !ok {
			return nil, badRequest("unknown_sub_unit", "sub-unit "+e.SubUnitID.String()+" does not belong to this item")
		}
		if seen[e.SubUnitID] {
			return nil, badRequest("duplicate_sub_unit", "sub-unit "+e.SubUnitID.String()+" listed twice")
		}
		seen[e.SubUnitID] = true
		out[i].WeightPercentage = e.WeightPercentage
	}
	return out, nil
}

func (h *ItemsHandler) readWeights(w http.ResponseWriter, r *http.Request) (*store.Item, []store.SubUnit, *apiError) {
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		return nil, nil, apiErr
	}
	var req WeightsRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		return nil, nil, apiErr
	}
	if len(req.Weights) == 0 {
		return nil, nil, badRequest("no_weights", "weights required")
	}
	units, apiErr := applyWeights(item.SubUnits, req.Weights)
	if apiErr != nil {
		return nil, nil, apiErr
	}
	return item, units, nil
}

// SaveWeights validates and persists new weights. Invalid weights are refused
// with the validation result.
func (h *ItemsHandler) SaveWeights(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	item, units, apiErr := h.readWeights(w, r)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	result := h.engine.ValidateForMethod(item.ProgressMethod, units)
	if !result.IsValid {
		writeJSON(w, http.StatusUnprocessableEntity, SubUnitsResponse{SubUnits: units, Validation: result})
		return
	}

	// The open draft is dropped first so its autosave cannot land after this write.
	if h.editor != nil {
		h.editor.Discard(p.TenantID, item.ID)
	}

	updates := make([]store.WeightUpdate, len(units))
	for i, u := range units {
		updates[i] = store.WeightUpdate{SubUnitID: u.ID, WeightPercentage: u.WeightPercentage}
	}
	if err := h.store.UpdateSubUnitWeights(r.Context(), p.TenantID, item.ID, updates); err != nil {
		internalError(err).write(w)
		return
	}
	h.logger.Info("weights saved", "tenant", p.TenantID, "item_id", item.ID)
	writeJSON(w, http.StatusOK, SubUnitsResponse{SubUnits: units, Validation: result})
}

type DraftResponse struct {
	Validation engine.ValidationResult `json:"validation"`
	Pending    bool                    `json:"pending"`
}

// Draft records an editing step; the draft autosaves once edits pause.
func (h *ItemsHandler) Draft(w http.ResponseWriter, r *http.Request) {
	if h.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "editor_disabled", "draft editing is not enabled")
		return
	}
	p, _ := PrincipalFrom(r.Context())
	item, units, apiErr := h.readWeights(w, r)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	result := h.editor.Edit(p.TenantID, item, units)
	writeJSON(w, http.StatusAccepted, DraftResponse{Validation: result, Pending: true})
}

func (h *ItemsHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	if h.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "editor_disabled", "draft editing is not enabled")
		return
	}
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	snap, ok := h.editor.Session(p.TenantID, item.ID)
	if !ok {
		writeError(w, http.StatusNotFound, "no_draft", "no draft for this item")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *ItemsHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if h.editor == nil {
		writeError(w, http.StatusServiceUnavailable, "editor_disabled", "draft editing is not enabled")
		return
	}
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	if !h.editor.Discard(p.TenantID, item.ID) {
		writeError(w, http.StatusNotFound, "no_draft", "no draft for this item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type RedistributeStoredRequest struct {
	Policy string `json:"policy"`
}

// Redistribute proposes new weights for the stored sub-units without saving them.
func (h *ItemsHandler) Redistribute(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	item, apiErr := loadItem(r.Context(), h.store, p, chi.URLParam(r, "id"))
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	var req RedistributeStoredRequest
	if apiErr := decodeBody(w, r, &req); apiErr != nil {
		apiErr.write(w)
		return
	}
	if len(item.SubUnits) == 0 {
		badRequest("no_sub_units", "item has no sub-units").write(w)
		return
	}

	resp, apiErr := redistribute(h.engine, item.SubUnits, req.Policy)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func redistribute(e *engine.Engine, units []store.SubUnit, rawPolicy string) (*SubUnitsResponse, *apiError) {
	policy, err := engine.ParsePolicy(rawPolicy)
	if err != nil {
		return nil, badRequest("unknown_policy", err.Error())
	}
	out, err := e.Redistribute(units, policy)
	switch {
	case errors.Is(err, engine.ErrNoEffortData):
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "no_effort_data", Message: err.Error()}
	case errors.Is(err, engine.ErrTooManySubUnits):
		return nil, &apiError{Status: http.StatusUnprocessableEntity, Code: "too_many_sub_units", Message: err.Error()}
	case err != nil:
		return nil, internalError(err)
	}
	return &SubUnitsResponse{SubUnits: out, Validation: e.Validate(out)}, nil
}
