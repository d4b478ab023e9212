package api

import (
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// StrategicHandler serves portfolio metrics. Routes using it must sit behind
// RequireElevatedRole.
type StrategicHandler struct {
	store  store.Store
	engine *engine.Engine
	now    func() time.Time
}

func NewStrategicHandler(s store.Store, e *engine.Engine) *StrategicHandler {
	return &StrategicHandler{store: s, engine: e, now: time.Now}
}

func (h *StrategicHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	strategic := true
	items, err := h.store.ListItems(r.Context(), store.ItemFilter{TenantID: p.TenantID, Strategic: &strategic})
	if err != nil {
		internalError(err).write(w)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.EvaluateStrategic(items, h.now().UTC()))
}
