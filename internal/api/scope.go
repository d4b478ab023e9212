package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Stratix/internal/store"
)

// scopedArea resolves the area a request may see. Managers are pinned to their
// own area; other roles see whatever they ask for.
func scopedArea(p Principal, requested *uuid.UUID) (*uuid.UUID, *apiError) {
	if p.Role != RoleManager {
		return requested, nil
	}
	if requested != nil && *requested != *p.AreaID {
		return nil, &apiError{Status: http.StatusForbidden, Code: "area_forbidden", Message: "managers may only view their own area"}
	}
	return p.AreaID, nil
}

func canSeeItem(p Principal, item *store.Item) bool {
	if p.Role != RoleManager {
		return true
	}
	return item.AreaID != nil && *item.AreaID == *p.AreaID
}

// loadItem fetches a tenant's item and enforces area scoping.
func loadItem(ctx context.Context, s store.Store, p Principal, rawID string) (*store.Item, *apiError) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, badRequest("invalid_item_id", "invalid item id")
	}
	item, err := s.GetItem(ctx, p.TenantID, id)
	if err != nil {
		return nil, internalError(err)
	}
	if item == nil {
		return nil, &apiError{Status: http.StatusNotFound, Code: "item_not_found", Message: "item not found"}
	}
	if !canSeeItem(p, item) {
		return nil, &apiError{Status: http.StatusForbidden, Code: "area_forbidden", Message: "item belongs to another area"}
	}
	return item, nil
}
