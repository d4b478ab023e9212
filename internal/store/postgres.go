package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Numeric columns are read as text so decimals survive without float rounding.
const itemColumns = `id, tenant_id, area_id, title, category,
	status, progress, progress_method, weight_factor, is_strategic,
	budget::text, actual_cost::text, estimated_hours, actual_hours,
	target_date, completed_at, created_at, updated_at`

const subUnitColumns = `id, item_id, title, is_completed,
	weight_percentage::text, priority, estimated_hours, position`

func (s *PostgresStore) ListTenants(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM tenants WHERE active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanItem(row pgx.Row) (*Item, error) {
	item := &Item{}
	var category, budget, actualCost sql.NullString
	var estimatedHours, actualHours sql.NullFloat64

	err := row.Scan(
		&item.ID, &item.TenantID, &item.AreaID, &item.Title, &category,
		&item.Status, &item.Progress, &item.ProgressMethod, &item.WeightFactor, &item.IsStrategic,
		&budget, &actualCost, &estimatedHours, &actualHours,
		&item.TargetDate, &item.CompletedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		item.Category = category.String
	}
	if item.Budget, err = parseNullDecimal(budget); err != nil {
		return nil, fmt.Errorf("item %s budget: %w", item.ID, err)
	}
	if item.ActualCost, err = parseNullDecimal(actualCost); err != nil {
		return nil, fmt.Errorf("item %s actual_cost: %w", item.ID, err)
	}
	if estimatedHours.Valid {
		item.EstimatedHours = &estimatedHours.Float64
	}
	if actualHours.Valid {
		item.ActualHours = &actualHours.Float64
	}
	return item, nil
}

func parseNullDecimal(v sql.NullString) (decimal.NullDecimal, error) {
	if !v.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func (s *PostgresStore) ListItems(ctx context.Context, filter ItemFilter) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	n := 1

	if filter.AreaID != nil {
		n++
		query += fmt.Sprintf(" AND area_id = $%d", n)
		args = append(args, *filter.AreaID)
	}
	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.Strategic != nil {
		n++
		query += fmt.Sprintf(" AND is_strategic = $%d", n)
		args = append(args, *filter.Strategic)
	}
	if filter.Category != "" {
		n++
		query += fmt.Sprintf(" AND category = $%d", n)
		args = append(args, filter.Category)
	}

	query += " ORDER BY created_at"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachSubUnits(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, tenantID, id uuid.UUID) (*Item, error) {
	item, err := scanItem(s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM items WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachSubUnits(ctx, []*Item{item}); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PostgresStore) attachSubUnits(ctx context.Context, items []*Item) error {
	if len(items) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Item, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		ids = append(ids, it.ID.String())
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+subUnitColumns+`
		FROM sub_units WHERE item_id = ANY($1::uuid[])
		ORDER BY item_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load sub-units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var su SubUnit
		var weight, priority sql.NullString
		var hours sql.NullFloat64
		if err := rows.Scan(&su.ID, &su.ItemID, &su.Title, &su.IsCompleted,
			&weight, &priority, &hours, &su.Position); err != nil {
			return err
		}
		if su.WeightPercentage, err = parseNullDecimal(weight); err != nil {
			return fmt.Errorf("sub-unit %s weight: %w", su.ID, err)
		}
		if priority.Valid {
			su.Priority = Priority(priority.String)
		}
		if hours.Valid {
			su.EstimatedHours = &hours.Float64
		}
		if parent, ok := byID[su.ItemID]; ok {
			parent.SubUnits = append(parent.SubUnits, su)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) ListAreas(ctx context.Context, tenantID uuid.UUID) ([]*Area, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, name FROM areas
		WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var areas []*Area
	for rows.Next() {
		a := &Area{}
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

func (s *PostgresStore) GetArea(ctx context.Context, tenantID, id uuid.UUID) (*Area, error) {
	a := &Area{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name FROM areas
		WHERE tenant_id = $1 AND id = $2`, tenantID, id,
	).Scan(&a.ID, &a.TenantID, &a.Name)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) UpdateSubUnitWeights(ctx context.Context, tenantID, itemID uuid.UUID, updates []WeightUpdate) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the parent row so concurrent saves of the same item serialize.
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM items WHERE tenant_id = $1 AND id = $2 FOR UPDATE`,
		tenantID, itemID,
	).Scan(&locked)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("item %s not found", itemID)
	}
	if err != nil {
		return fmt.Errorf("lock item: %w", err)
	}

	for _, u := range updates {
		var weight interface{}
		if u.WeightPercentage.Valid {
			weight = u.WeightPercentage.Decimal.String()
		}
		tag, err := tx.Exec(ctx, `
			UPDATE sub_units SET weight_percentage = $1::numeric
			WHERE id = $2 AND item_id = $3`,
			weight, u.SubUnitID, itemID)
		if err != nil {
			return fmt.Errorf("update sub-unit %s: %w", u.SubUnitID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("sub-unit %s does not belong to item %s", u.SubUnitID, itemID)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE items SET updated_at = now() WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("touch item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
