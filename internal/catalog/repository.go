package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"missedcall/pkg/utils"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("catalog: not found")

// Repository reads the tenant catalog.
type Repository interface {
	// FindActiveService returns an active service with its active options and their add-ons.
	FindActiveService(ctx context.Context, tenantID string, serviceID int64) (Service, error)
	ListActiveServices(ctx context.Context, tenantID string) ([]Service, error)
}

// PostgresRepo implements Repository with database/sql.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) FindActiveService(ctx context.Context, tenantID string, serviceID int64) (Service, error) {
	const q = `
SELECT id, tenant_id, name, description, duration_minutes, price_minor, active, sort_order, created_at, updated_at
FROM services
WHERE tenant_id = $1 AND id = $2 AND active = true
`
	conn := utils.Conn(ctx, r.db)
	s, err := scanService(conn.QueryRowContext(ctx, q, tenantID, serviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Service{}, ErrNotFound
		}
		return Service{}, fmt.Errorf("catalog: find service: %w", err)
	}
	opts, err := r.listOptions(ctx, conn, []int64{s.ID})
	if err != nil {
		return Service{}, err
	}
	s.Options = opts[s.ID]
	return s, nil
}

func (r *PostgresRepo) ListActiveServices(ctx context.Context, tenantID string) ([]Service, error) {
	const q = `
SELECT id, tenant_id, name, description, duration_minutes, price_minor, active, sort_order, created_at, updated_at
FROM services
WHERE tenant_id = $1 AND active = true
ORDER BY sort_order, id
`
	conn := utils.Conn(ctx, r.db)
	rows, err := conn.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	var ids []int64
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	opts, err := r.listOptions(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Options = opts[out[i].ID]
	}
	return out, nil
}

func (r *PostgresRepo) listOptions(ctx context.Context, conn utils.DBTX, serviceIDs []int64) (map[int64][]ServiceOption, error) {
	const q = `
SELECT o.id, o.service_id, o.name, o.duration_minutes, o.price_minor,
       o.default_quantity, o.min_quantity, o.max_quantity, o.active, o.sort_order,
       so.id, so.name, so.price_minor
FROM service_options o
LEFT JOIN service_sub_options so ON so.option_id = o.id
WHERE o.service_id = ANY($1) AND o.active = true
ORDER BY o.sort_order, o.id, so.id
`
	rows, err := conn.QueryContext(ctx, q, pq.Array(serviceIDs))
	if err != nil {
		return nil, fmt.Errorf("catalog: list options: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]ServiceOption)
	index := make(map[int64]int) // option id -> position in out[service]
	for rows.Next() {
		var (
			o        ServiceOption
			dur      sql.NullInt64
			price    sql.NullInt64
			subID    sql.NullInt64
			subName  sql.NullString
			subPrice sql.NullInt64
		)
		if err := rows.Scan(
			&o.ID, &o.ServiceID, &o.Name, &dur, &price,
			&o.DefaultQuantity, &o.MinQuantity, &o.MaxQuantity, &o.Active, &o.SortOrder,
			&subID, &subName, &subPrice,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan option: %w", err)
		}
		pos, seen := index[o.ID]
		if !seen {
			if dur.Valid {
				d := int(dur.Int64)
				o.DurationMinutes = &d
			}
			o.PriceMinor = nullInt64Ptr(price)
			out[o.ServiceID] = append(out[o.ServiceID], o)
			pos = len(out[o.ServiceID]) - 1
			index[o.ID] = pos
		}
		if subID.Valid {
			opt := &out[o.ServiceID][pos]
			opt.SubOptions = append(opt.SubOptions, ServiceSubOption{
				ID:         subID.Int64,
				OptionID:   o.ID,
				Name:       subName.String,
				PriceMinor: nullInt64Ptr(subPrice),
			})
		}
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (Service, error) {
	var (
		s     Service
		desc  sql.NullString
		price sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TenantID, &s.Name, &desc, &s.DurationMinutes, &price, &s.Active, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Service{}, err
	}
	s.Description = desc.String
	s.PriceMinor = nullInt64Ptr(price)
	return s, nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
