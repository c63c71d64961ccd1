package catalog

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_FindActiveService_GroupsSubOptions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM services")).
		WithArgs("t1", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "description", "duration_minutes", "price_minor", "active", "sort_order", "created_at", "updated_at"}).
			AddRow(int64(10), "t1", "Detail", nil, 30, nil, true, 0, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("FROM service_options o")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "name", "duration_minutes", "price_minor", "default_quantity", "min_quantity", "max_quantity", "active", "sort_order", "so_id", "so_name", "so_price"}).
			AddRow(int64(100), int64(10), "Premium", 60, int64(5000), 1, 1, 3, true, 0, int64(1000), "Wax", int64(1500)).
			AddRow(int64(100), int64(10), "Premium", 60, int64(5000), 1, 1, 3, true, 0, int64(1001), "Tint", nil).
			AddRow(int64(101), int64(10), "Basic", nil, nil, 1, 1, 1, true, 1, nil, nil, nil))

	s, err := NewPostgresRepo(db).FindActiveService(context.Background(), "t1", 10)
	require.NoError(t, err)

	assert.Nil(t, s.PriceMinor)
	require.Len(t, s.Options, 2)
	assert.Equal(t, "Premium", s.Options[0].Name)
	require.Len(t, s.Options[0].SubOptions, 2)
	assert.Equal(t, int64(1500), *s.Options[0].SubOptions[0].PriceMinor)
	assert.Nil(t, s.Options[0].SubOptions[1].PriceMinor)
	assert.Equal(t, 60, *s.Options[0].DurationMinutes)
	assert.Nil(t, s.Options[1].DurationMinutes)
	assert.Empty(t, s.Options[1].SubOptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindActiveService_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM services")).
		WithArgs("t1", int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresRepo(db).FindActiveService(context.Background(), "t1", 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_FiltersInactive(t *testing.T) {
	repo := NewMemoryRepo(
		Service{ID: 1, TenantID: "t1", Active: true, Options: []ServiceOption{{ID: 11, Active: true}, {ID: 12, Active: false}}},
		Service{ID: 2, TenantID: "t1", Active: false},
		Service{ID: 3, TenantID: "t2", Active: true},
	)

	s, err := repo.FindActiveService(context.Background(), "t1", 1)
	require.NoError(t, err)
	assert.Len(t, s.Options, 1)

	_, err = repo.FindActiveService(context.Background(), "t1", 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindActiveService(context.Background(), "t1", 3)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.ListActiveServices(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
