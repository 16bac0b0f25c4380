package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teknatem/mpbackoffice/internal/config"
	"github.com/teknatem/mpbackoffice/internal/infrastructure/database"
	"github.com/teknatem/mpbackoffice/pkg/constants"
	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/models"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
)

func newMockRepository(t *testing.T) (*DashboardRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewDashboardRepository(db), mock
}

func sampleDashboard() *models.SavedDashboard {
	desc := "Revenue per marketplace"
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &models.SavedDashboard{
		ID:          "0b6c8f0e-3a8e-4d1c-9a57-1c2f3e4d5a6b",
		Name:        "Revenue",
		Description: &desc,
		DataSource:  "sales_register",
		Config: pivot.DashboardConfig{
			DataSource:     "sales_register",
			Groupings:      []string{"marketplace"},
			SelectedFields: []pivot.SelectedField{{FieldID: "revenue", Aggregate: pivot.AggSum}},
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestDashboardRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	d := sampleDashboard()

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		constants.TableDashboardConfig, strings.Join(dashboardColumns, ", "))
	mock.ExpectExec(regexp.QuoteMeta(query)).
		WithArgs(d.ID, d.Name, *d.Description, d.DataSource, sqlmock.AnyArg(), d.CreatedAt, d.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), d)
	assert.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(query)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'PRIMARY'"})
	err = repo.Create(context.Background(), d)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 409, apperrors.GetHTTPStatus(err))

	mock.ExpectExec(regexp.QuoteMeta(query)).WillReturnError(sql.ErrConnDone)
	err = repo.Create(context.Background(), d)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, apperrors.IsConflict(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_Get(t *testing.T) {
	repo, mock := newMockRepository(t)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(dashboardColumns, ", "), constants.TableDashboardConfig, constants.FieldID)

	configJSON := `{"data_source":"sales_register","groupings":["marketplace"],"selected_fields":[{"field_id":"revenue","aggregate":"sum"}],"filters":[{"field_id":"sale_date","value_type":{"kind":"date"},"definition":{"type":"date_period","preset":"this_month"}}]}`
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(dashboardColumns).
			AddRow("d1", "Revenue", nil, "sales_register", configJSON, []byte("2024-03-01 09:30:00"), "2024-03-02T10:00:00Z"))

	d, err := repo.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Revenue", d.Name)
	assert.Nil(t, d.Description)
	assert.Equal(t, []string{"marketplace"}, d.Config.Groupings)
	require.Len(t, d.Config.Filters, 1)
	assert.Equal(t, pivot.DatePeriod{Preset: pivot.PresetThisMonth}, d.Config.Filters[0].Definition)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), d.CreatedAt)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), d.UpdatedAt)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_List(t *testing.T) {
	repo, mock := newMockRepository(t)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	filtered := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s DESC, %s",
		strings.Join(dashboardColumns, ", "), constants.TableDashboardConfig,
		constants.FieldDataSource, constants.FieldLastModifiedDate, constants.FieldID)
	mock.ExpectQuery(regexp.QuoteMeta(filtered)).
		WithArgs("sales_register").
		WillReturnRows(sqlmock.NewRows(dashboardColumns).
			AddRow("d1", "A", "first", "sales_register", `{"data_source":"sales_register"}`, ts, ts).
			AddRow("d2", "B", nil, "sales_register", `{"data_source":"sales_register"}`, ts, ts))

	items, err := repo.List(context.Background(), "sales_register")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", *items[0].Description)
	assert.Equal(t, "d2", items[1].ID)

	all := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC, %s",
		strings.Join(dashboardColumns, ", "), constants.TableDashboardConfig,
		constants.FieldLastModifiedDate, constants.FieldID)
	mock.ExpectQuery(regexp.QuoteMeta(all)).
		WillReturnRows(sqlmock.NewRows(dashboardColumns).
			AddRow("d3", "C", nil, "wb_finance_report", `not json`, ts, ts))

	_, err = repo.List(context.Background(), "")
	assert.ErrorContains(t, err, "corrupt config")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_UpdateAndDelete(t *testing.T) {
	repo, mock := newMockRepository(t)
	d := sampleDashboard()

	update := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableDashboardConfig,
		constants.FieldName, constants.FieldDescription, constants.FieldDataSource, constants.FieldConfig,
		constants.FieldLastModifiedDate, constants.FieldID)
	mock.ExpectExec(regexp.QuoteMeta(update)).
		WithArgs(d.Name, *d.Description, d.DataSource, sqlmock.AnyArg(), d.UpdatedAt, d.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(update)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Update(context.Background(), d))
	assert.True(t, apperrors.IsNotFound(repo.Update(context.Background(), d)))

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableDashboardConfig, constants.FieldID)
	mock.ExpectExec(regexp.QuoteMeta(del)).WithArgs(d.ID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(del)).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), d.ID))
	assert.True(t, apperrors.IsNotFound(repo.Delete(context.Background(), "missing")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := database.Open(ctx, config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	repo := NewDashboardRepository(conn.DB())
	require.NoError(t, repo.EnsureDashboardTable(ctx))
	require.NoError(t, repo.EnsureDashboardTable(ctx))

	d := sampleDashboard()
	require.NoError(t, repo.Create(ctx, d))
	assert.True(t, apperrors.IsConflict(repo.Create(ctx, d)))

	got, err := repo.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, *d.Description, *got.Description)
	assert.Equal(t, d.Config, got.Config)
	assert.True(t, d.CreatedAt.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)

	d.Name = "Revenue v2"
	d.Description = nil
	d.UpdatedAt = d.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, d))

	items, err := repo.List(ctx, "sales_register")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Revenue v2", items[0].Name)
	assert.Nil(t, items[0].Description)
	assert.True(t, d.UpdatedAt.Equal(items[0].UpdatedAt))

	items, err = repo.List(ctx, "wb_finance_report")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.Get(ctx, d.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
