package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teknatem/mpbackoffice/internal/infrastructure/database"
	"github.com/teknatem/mpbackoffice/pkg/constants"
	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/models"
)

const dashboardResource = "Dashboard"

var dashboardColumns = []string{
	constants.FieldID,
	constants.FieldName,
	constants.FieldDescription,
	constants.FieldDataSource,
	constants.FieldConfig,
	constants.FieldCreatedDate,
	constants.FieldLastModifiedDate,
}

// Timestamp layouts accepted when a driver hands back text instead of time.Time
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// EnsureDashboardTable creates the saved dashboard table when it does not exist.
// The DDL is accepted by both MySQL/TiDB and SQLite.
func (r *DashboardRepository) EnsureDashboardTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s VARCHAR(36) NOT NULL PRIMARY KEY,
		%s VARCHAR(255) NOT NULL,
		%s TEXT,
		%s VARCHAR(100) NOT NULL,
		%s TEXT NOT NULL,
		%s DATETIME NOT NULL,
		%s DATETIME NOT NULL
	)`,
		constants.TableDashboardConfig,
		constants.FieldID, constants.FieldName, constants.FieldDescription, constants.FieldDataSource,
		constants.FieldConfig, constants.FieldCreatedDate, constants.FieldLastModifiedDate)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", constants.TableDashboardConfig, err)
	}
	return nil
}

// Create inserts a saved dashboard. The caller assigns the id and timestamps.
func (r *DashboardRepository) Create(ctx context.Context, d *models.SavedDashboard) error {
	configJSON, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard config: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)",
		constants.TableDashboardConfig, strings.Join(dashboardColumns, ", "))
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.Name, nullableString(d.Description), d.DataSource, string(configJSON), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return apperrors.NewConflictError(dashboardResource, constants.FieldID, d.ID)
		}
		return fmt.Errorf("failed to insert dashboard: %w", err)
	}
	return nil
}

// Get returns a saved dashboard by id
func (r *DashboardRepository) Get(ctx context.Context, id string) (*models.SavedDashboard, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(dashboardColumns, ", "), constants.TableDashboardConfig, constants.FieldID)

	d, err := scanDashboard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(dashboardResource, id)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List returns saved dashboards, most recently updated first.
// An empty dataSource lists every data source.
func (r *DashboardRepository) List(ctx context.Context, dataSource string) ([]*models.SavedDashboard, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(dashboardColumns, ", "), constants.TableDashboardConfig)
	var args []interface{}
	if dataSource != "" {
		query += fmt.Sprintf(" WHERE %s = ?", constants.FieldDataSource)
		args = append(args, dataSource)
	}
	query += fmt.Sprintf(" ORDER BY %s DESC, %s", constants.FieldLastModifiedDate, constants.FieldID)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	dashboards := make([]*models.SavedDashboard, 0)
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		dashboards = append(dashboards, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dashboards, nil
}

// Update replaces the name, description and config of a saved dashboard
func (r *DashboardRepository) Update(ctx context.Context, d *models.SavedDashboard) error {
	configJSON, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard config: %w", err)
	}

	query := fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?",
		constants.TableDashboardConfig,
		constants.FieldName, constants.FieldDescription, constants.FieldDataSource, constants.FieldConfig,
		constants.FieldLastModifiedDate, constants.FieldID)
	result, err := r.db.ExecContext(ctx, query,
		d.Name, nullableString(d.Description), d.DataSource, string(configJSON), d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	return requireAffected(result, d.ID)
}

// Delete removes a saved dashboard
func (r *DashboardRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableDashboardConfig, constants.FieldID)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	return requireAffected(result, id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDashboard(row rowScanner) (*models.SavedDashboard, error) {
	var (
		d                      models.SavedDashboard
		description            sql.NullString
		configJSON             string
		createdRaw, updatedRaw interface{}
	)
	if err := row.Scan(&d.ID, &d.Name, &description, &d.DataSource, &configJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	if description.Valid {
		desc := description.String
		d.Description = &desc
	}
	if err := json.Unmarshal([]byte(configJSON), &d.Config); err != nil {
		return nil, fmt.Errorf("dashboard %s has a corrupt config: %w", d.ID, err)
	}

	var err error
	if d.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", d.ID, err)
	}
	if d.UpdatedAt, err = parseTimestamp(updatedRaw); err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", d.ID, err)
	}
	return &d, nil
}

func parseTimestamp(v interface{}) (time.Time, error) {
	var s string
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case []byte:
		s = string(val)
	case string:
		s = val
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.NewNotFoundError(dashboardResource, id)
	}
	return nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
