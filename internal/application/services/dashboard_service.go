package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/teknatem/mpbackoffice/pkg/errors"
	"github.com/teknatem/mpbackoffice/pkg/expression"
	"github.com/teknatem/mpbackoffice/pkg/models"
	"github.com/teknatem/mpbackoffice/pkg/pivot"
	"github.com/teknatem/mpbackoffice/pkg/query"
)

// Saved dashboard timestamps are stored with second precision
const timestampPrecision = time.Second

// StatementExecutor runs a parameterized SELECT and returns every row
type StatementExecutor interface {
	QueryAll(ctx context.Context, statement string, args ...interface{}) ([]query.Row, error)
}

// DashboardStore persists saved dashboard configurations
type DashboardStore interface {
	Create(ctx context.Context, d *models.SavedDashboard) error
	Get(ctx context.Context, id string) (*models.SavedDashboard, error)
	List(ctx context.Context, dataSource string) ([]*models.SavedDashboard, error)
	Update(ctx context.Context, d *models.SavedDashboard) error
	Delete(ctx context.Context, id string) error
}

// DashboardService executes and previews dashboards and manages saved configurations
type DashboardService struct {
	registry  *pivot.Registry
	executor  StatementExecutor
	store     DashboardStore
	validator *StatementValidator
	engine    *expression.Engine
	log       logrus.FieldLogger
	now       func() time.Time
	timeout   time.Duration
}

// DashboardOption configures a DashboardService
type DashboardOption func(*DashboardService)

// WithLogger sets the service logger
func WithLogger(log logrus.FieldLogger) DashboardOption {
	return func(s *DashboardService) {
		s.log = log
	}
}

// WithClock sets the clock used to resolve relative date periods and timestamps
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) {
		s.now = now
	}
}

// WithQueryTimeout bounds every statement sent to the executor. Zero disables the bound.
func WithQueryTimeout(timeout time.Duration) DashboardOption {
	return func(s *DashboardService) {
		s.timeout = timeout
	}
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	registry *pivot.Registry,
	executor StatementExecutor,
	store DashboardStore,
	opts ...DashboardOption,
) *DashboardService {
	s := &DashboardService{
		registry:  registry,
		executor:  executor,
		store:     store,
		validator: NewStatementValidator(),
		engine:    expression.NewEngine(),
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListDataSources returns every registered data source in registration order
func (s *DashboardService) ListDataSources() []DataSourceSummary {
	schemas := s.registry.List()
	out := make([]DataSourceSummary, 0, len(schemas))
	for _, schema := range schemas {
		out = append(out, DataSourceSummary{ID: schema.ID, Name: schema.Name, FieldCount: len(schema.Fields)})
	}
	return out
}

// GetDataSource returns a data source schema by id
func (s *DashboardService) GetDataSource(id string) (*pivot.DataSourceSchema, error) {
	schema, ok := s.registry.Get(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("Data source", id)
	}
	return schema, nil
}

// prepared is a validated configuration ready to run
type prepared struct {
	schema     *pivot.DataSourceSchema
	query      *pivot.BuiltQuery
	calculator *pivot.Calculator
}

// prepare is the single build path shared by Execute and GenerateSQLPreview
func (s *DashboardService) prepare(cfg *pivot.DashboardConfig) (*prepared, error) {
	if cfg == nil {
		return nil, apperrors.NewValidationError("config", "dashboard configuration is required")
	}
	schema, err := s.GetDataSource(cfg.DataSource)
	if err != nil {
		return nil, err
	}

	built, err := pivot.NewQueryBuilder(schema, pivot.WithClock(s.now)).Build(cfg)
	if err != nil {
		return nil, err
	}

	calculator, err := pivot.NewCalculator(s.engine, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(built.SQL, len(built.Params)); err != nil {
		s.log.WithError(err).WithField("sql", built.SQL).Error("generated statement failed validation")
		return nil, apperrors.NewInternalError("generated statement failed validation", err)
	}

	return &prepared{schema: schema, query: built, calculator: calculator}, nil
}

// GenerateSQLPreview returns the exact statement and parameters Execute would send
func (s *DashboardService) GenerateSQLPreview(cfg *pivot.DashboardConfig) (*GenerateSQLResponse, error) {
	p, err := s.prepare(cfg)
	if err != nil {
		return nil, err
	}
	return &GenerateSQLResponse{
		SQL:     p.query.SQL,
		Params:  p.query.ParamStrings(),
		Columns: p.query.Columns,
	}, nil
}

// Execute builds, runs and aggregates a dashboard
func (s *DashboardService) Execute(ctx context.Context, cfg *pivot.DashboardConfig) (*ExecuteResponse, error) {
	start := time.Now()

	p, err := s.prepare(cfg)
	if err != nil {
		return nil, err
	}

	queryCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.executor.QueryAll(queryCtx, p.query.SQL, p.query.Args()...)
	if err != nil {
		entry := s.log.WithError(err).WithField("data_source", cfg.DataSource)
		if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			entry.Warn("dashboard query timed out")
			return nil, apperrors.NewTimeoutError("dashboard query", s.timeout)
		}
		entry.Error("dashboard query failed")
		return nil, apperrors.NewInternalError("failed to execute dashboard query", err)
	}

	normalizer := pivot.NewNormalizer(p.schema, cfg)
	normalized := make([]pivot.RawRow, len(rows))
	for i, row := range rows {
		normalized[i] = normalizer.Normalize(row)
	}

	// Grouped SQL rows are partial aggregates; detail rows are combined from scratch.
	specs := pivot.AggregateSpecs(cfg)
	if cfg.HasAggregates() {
		specs = pivot.RollupSpecs(cfg)
	}
	tree := pivot.NewTreeBuilder(cfg.Groupings, specs).Build(normalized)
	p.calculator.Apply(tree)

	elapsed := time.Since(start)
	s.log.WithFields(logrus.Fields{
		"data_source": cfg.DataSource,
		"rows":        len(normalized),
		"elapsed_ms":  elapsed.Milliseconds(),
	}).Info("dashboard executed")

	return &ExecuteResponse{
		Columns:   p.query.Columns,
		Rows:      normalized,
		Tree:      tree,
		RowCount:  len(normalized),
		ElapsedMS: elapsed.Milliseconds(),
	}, nil
}
