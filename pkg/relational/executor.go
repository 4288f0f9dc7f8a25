package relational

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/database"
	"github.com/blitz-ai/feedback-console/pkg/logging"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// Service executes ad-hoc read queries against the registered analytics
// databases. Statements are passed through verbatim after single-statement
// normalization; result sets are capped at a configured row limit.
type Service interface {
	// Databases returns the names of the registered databases, sorted.
	Databases() []string

	// Execute runs one SQL statement against the named database. SQL-level
	// failures are reported inside the result with Success=false; only an
	// unknown database name or an invalid statement yields a non-nil error.
	Execute(ctx context.Context, db, sqlText string) (*models.QueryResult, error)

	// TestConnection verifies the named database is reachable.
	TestConnection(ctx context.Context, db string) error

	// Tables lists the public-schema tables of the named database.
	Tables(ctx context.Context, db string) ([]string, error)
}

type service struct {
	pools   map[string]*database.DB
	maxRows int
	logger  *zap.Logger
}

// NewService creates a query execution service over the given database
// pools, keyed by the names exposed to callers.
func NewService(pools map[string]*database.DB, maxRows int, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &service{pools: pools, maxRows: maxRows, logger: logger}
}

func (s *service) Databases() []string {
	names := make([]string, 0, len(s.pools))
	for name := range s.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *service) pool(db string) (*database.DB, error) {
	p, ok := s.pools[db]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidDatabase, db)
	}
	return p, nil
}

func (s *service) Execute(ctx context.Context, db, sqlText string) (*models.QueryResult, error) {
	pool, err := s.pool(db)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeStatement(sqlText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty query", apperrors.ErrValidation)
	}

	start := time.Now()
	rows, err := pool.Query(ctx, normalized)
	if err != nil {
		s.logger.Warn("query failed",
			zap.String("database", db),
			zap.String("query", logging.SanitizeQuery(normalized)),
			zap.String("error", logging.SanitizeError(err)))
		return &models.QueryResult{
			Database: db,
			Query:    normalized,
			Error:    err.Error(),
		}, nil
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	data := make([]map[string]any, 0)
	rowCount := 0
	for rows.Next() {
		rowCount++
		if rowCount > s.maxRows {
			// Keep counting so RowCount reflects the full result size.
			continue
		}
		values, err := rows.Values()
		if err != nil {
			return &models.QueryResult{
				Database: db,
				Query:    normalized,
				Error:    fmt.Sprintf("failed to read row values: %v", err),
			}, nil
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = convertValue(values[i])
		}
		data = append(data, rowMap)
	}
	if err := rows.Err(); err != nil {
		return &models.QueryResult{
			Database: db,
			Query:    normalized,
			Error:    err.Error(),
		}, nil
	}

	result := &models.QueryResult{
		Success:  true,
		Columns:  columns,
		Data:     data,
		RowCount: rowCount,
		Database: db,
		Query:    normalized,
	}

	if len(fieldDescs) == 0 {
		// Non-SELECT statement: report rows affected instead of a result set.
		tag := rows.CommandTag()
		result.Message = fmt.Sprintf("statement executed, %d rows affected", tag.RowsAffected())
	}

	if rowCount > s.maxRows {
		result.Truncated = true
		result.Warning = fmt.Sprintf("result truncated to %d of %d rows", s.maxRows, rowCount)
	}

	s.logger.Debug("query executed",
		zap.String("database", db),
		zap.String("query", logging.SanitizeQuery(normalized)),
		zap.Int("row_count", rowCount),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (s *service) TestConnection(ctx context.Context, db string) error {
	pool, err := s.pool(db)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connection test for %s failed: %w", db, err)
	}
	return nil
}

func (s *service) Tables(ctx context.Context, db string) ([]string, error) {
	pool, err := s.pool(db)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables for %s: %w", db, err)
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing tables for %s: %w", db, err)
	}
	return tables, nil
}

// convertValue rewrites driver-specific values into JSON-friendly ones.
// Intervals become a human-readable duration string and numerics become
// float64 so result sets serialize cleanly.
func convertValue(v any) any {
	switch val := v.(type) {
	case pgtype.Interval:
		if !val.Valid {
			return nil
		}
		return formatInterval(val)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	default:
		return v
	}
}

// formatInterval renders an interval as "Nh Nm Ns". Month components are
// folded in at thirty days, matching how the console has always displayed
// game durations and similar interval columns.
func formatInterval(iv pgtype.Interval) string {
	totalSeconds := int64(iv.Months)*30*24*3600 +
		int64(iv.Days)*24*3600 +
		iv.Microseconds/1_000_000

	negative := totalSeconds < 0
	if negative {
		totalSeconds = -totalSeconds
	}

	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	formatted := fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	if negative {
		return "-" + formatted
	}
	return formatted
}

var _ Service = (*service)(nil)
