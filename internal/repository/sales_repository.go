package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sales-platform/internal/models"
	"sales-platform/pkg/database"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// SalesRepository provides data access to the ground-truth sales history.
// The table is read-only from the serving path; only the ingester writes.
type SalesRepository interface {
	// DayExists reports whether any historical row matches (date, dong)
	DayExists(ctx context.Context, ymd8, dong string) (bool, error)

	// DayWeatherAverage returns the day-level average weather over all rows
	// with a non-null temperature, or nil when no such rows exist
	DayWeatherAverage(ctx context.Context, ymd8, dong string) (*models.DayWeather, error)

	// HourRecord returns the exact row for one hour slot, or nil when absent.
	// Null numeric columns come back as nil pointers, not zeroes.
	HourRecord(ctx context.Context, ymd8, dong string, hour int) (*models.HourlySalesRecord, error)

	// InsertSalesBatch writes a batch of rows in a single transaction
	InsertSalesBatch(ctx context.Context, rows []*models.SalesRow) error

	// HealthCheck performs a repository health check
	HealthCheck(ctx context.Context) error
}

// salesRepository implements SalesRepository over PostgreSQL
type salesRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSalesRepository creates a new sales repository
func NewSalesRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) SalesRepository {
	return &salesRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// DayExists reports whether at least one row exists for (date, dong)
func (r *salesRepository) DayExists(ctx context.Context, ymd8, dong string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM sales_data
		WHERE ta_ymd = $1
		  AND dong = $2
	`

	var count int
	if err := r.db.GetContext(ctx, "day_exists", &count, query, ymd8, dong); err != nil {
		return false, fmt.Errorf("failed to check day existence: %w", err)
	}

	return count > 0, nil
}

// DayWeatherAverage averages temperature and rainfall over the day's rows
func (r *salesRepository) DayWeatherAverage(ctx context.Context, ymd8, dong string) (*models.DayWeather, error) {
	query := `
		SELECT AVG(temp) AS avg_temp, COALESCE(AVG(rain), 0) AS avg_rain
		FROM sales_data
		WHERE ta_ymd = $1
		  AND dong = $2
		  AND temp IS NOT NULL
	`

	var result struct {
		AvgTemp *float64 `db:"avg_temp"`
		AvgRain float64  `db:"avg_rain"`
	}

	err := r.db.GetContext(ctx, "day_weather_average", &result, query, ymd8, dong)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to average day weather: %w", err)
	}

	// AVG over zero rows is NULL, which means no usable observation.
	if result.AvgTemp == nil {
		return nil, nil
	}

	return &models.DayWeather{
		Temp: *result.AvgTemp,
		Rain: result.AvgRain,
	}, nil
}

// HourRecord fetches the row for a single hour slot
func (r *salesRepository) HourRecord(ctx context.Context, ymd8, dong string, hour int) (*models.HourlySalesRecord, error) {
	query := `
		SELECT amt, cnt, temp, rain
		FROM sales_data
		WHERE ta_ymd = $1
		  AND dong = $2
		  AND hour = $3
	`

	var record models.HourlySalesRecord
	err := r.db.GetContext(ctx, "hour_record", &record, query, ymd8, dong, hour)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hour record: %w", err)
	}

	return &record, nil
}

// InsertSalesBatch inserts rows in a single transaction using a prepared
// statement, duplicate (date, dong, hour) rows replacing the earlier ones.
func (r *salesRepository) InsertSalesBatch(ctx context.Context, rows []*models.SalesRow) error {
	if len(rows) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(rows)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(rows),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_data (ta_ymd, dong, hour, day, amt, cnt, unit, temp, rain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ta_ymd, dong, hour) DO UPDATE SET
			day  = EXCLUDED.day,
			amt  = EXCLUDED.amt,
			cnt  = EXCLUDED.cnt,
			unit = EXCLUDED.unit,
			temp = EXCLUDED.temp,
			rain = EXCLUDED.rain
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.TaYmd,
			row.Dong,
			row.Hour,
			row.Day,
			row.Amount,
			row.Count,
			row.Unit,
			row.Temp,
			row.Rain,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sales row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(rows)))

	return nil
}

// HealthCheck performs a repository health check
func (r *salesRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
