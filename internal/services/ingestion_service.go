package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"sales-platform/internal/geo"
	"sales-platform/internal/models"
	"sales-platform/internal/repository"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// IngestionService loads the dong-level sales history CSV into the store.
// District names are normalized here, at write time, with the same
// normalization the query path uses, so the join key is consistent.
type IngestionService struct {
	repo    repository.SalesRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.SalesRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile ingests a sales history CSV with a header row of
// TA_YMD,DONG,HOUR,DAY,AMT,CNT,UNIT,TEMP,RAIN (order taken from the
// header, extra columns ignored). Rows that fail to parse are counted and
// skipped, never fatal for the file.
func (s *IngestionService) IngestFile(ctx context.Context, path string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting sales data ingestion", logging.Fields{
		"path":       path,
		"batch_size": batchSize,
	})

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}

	for _, required := range []string{"TA_YMD", "DONG", "HOUR"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV header missing required column %s", required)
		}
	}

	result := &IngestionResult{Errors: make([]string, 0)}
	batch := make([]*models.SalesRow, 0, batchSize)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("read_error")
			continue
		}

		result.TotalRecords++

		row, err := s.parseRow(record, cols)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		batch = append(batch, row)

		if len(batch) >= batchSize {
			if err := s.repo.InsertSalesBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.repo.InsertSalesBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Sales data ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})

	return result, nil
}

// parseRow converts one CSV record into a sales row. Empty numeric cells
// become NULLs, not zeroes, so the serving path can tell the difference.
func (s *IngestionService) parseRow(record []string, cols map[string]int) (*models.SalesRow, error) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	ymd := strings.ReplaceAll(get("TA_YMD"), "-", "")
	if len(ymd) != 8 {
		return nil, fmt.Errorf("invalid TA_YMD %q", ymd)
	}

	dong := geo.NormalizeDong(get("DONG"))
	if dong == "" {
		return nil, fmt.Errorf("empty DONG")
	}

	hour, err := strconv.Atoi(get("HOUR"))
	if err != nil || hour < 1 || hour > models.HourSlots {
		return nil, fmt.Errorf("invalid HOUR %q", get("HOUR"))
	}

	row := &models.SalesRow{
		TaYmd: ymd,
		Dong:  dong,
		Hour:  hour,
		Unit:  get("UNIT"),
	}

	if day, err := strconv.Atoi(get("DAY")); err == nil {
		row.Day = day
	}
	row.Amount = parseNullableFloat(get("AMT"))
	row.Count = parseNullableFloat(get("CNT"))
	row.Temp = parseNullableFloat(get("TEMP"))
	row.Rain = parseNullableFloat(get("RAIN"))

	return row, nil
}

func parseNullableFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
