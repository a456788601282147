package services

import (
	"context"
	"math"
	"time"

	"sales-platform/internal/geo"
	"sales-platform/internal/models"
	"sales-platform/internal/prediction"
	"sales-platform/internal/repository"
	"sales-platform/internal/weather"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// ForecastService reconciles ground-truth sales records and model
// predictions into a unified per-hour day result. Weather is resolved once
// per request at day granularity and reused across all ten hour slots.
type ForecastService struct {
	repo        repository.SalesRepository
	resolver    *weather.Resolver
	engine      *prediction.Engine
	actualStart string
	actualEnd   string
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewForecastService creates a new forecast service. actualStart/actualEnd
// bound the YYYYMMDD window for which the history store carries data.
func NewForecastService(
	repo repository.SalesRepository,
	resolver *weather.Resolver,
	engine *prediction.Engine,
	actualStart, actualEnd string,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ForecastService {
	return &ForecastService{
		repo:        repo,
		resolver:    resolver,
		engine:      engine,
		actualStart: actualStart,
		actualEnd:   actualEnd,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// BuildDayResult produces the per-hour estimate list for one (gu, dong,
// date) request. Every one of the ten hour slots is always populated with
// best-available data; data-source failures degrade, they never abort.
func (s *ForecastService) BuildDayResult(ctx context.Context, gu, dong, ymd8 string, cell models.GridCell, now time.Time) (*models.DayResult, error) {
	day, err := models.DayOfWeek(ymd8)
	if err != nil {
		return nil, err
	}

	dongNorm := geo.NormalizeDong(dong)

	reqLogger := s.logger.WithFields(logging.Fields{
		"gu":        gu,
		"dong":      dong,
		"dong_norm": dongNorm,
		"date":      ymd8,
	})

	reqLogger.Info(ctx, "[FORECAST_START] Building day result", logging.Fields{
		"day_of_week": day,
		"nx":          cell.Nx,
		"ny":          cell.Ny,
	})

	// Day-level weather, resolved once and reused for every hour slot.
	resolution := s.resolver.Resolve(ctx, ymd8, dongNorm, cell, now)

	// Actual-vs-predicted is decided independently of the weather source:
	// the date must fall inside the supported window AND rows must exist.
	useActual := ymd8 >= s.actualStart && ymd8 <= s.actualEnd
	if useActual {
		exists, err := s.repo.DayExists(ctx, ymd8, dongNorm)
		if err != nil {
			// Store failure degrades the whole day to prediction.
			reqLogger.Warn(ctx, "[FORECAST_DB_ERROR] Day existence check failed, falling back to prediction", logging.Fields{
				"error": err.Error(),
			})
			exists = false
		}
		useActual = exists
	}

	result := &models.DayResult{
		Gu:             gu,
		Dong:           dong,
		DongNormalized: dongNorm,
		Date:           ymd8,
		DayOfWeek:      day,
		Grid:           cell,
		Weather:        resolution,
		DataType:       models.DataTypePrediction,
		Results:        make([]models.HourlyResult, 0, models.HourSlots),
	}
	if useActual {
		result.DataType = models.DataTypeActual
	}

	for hour := 1; hour <= models.HourSlots; hour++ {
		amt, cnt, source := s.resolveHour(ctx, reqLogger, gu, dong, dongNorm, ymd8, hour, day, useActual, resolution)

		amtInt := int64(math.Round(amt))
		cntInt := int64(math.Round(cnt))

		result.TotalAmount += amtInt
		result.TotalCount += cntInt
		result.Results = append(result.Results, models.HourlyResult{
			Hour:      hour,
			HourLabel: models.TimeLabels[hour],
			AmountStr: models.FormatAmount(amtInt),
			CountStr:  models.FormatCount(cntInt),
			Source:    source,
		})

		s.metrics.RecordPrediction(source)
	}

	result.TotalAmountStr = models.FormatAmount(result.TotalAmount)
	result.TotalCountStr = models.FormatCount(result.TotalCount)

	reqLogger.Info(ctx, "[FORECAST_COMPLETE] Day result built", logging.Fields{
		"data_type":      result.DataType,
		"weather_source": resolution.Source,
		"total_amount":   result.TotalAmount,
		"total_count":    result.TotalCount,
	})

	return result, nil
}

// resolveHour produces one hour slot's (amount, count, source tag). With
// useActual set, a complete historical row is used verbatim; a missing row
// or null amount/count is gap-filled from the model using the day-level
// resolved weather (the row-level weather, if any, is not consulted here).
func (s *ForecastService) resolveHour(
	ctx context.Context,
	reqLogger *logging.ContextLogger,
	gu, dong, dongNorm, ymd8 string,
	hour, day int,
	useActual bool,
	resolution models.WeatherResolution,
) (float64, float64, string) {
	if useActual {
		record, err := s.repo.HourRecord(ctx, ymd8, dongNorm, hour)
		if err != nil {
			reqLogger.Warn(ctx, "[FORECAST_HOUR_DB_ERROR] Hour record fetch failed, gap-filling", logging.Fields{
				"hour":  hour,
				"error": err.Error(),
			})
		}

		if record != nil && record.Amount != nil && record.Count != nil {
			return *record.Amount, *record.Count, models.SourceActual
		}

		amt, cnt := s.engine.Predict(ctx, gu, dong, hour, day, resolution.Temp, resolution.Rain)
		return amt, cnt, models.SourceGapFilled
	}

	amt, cnt := s.engine.Predict(ctx, gu, dong, hour, day, resolution.Temp, resolution.Rain)
	return amt, cnt, models.SourcePrediction
}
