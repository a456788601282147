package weather

import (
	"context"
	"errors"
	"strconv"
	"time"

	"sales-platform/internal/models"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// Weather source labels attached to a resolution
const (
	SourceHistorical      = "historical"
	SourceNearTerm        = "near-term-observation"
	SourceForecastAverage = "forecast-average"
	SourceForecastRecent  = "forecast-average (recent-past)"
	SourceClimatology     = "monthly-climatology"
	SourceDefault         = "default"
)

// monthlyAvgTemp is the fixed climatological fallback table: month to
// average temperature for the Suwon area. Rainfall is always 0 on this path.
var monthlyAvgTemp = map[int]float64{
	1: -2, 2: 1, 3: 7, 4: 14, 5: 19, 6: 23,
	7: 26, 8: 26, 9: 21, 10: 14, 11: 7, 12: 0,
}

const (
	defaultTemp = 15.0
	defaultRain = 0.0
)

// APIClient is the slice of the KMA client the resolver consults
type APIClient interface {
	UltraNowcast(ctx context.Context, cell models.GridCell, now time.Time) (float64, float64, error)
	VillageForecastDayAverage(ctx context.Context, cell models.GridCell, targetYMD string) (float64, float64, error)
}

// HistoricalWeather answers whether an authoritative day-level observation
// exists in the sales history store. A nil result means absent.
type HistoricalWeather interface {
	DayWeatherAverage(ctx context.Context, ymd8, dong string) (*models.DayWeather, error)
}

// Resolver arbitrates among the weather data sources for a target date:
// historical record, live nowcast, forecast average, or climatology, in
// that priority order, degrading gracefully at every failure point.
type Resolver struct {
	client  APIClient
	history HistoricalWeather
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewResolver creates a weather resolver
func NewResolver(client APIClient, history HistoricalWeather, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Resolver {
	return &Resolver{
		client:  client,
		history: history,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Resolve picks a weather source for (date, grid cell) and returns a usable
// (temperature, rainfall, label) triple. It never fails past its own
// boundary: any upstream error ends in a fallback value with a diagnostic
// in the Err field.
func (r *Resolver) Resolve(ctx context.Context, ymd8, dongNorm string, cell models.GridCell, now time.Time) models.WeatherResolution {
	// Branch 1: authoritative historical observation wins outright.
	dayWeather, err := r.history.DayWeatherAverage(ctx, ymd8, dongNorm)
	if err != nil {
		// Store trouble is recoverable here; the chain continues.
		r.logger.Warn(ctx, "[WEATHER_HISTORY_ERROR] Historical weather lookup failed", logging.Fields{
			"date":  ymd8,
			"dong":  dongNorm,
			"error": err.Error(),
		})
	} else if dayWeather != nil {
		return models.WeatherResolution{
			Temp:   dayWeather.Temp,
			Rain:   dayWeather.Rain,
			Source: SourceHistorical,
		}
	}

	today := now.Format("20060102")
	weekAgo := now.AddDate(0, 0, -7).Format("20060102")

	var (
		temp, rain float64
		source     string
		fetchErr   error
	)

	switch {
	case ymd8 == today:
		temp, rain, fetchErr = r.client.UltraNowcast(ctx, cell, now)
		source = SourceNearTerm
	case ymd8 > today:
		temp, rain, fetchErr = r.client.VillageForecastDayAverage(ctx, cell, ymd8)
		source = SourceForecastAverage
	case ymd8 >= weekAgo:
		// Recent past: the forecast grid still covers it, best effort.
		temp, rain, fetchErr = r.client.VillageForecastDayAverage(ctx, cell, ymd8)
		source = SourceForecastRecent
	default:
		// Older than a week: fixed monthly table, no network call.
		return r.climatology(ymd8, "")
	}

	if fetchErr == nil {
		return models.WeatherResolution{Temp: temp, Rain: rain, Source: source}
	}

	r.logger.Warn(ctx, "[WEATHER_RESOLVE_ERROR] Primary weather source failed", logging.Fields{
		"date":   ymd8,
		"source": source,
		"error":  fetchErr.Error(),
	})

	// Rate limiting skips the secondary attempt entirely.
	if errors.Is(fetchErr, ErrRateLimited) {
		r.metrics.RecordWeatherFallback("rate_limited")
		return r.climatology(ymd8, ErrRateLimited.Error())
	}

	// Secondary fallback: one more forecast-average attempt.
	temp, rain, retryErr := r.client.VillageForecastDayAverage(ctx, cell, ymd8)
	if retryErr == nil {
		r.metrics.RecordWeatherFallback("forecast_retry")
		return models.WeatherResolution{
			Temp:   temp,
			Rain:   rain,
			Source: SourceForecastAverage,
			Err:    fetchErr.Error(),
		}
	}

	// Last resort: hardcoded defaults, both failure messages surfaced.
	r.metrics.RecordWeatherFallback("default")
	r.logger.Warn(ctx, "[WEATHER_DEFAULT] All weather sources failed, using defaults", logging.Fields{
		"date":        ymd8,
		"temp":        defaultTemp,
		"rain":        defaultRain,
		"first_error": fetchErr.Error(),
		"retry_error": retryErr.Error(),
	})
	return models.WeatherResolution{
		Temp:   defaultTemp,
		Rain:   defaultRain,
		Source: SourceDefault,
		Err:    fetchErr.Error() + " | " + retryErr.Error(),
	}
}

// climatology resolves from the fixed month table. errTag, when set, marks
// why a live source was abandoned.
func (r *Resolver) climatology(ymd8, errTag string) models.WeatherResolution {
	temp := defaultTemp
	if len(ymd8) >= 6 {
		if month, err := strconv.Atoi(ymd8[4:6]); err == nil {
			if t, ok := monthlyAvgTemp[month]; ok {
				temp = t
			}
		}
	}

	return models.WeatherResolution{
		Temp:   temp,
		Rain:   0.0,
		Source: SourceClimatology,
		Err:    errTag,
	}
}
