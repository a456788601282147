package prediction

import (
	"context"
	"time"

	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// schemaVariants is the ordered list of supported feature combinations,
// richest district-level schema first, region-augmented and rainfall-free
// reductions after. The first variant the slot's model was fitted on wins.
var schemaVariants = [][]string{
	{FeatureDong, FeatureDay, FeatureTemp, FeatureRain},
	{FeatureGu, FeatureDong, FeatureDay, FeatureTemp, FeatureRain},
	{FeatureDong, FeatureDay, FeatureTemp},
	{FeatureGu, FeatureDong, FeatureDay, FeatureTemp},
}

// Engine wraps the per-hour trained models. A malformed feature combination
// must never abort a request: if no schema variant matches, the prediction
// degrades to zero.
type Engine struct {
	models  map[int]*Model
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewEngine creates a prediction engine over per-hour models loaded at
// startup via LoadModels.
func NewEngine(hourModels map[int]*Model, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Engine {
	return &Engine{
		models:  hourModels,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Predict estimates (amount, count) for one hour slot. Both outputs are
// clamped to zero from below; degenerate inputs yield degenerate but valid
// estimates, never an error.
func (e *Engine) Predict(ctx context.Context, gu, dong string, hour, day int, temp, rain float64) (float64, float64) {
	timer := time.Now()
	defer func() {
		e.metrics.PredictionDuration.Observe(time.Since(timer).Seconds())
	}()

	model, ok := e.models[hour]
	if !ok {
		return 0.0, 0.0
	}

	features := Features{
		Gu:   gu,
		Dong: dong,
		Day:  day,
		Temp: temp,
		Rain: rain,
	}

	for _, variant := range schemaVariants {
		if !model.Supports(variant) {
			continue
		}

		amt, cnt := model.Predict(features)
		if amt < 0 {
			amt = 0.0
		}
		if cnt < 0 {
			cnt = 0.0
		}
		return amt, cnt
	}

	// No variant matched the model's schema; degrade rather than fail.
	e.metrics.PredictionFallbacksTotal.Inc()
	e.logger.Warn(ctx, "[PREDICT_SCHEMA_MISMATCH] No feature schema variant matched, returning zero", logging.Fields{
		"hour":         hour,
		"model_schema": model.SchemaString(),
	})
	return 0.0, 0.0
}

// Hours returns the number of hour slots the engine has models for
func (e *Engine) Hours() int {
	return len(e.models)
}
