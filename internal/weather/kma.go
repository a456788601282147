package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"sales-platform/internal/models"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

var (
	// ErrRateLimited marks an HTTP 429 from the weather API; the resolver
	// skips straight to climatology when it sees this.
	ErrRateLimited = errors.New("weather API rate limited (429)")

	// ErrMissingServiceKey is returned when a live call is attempted
	// without a configured service key.
	ErrMissingServiceKey = errors.New("KMA service key is not configured")
)

// noRainSentinel is the forecast value the API sends instead of "0mm".
const noRainSentinel = "강수없음"

// KMAClient calls the KMA near-term observation and short-term forecast
// endpoint families. Every fetch is checked against the write-through cache
// first, so repeated requests for the same day and grid cell cost nothing.
type KMAClient struct {
	serviceKey string
	baseURL    string
	stationURL string
	stationID  int
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *Cache
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// KMAConfig bundles KMAClient construction parameters
type KMAConfig struct {
	ServiceKey string
	BaseURL    string
	StationURL string
	StationID  int
	Timeout    time.Duration
}

// NewKMAClient creates a weather API client with a fixed outbound timeout
// and a circuit breaker shared across both endpoint families.
func NewKMAClient(cfg KMAConfig, cache *Cache, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *KMAClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kma",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
	})

	return &KMAClient{
		serviceKey: cfg.ServiceKey,
		baseURL:    cfg.BaseURL,
		stationURL: cfg.StationURL,
		stationID:  cfg.StationID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		cache:      cache,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// kmaForecastItem is one category entry of a nowcast or forecast response
type kmaForecastItem struct {
	Category  string `json:"category"`
	ObsrValue string `json:"obsrValue"`
	FcstDate  string `json:"fcstDate"`
	FcstValue string `json:"fcstValue"`
}

type kmaForecastResponse struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items struct {
				Item []kmaForecastItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// kmaStationItem is one daily summary row of a station observation response
type kmaStationItem struct {
	AvgTa string `json:"avgTa"`
	SumRn string `json:"sumRn"`
}

type kmaStationResponse struct {
	Response struct {
		Body struct {
			Items struct {
				Item []kmaStationItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// UltraNowcast fetches the latest near-term observation for a grid cell.
// The base time is the previous full hour, matching the API's publication
// schedule.
func (c *KMAClient) UltraNowcast(ctx context.Context, cell models.GridCell, now time.Time) (float64, float64, error) {
	today := now.Format("20060102")

	if entry, ok := c.cache.Get(today, cell.Nx, cell.Ny, SourceUltra); ok {
		c.metrics.RecordCacheHit(SourceUltra)
		return entry.Temp, entry.Rain, nil
	}
	c.metrics.RecordCacheMiss(SourceUltra)

	base := now.Add(-1 * time.Hour)
	params := url.Values{
		"pageNo":    {"1"},
		"numOfRows": {"200"},
		"dataType":  {"JSON"},
		"base_date": {base.Format("20060102")},
		"base_time": {base.Format("15") + "00"},
		"nx":        {strconv.Itoa(cell.Nx)},
		"ny":        {strconv.Itoa(cell.Ny)},
	}

	var resp kmaForecastResponse
	if err := c.getJSON(ctx, SourceUltra, c.baseURL+"/getUltraSrtNcst", params, &resp); err != nil {
		return 0, 0, err
	}

	temp, rain := 0.0, 0.0
	for _, item := range resp.Response.Body.Items.Item {
		switch item.Category {
		case "T1H":
			if v, err := strconv.ParseFloat(item.ObsrValue, 64); err == nil {
				temp = v
			}
		case "RN1":
			if v, err := strconv.ParseFloat(item.ObsrValue, 64); err == nil {
				rain = v
			}
		}
	}

	c.cache.Put(today, cell.Nx, cell.Ny, SourceUltra, temp, rain)
	return temp, rain, nil
}

// VillageForecastDayAverage fetches the short-term forecast grid and
// arithmetically averages all entries matching the target date. The request
// uses today's 05:00 publication; if that fails, yesterday's is tried once.
// A target date with no matching entries falls back to 15.0°C / 0mm.
func (c *KMAClient) VillageForecastDayAverage(ctx context.Context, cell models.GridCell, targetYMD string) (float64, float64, error) {
	if entry, ok := c.cache.Get(targetYMD, cell.Nx, cell.Ny, SourceVillage); ok {
		c.metrics.RecordCacheHit(SourceVillage)
		return entry.Temp, entry.Rain, nil
	}
	c.metrics.RecordCacheMiss(SourceVillage)

	call := func(baseDate string) (*kmaForecastResponse, error) {
		params := url.Values{
			"pageNo":    {"1"},
			"numOfRows": {"2500"},
			"dataType":  {"JSON"},
			"base_date": {baseDate},
			"base_time": {"0500"},
			"nx":        {strconv.Itoa(cell.Nx)},
			"ny":        {strconv.Itoa(cell.Ny)},
		}
		var resp kmaForecastResponse
		if err := c.getJSON(ctx, SourceVillage, c.baseURL+"/getVilageFcst", params, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	now := time.Now()
	resp, err := call(now.Format("20060102"))
	if err != nil {
		resp, err = call(now.AddDate(0, 0, -1).Format("20060102"))
		if err != nil {
			return 0, 0, fmt.Errorf("village forecast: %w", err)
		}
	}

	var temps, rains []float64
	for _, item := range resp.Response.Body.Items.Item {
		if item.FcstDate != targetYMD {
			continue
		}

		switch item.Category {
		case "TMP":
			if v, err := strconv.ParseFloat(item.FcstValue, 64); err == nil {
				temps = append(temps, v)
			}
		case "PCP":
			if v, ok := parsePrecipitation(item.FcstValue); ok {
				rains = append(rains, v)
			}
		}
	}

	temp := mean(temps, 15.0)
	rain := mean(rains, 0.0)

	c.cache.Put(targetYMD, cell.Nx, cell.Ny, SourceVillage, temp, rain)
	return temp, rain, nil
}

// StationDailyObservation fetches the daily summary observation for the
// configured surface station. The station id stands in for both grid
// coordinates in the cache key since station data is not grid-addressed.
func (c *KMAClient) StationDailyObservation(ctx context.Context, ymd8 string) (float64, float64, error) {
	if entry, ok := c.cache.Get(ymd8, c.stationID, c.stationID, SourceStationDaily); ok {
		c.metrics.RecordCacheHit(SourceStationDaily)
		return entry.Temp, entry.Rain, nil
	}
	c.metrics.RecordCacheMiss(SourceStationDaily)

	params := url.Values{
		"pageNo":    {"1"},
		"numOfRows": {"10"},
		"dataType":  {"JSON"},
		"dataCd":    {"ASOS"},
		"dateCd":    {"DAY"},
		"startDt":   {ymd8},
		"endDt":     {ymd8},
		"stnIds":    {strconv.Itoa(c.stationID)},
	}

	var resp kmaStationResponse
	if err := c.getJSON(ctx, SourceStationDaily, c.stationURL, params, &resp); err != nil {
		return 0, 0, err
	}

	items := resp.Response.Body.Items.Item
	if len(items) == 0 {
		return 0, 0, fmt.Errorf("no station observation for date %s", ymd8)
	}

	temp, _ := strconv.ParseFloat(items[0].AvgTa, 64)
	rain, _ := strconv.ParseFloat(items[0].SumRn, 64)

	c.cache.Put(ymd8, c.stationID, c.stationID, SourceStationDaily, temp, rain)
	return temp, rain, nil
}

// getJSON executes one weather API request through the circuit breaker and
// decodes the JSON body. No retry here: the retry policy lives entirely in
// the resolver's documented fallback chain.
func (c *KMAClient) getJSON(ctx context.Context, source, rawURL string, params url.Values, out interface{}) error {
	if c.serviceKey == "" {
		return ErrMissingServiceKey
	}

	params.Set("serviceKey", c.serviceKey)

	timer := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, ErrRateLimited
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode weather API response: %w", err)
		}
		return nil, nil
	})

	c.metrics.WeatherFetchDuration.WithLabelValues(source).Observe(time.Since(timer).Seconds())

	if err != nil {
		c.metrics.RecordWeatherFetch(source, "error")
		c.logger.Warn(ctx, "[WEATHER_FETCH_ERROR] Weather API call failed", logging.Fields{
			"source": source,
			"url":    rawURL,
			"error":  err.Error(),
		})
		return err
	}

	c.metrics.RecordWeatherFetch(source, "ok")
	return nil
}

// parsePrecipitation converts a forecast PCP value to millimeters. The
// "강수없음" sentinel counts as 0.0, a "미만" (less-than) qualifier counts
// as 0.0, the "mm" unit suffix is stripped, and anything unparseable is
// excluded from the averaging set rather than treated as zero.
func parsePrecipitation(val string) (float64, bool) {
	if val == "" {
		return 0, false
	}
	if val == noRainSentinel {
		return 0.0, true
	}

	v := strings.TrimSpace(strings.ReplaceAll(val, "mm", ""))
	if strings.Contains(v, "미만") {
		return 0.0, true
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func mean(vals []float64, fallback float64) float64 {
	if len(vals) == 0 {
		return fallback
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
