package models

import (
	"fmt"
	"strconv"
	"time"
)

// HourSlots is the fixed number of time-of-day buckets a day is divided into.
const HourSlots = 10

// TimeLabels maps an hour slot to its wall-clock range. The buckets are
// unequal-width on purpose: slot 1 covers the low-traffic night hours and
// slot 10 the last hour before midnight.
var TimeLabels = map[int]string{
	1:  "00:00 ~ 06:59",
	2:  "07:00 ~ 08:59",
	3:  "09:00 ~ 10:59",
	4:  "11:00 ~ 12:59",
	5:  "13:00 ~ 14:59",
	6:  "15:00 ~ 16:59",
	7:  "17:00 ~ 18:59",
	8:  "19:00 ~ 20:59",
	9:  "21:00 ~ 22:59",
	10: "23:00 ~ 23:59",
}

// Value source tags for a single hour slot result.
const (
	SourceActual       = "actual"
	SourceGapFilled    = "prediction-gap-filled"
	SourcePrediction   = "prediction"
	DataTypeActual     = "actual"
	DataTypePrediction = "prediction"
)

// GridCell identifies a KMA weather-model grid cell for a geographic area.
// Loaded once at process start from the bundled location mapping.
type GridCell struct {
	Nx int `json:"nx"`
	Ny int `json:"ny"`
}

// HourlySalesRecord is one ground-truth row from the sales history store.
// NULL numeric columns are represented as nil pointers so a missing amount
// is distinguishable from a zero one.
type HourlySalesRecord struct {
	Amount *float64 `db:"amt" json:"amount,omitempty"`
	Count  *float64 `db:"cnt" json:"count,omitempty"`
	Temp   *float64 `db:"temp" json:"temp,omitempty"`
	Rain   *float64 `db:"rain" json:"rain,omitempty"`
}

// DayWeather is the day-level average weather derived from historical rows
type DayWeather struct {
	Temp float64 `db:"avg_temp"`
	Rain float64 `db:"avg_rain"`
}

// SalesRow is a full row of the sales history table, used during ingestion
type SalesRow struct {
	TaYmd  string   `db:"ta_ymd"`
	Dong   string   `db:"dong"`
	Hour   int      `db:"hour"`
	Day    int      `db:"day"`
	Amount *float64 `db:"amt"`
	Count  *float64 `db:"cnt"`
	Unit   string   `db:"unit"`
	Temp   *float64 `db:"temp"`
	Rain   *float64 `db:"rain"`
}

// WeatherResolution is the day-level weather a request resolves to, with the
// source label of the chain branch that produced it. Err carries a non-fatal
// diagnostic when a fallback was taken; the values are always usable.
type WeatherResolution struct {
	Temp   float64 `json:"temp"`
	Rain   float64 `json:"rain"`
	Source string  `json:"source"`
	Err    string  `json:"error,omitempty"`
}

// HourlyResult is one of the ten per-slot entries of a day result
type HourlyResult struct {
	Hour      int    `json:"hour"`
	HourLabel string `json:"hour_label"`
	AmountStr string `json:"amount"`
	CountStr  string `json:"count"`
	Source    string `json:"source"`
}

// DayResult is the unified response for one (district, date) request:
// exactly HourSlots entries in ascending hour order plus running totals
// and the resolved day-level weather.
type DayResult struct {
	Gu             string            `json:"gu"`
	Dong           string            `json:"dong"`
	DongNormalized string            `json:"dong_normalized"`
	Date           string            `json:"date"`
	DayOfWeek      int               `json:"day_of_week"`
	Grid           GridCell          `json:"grid"`
	Weather        WeatherResolution `json:"weather"`
	DataType       string            `json:"data_type"`
	Results        []HourlyResult    `json:"results"`
	TotalAmount    int64             `json:"total_amount"`
	TotalCount     int64             `json:"total_count"`
	TotalAmountStr string            `json:"total_amount_str"`
	TotalCountStr  string            `json:"total_count_str"`
}

// FormatAmount renders an amount as a comma-grouped won string, e.g. "1,234,567원"
func FormatAmount(v int64) string {
	return groupDigits(v) + "원"
}

// FormatCount renders a transaction count as a comma-grouped string, e.g. "1,234건"
func FormatCount(v int64) string {
	return groupDigits(v) + "건"
}

func groupDigits(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var out []byte
	lead := n % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < n; i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}

	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// DayOfWeek returns the 1-based weekday of a YYYYMMDD date, Monday=1 ... Sunday=7
func DayOfWeek(ymd8 string) (int, error) {
	dt, err := time.Parse("20060102", ymd8)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", ymd8, err)
	}
	wd := int(dt.Weekday()) // Sunday=0
	if wd == 0 {
		return 7, nil
	}
	return wd, nil
}
