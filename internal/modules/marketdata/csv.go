package marketdata

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
)

// csvRow is one line of a price file: date,asset,close
type csvRow struct {
	Date  string  `csv:"date"`
	Asset string  `csv:"asset"`
	Close float64 `csv:"close"`
}

var csvDateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02 15:04:05"}

// LoadCSV reads date,asset,close rows into per-asset series sorted by time.
// Duplicate (asset, day) rows are rejected.
func LoadCSV(r io.Reader) (map[string]PriceSeries, error) {
	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse price csv: %w", err)
	}

	series := make(map[string]PriceSeries)
	for i, row := range rows {
		asset := strings.ToUpper(strings.TrimSpace(row.Asset))
		if asset == "" {
			return nil, fmt.Errorf("row %d: asset is empty", i+2)
		}
		ts, err := parseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		series[asset] = append(series[asset], PricePoint{Time: DayStart(ts), Close: row.Close})
	}

	for asset, s := range series {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", asset, err)
		}
	}
	return series, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}
