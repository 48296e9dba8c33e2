package marketdata

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// AlignOptions controls how series with different timestamps are combined.
type AlignOptions struct {
	// ForwardFill keeps every timestamp of any asset and carries the last
	// known close over gaps. Rows before an asset's first close are dropped.
	// When false only timestamps present in every series are kept.
	ForwardFill bool
	// FillStep, when positive, fills each series to one close per step
	// (see FillMissing) before timestamps are matched across assets.
	FillStep time.Duration
}

// Align combines per-asset series into aligned price columns. Rows where any
// asset has a non-positive close are dropped.
func Align(series map[string]PriceSeries, assets []string, opts AlignOptions) (optimization.TimeSeriesData, error) {
	if len(assets) == 0 {
		return optimization.TimeSeriesData{}, optimization.ErrEmptyAssetUniverse
	}

	prepared := make(map[string]PriceSeries, len(assets))
	lookup := make(map[string]map[int64]float64, len(assets))
	for _, asset := range assets {
		if _, dup := lookup[asset]; dup {
			return optimization.TimeSeriesData{}, fmt.Errorf("%w: %s", optimization.ErrDuplicateAsset, asset)
		}
		s, ok := series[asset]
		if !ok || len(s) == 0 {
			return optimization.TimeSeriesData{}, fmt.Errorf("%w: %s", optimization.ErrUnknownAsset, asset)
		}
		if err := checkOrder(s); err != nil {
			return optimization.TimeSeriesData{}, fmt.Errorf("%s: %w", asset, err)
		}
		if opts.FillStep > 0 {
			s = FillMissing(s, opts.FillStep)
		}
		prepared[asset] = s
		m := make(map[int64]float64, len(s))
		for _, p := range s {
			m[p.Time.Unix()] = p.Close
		}
		lookup[asset] = m
	}

	var stamps []int64
	if opts.ForwardFill {
		stamps = unionStamps(prepared, assets)
	} else {
		stamps = intersectStamps(prepared, assets)
	}

	data := optimization.TimeSeriesData{Data: make(map[string][]float64, len(assets))}
	last := make(map[string]float64, len(assets))

	for _, ts := range stamps {
		row := make([]float64, len(assets))
		usable := true
		for i, asset := range assets {
			v, ok := lookup[asset][ts]
			if ok {
				last[asset] = v
			} else {
				v = last[asset]
			}
			if v <= 0 {
				usable = false
			}
			row[i] = v
		}
		if !usable {
			continue
		}
		data.Dates = append(data.Dates, time.Unix(ts, 0).UTC())
		for i, asset := range assets {
			data.Data[asset] = append(data.Data[asset], row[i])
		}
	}

	for _, asset := range assets {
		if data.Data[asset] == nil {
			data.Data[asset] = []float64{}
		}
	}
	return data, nil
}

// FillMissing returns a copy of s with one point per step between its first
// and last timestamps, carrying the last close forward over gaps.
func FillMissing(s PriceSeries, step time.Duration) PriceSeries {
	if len(s) == 0 || step <= 0 {
		return s
	}
	out := make(PriceSeries, 0, len(s))
	out = append(out, s[0])
	for i := 1; i < len(s); i++ {
		prev := out[len(out)-1]
		for t := prev.Time.Add(step); t.Before(s[i].Time); t = t.Add(step) {
			out = append(out, PricePoint{Time: t, Close: prev.Close})
		}
		out = append(out, s[i])
	}
	return out
}

// ParseSymbols splits a comma separated symbol list, trimming blanks,
// upper-casing and dropping duplicates while keeping first-seen order.
func ParseSymbols(raw string) []string {
	seen := make(map[string]bool)
	symbols := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols
}

func checkOrder(s PriceSeries) error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: %s follows %s", ErrUnorderedSeries,
				s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

func unionStamps(series map[string]PriceSeries, assets []string) []int64 {
	set := make(map[int64]struct{})
	for _, asset := range assets {
		for _, p := range series[asset] {
			set[p.Time.Unix()] = struct{}{}
		}
	}
	stamps := make([]int64, 0, len(set))
	for ts := range set {
		stamps = append(stamps, ts)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	return stamps
}

func intersectStamps(series map[string]PriceSeries, assets []string) []int64 {
	counts := make(map[int64]int)
	for _, asset := range assets {
		for _, p := range series[asset] {
			counts[p.Time.Unix()]++
		}
	}
	stamps := make([]int64, 0, len(counts))
	for ts, n := range counts {
		if n == len(assets) {
			stamps = append(stamps, ts)
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
	return stamps
}
