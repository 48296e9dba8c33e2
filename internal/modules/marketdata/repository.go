package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// Repository stores daily closes.
// Database: history.db (price_history table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new price history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "price_history").Logger(),
	}
}

// Upsert writes points for asset, replacing closes already stored for the same day.
// Timestamps are truncated to the UTC day; two points on one day are rejected
// like duplicate CSV rows.
func (r *Repository) Upsert(ctx context.Context, asset string, points PriceSeries) (int, error) {
	if asset == "" {
		return 0, fmt.Errorf("asset is required")
	}
	days := make(PriceSeries, len(points))
	for i, p := range points {
		days[i] = PricePoint{Time: DayStart(p.Time), Close: p.Close}
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Time.Before(days[j].Time) })
	if err := days.Validate(); err != nil {
		return 0, fmt.Errorf("%s: %w", asset, err)
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO price_history (asset, ts, close) VALUES (?, ?, ?)
			ON CONFLICT(asset, ts) DO UPDATE SET close = excluded.close
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range days {
			if _, err := stmt.ExecContext(ctx, asset, p.Time.Unix(), p.Close); err != nil {
				return fmt.Errorf("failed to insert %s at %s: %w", asset, p.Time.Format(time.DateOnly), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Str("asset", asset).Int("points", len(points)).Msg("Stored prices")
	return len(points), nil
}

// Series returns the most recent limit closes of asset in ascending time order.
// limit <= 0 returns the full history.
func (r *Repository) Series(ctx context.Context, asset string, limit int) (PriceSeries, error) {
	query := `
		SELECT ts, close FROM (
			SELECT ts, close FROM price_history WHERE asset = ? ORDER BY ts DESC LIMIT ?
		) ORDER BY ts ASC
	`
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := r.db.QueryContext(ctx, query, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", asset, err)
	}
	defer rows.Close()

	series := make(PriceSeries, 0)
	for rows.Next() {
		var ts int64
		var p PricePoint
		if err := rows.Scan(&ts, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price for %s: %w", asset, err)
		}
		p.Time = time.Unix(ts, 0).UTC()
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prices for %s: %w", asset, err)
	}
	return series, nil
}

// Assets lists every asset with stored prices.
func (r *Repository) Assets(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT asset FROM price_history ORDER BY asset`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]string, 0)
	for rows.Next() {
		var asset string
		if err := rows.Scan(&asset); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// LoadAligned loads the history of every asset and aligns it on common days,
// keeping the most recent limit rows.
func (r *Repository) LoadAligned(ctx context.Context, assets []string, limit int) (optimization.TimeSeriesData, error) {
	series := make(map[string]PriceSeries, len(assets))
	for _, asset := range assets {
		s, err := r.Series(ctx, asset, 0)
		if err != nil {
			return optimization.TimeSeriesData{}, err
		}
		if len(s) == 0 {
			return optimization.TimeSeriesData{}, fmt.Errorf("%w: %s", ErrNoHistory, asset)
		}
		series[asset] = s
	}

	data, err := Align(series, assets, AlignOptions{})
	if err != nil {
		return optimization.TimeSeriesData{}, err
	}
	data = data.Tail(limit)

	r.log.Debug().
		Strs("assets", assets).
		Int("rows", len(data.Dates)).
		Msg("Loaded aligned price history")
	return data, nil
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
