package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ltpboard/ltpboard/internal/database"
	"github.com/ltpboard/ltpboard/internal/domain"
)

// DefaultListLimit is used when a caller asks for a non-positive limit.
const DefaultListLimit = 500

// Repository stores portfolio history in the history database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// Record stores one entry per portfolio for a cycle, atomically.
// Recording the same cycle twice replaces the earlier rows.
func (r *Repository) Record(ctx context.Context, cycleID string, at time.Time, metrics []domain.PortfolioMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO portfolio_history
				(cycle_id, portfolio, recorded_at, total_investment, total_pnl, holdings)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, pm := range metrics {
			blob, err := encodeHoldings(pm.Snapshots)
			if err != nil {
				return fmt.Errorf("failed to encode holdings for %s: %w", pm.Name, err)
			}

			_, err = stmt.ExecContext(ctx,
				cycleID,
				pm.Name,
				at.Unix(),
				pm.Summary.TotalInvestment.String(),
				pm.Summary.TotalPnL.String(),
				blob,
			)
			if err != nil {
				return fmt.Errorf("failed to insert history for %s: %w", pm.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record cycle %s: %w", cycleID, err)
	}

	r.log.Debug().
		Str("cycle_id", cycleID).
		Int("portfolios", len(metrics)).
		Msg("Recorded history")
	return nil
}

// List returns up to limit of the most recent entries for a portfolio,
// oldest first.
func (r *Repository) List(ctx context.Context, portfolio string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT cycle_id, portfolio, recorded_at, total_investment, total_pnl, holdings
		FROM portfolio_history
		WHERE portfolio = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, portfolio, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	// Newest-first from the query; callers want chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Prune deletes every entry recorded before the cutoff and returns how many
// rows were removed.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM portfolio_history WHERE recorded_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Count returns the number of stored entries across all portfolios.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM portfolio_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e          Entry
		recordedAt int64
		investment string
		pnl        string
		blob       []byte
	)

	if err := rows.Scan(&e.CycleID, &e.Portfolio, &recordedAt, &investment, &pnl, &blob); err != nil {
		return Entry{}, fmt.Errorf("failed to scan history row: %w", err)
	}

	var err error
	if e.TotalInvestment, err = decimal.NewFromString(investment); err != nil {
		return Entry{}, fmt.Errorf("invalid total_investment %q: %w", investment, err)
	}
	if e.TotalPnL, err = decimal.NewFromString(pnl); err != nil {
		return Entry{}, fmt.Errorf("invalid total_pnl %q: %w", pnl, err)
	}
	if e.Holdings, err = decodeHoldings(blob); err != nil {
		return Entry{}, fmt.Errorf("failed to decode holdings for cycle %s: %w", e.CycleID, err)
	}
	e.RecordedAt = time.Unix(recordedAt, 0)

	return e, nil
}

func encodeHoldings(snapshots []domain.HoldingSnapshot) ([]byte, error) {
	records := make([]HoldingRecord, 0, len(snapshots))
	for _, s := range snapshots {
		records = append(records, HoldingRecord{
			Symbol:         s.Symbol,
			Quantity:       s.Quantity,
			InvestedValue:  s.InvestedValue.String(),
			LastPrice:      s.LastPrice.String(),
			CurrentValue:   s.CurrentValue.String(),
			PnL:            s.PnL.String(),
			PriceAvailable: s.PriceAvailable,
		})
	}
	return msgpack.Marshal(records)
}

func decodeHoldings(blob []byte) ([]HoldingRecord, error) {
	var records []HoldingRecord
	if err := msgpack.Unmarshal(blob, &records); err != nil {
		return nil, err
	}
	return records, nil
}
