package storage

// sqlite.go — on-disk cache of fetched history plus persisted reports.
//
// Strategy:
//   - series tables (`markets`, `candles`, `token_prices`, `vol_points`,
//     `oracle_prices`): one row per sample, upserted on fetch so repeated
//     sweeps over the same range never refetch.
//   - `reports`: one row per optimizer run — a light summary for
//     listing plus the full report JSON for later inspection.
//   - Prune at startup: reports older than 90 days. Series data is
//     kept; it is the expensive part to rebuild.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/polysim/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    id            TEXT PRIMARY KEY,
    strike        REAL    NOT NULL,
    start_ms      INTEGER NOT NULL,
    end_ms        INTEGER NOT NULL,
    up_token_id   TEXT    NOT NULL,
    down_token_id TEXT    NOT NULL,
    outcome       TEXT
);

CREATE TABLE IF NOT EXISTS candles (
    ts     INTEGER PRIMARY KEY,
    open   REAL NOT NULL,
    high   REAL NOT NULL,
    low    REAL NOT NULL,
    close  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS token_prices (
    token_id TEXT    NOT NULL,
    ts       INTEGER NOT NULL,
    price    REAL    NOT NULL,
    PRIMARY KEY (token_id, ts)
);

CREATE TABLE IF NOT EXISTS vol_points (
    ts  INTEGER PRIMARY KEY,
    vol REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS oracle_prices (
    ts    INTEGER PRIMARY KEY,
    price REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
    run_id        TEXT PRIMARY KEY,
    generated_at  DATETIME NOT NULL,
    from_ms       INTEGER  NOT NULL,
    to_ms         INTEGER  NOT NULL,
    grid_size     INTEGER  NOT NULL,
    gate_survivors INTEGER NOT NULL,
    no_viable     INTEGER  NOT NULL DEFAULT 0,
    winner_edge   REAL,
    winner_frac   REAL,
    winner_score  REAL,
    payload       TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_markets_start ON markets(start_ms);
CREATE INDEX IF NOT EXISTS idx_reports_at    ON reports(generated_at DESC);
`

const reportRetention = 90 * 24 * time.Hour

// SQLiteStorage implements ports.HistoryCache and ports.ReportStore
// using SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// New opens (or creates) the database at the given path, applies the
// schema and prunes stale reports.
func New(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.New: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.New: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-reportRetention)
	s.db.ExecContext(ctx, `DELETE FROM reports WHERE generated_at < ?`, cutoff)
}

// Close closes the database cleanly.
func (s *SQLiteStorage) Close() error { return s.db.Close() }

// SaveHistory upserts a full history snapshot into the cache.
func (s *SQLiteStorage) SaveHistory(ctx context.Context, hist *domain.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveHistory: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, m := range hist.Markets {
		var outcome *string
		if m.Resolved != nil {
			o := string(*m.Resolved)
			outcome = &o
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO markets (id, strike, start_ms, end_ms, up_token_id, down_token_id, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET outcome = excluded.outcome`,
			m.ID, m.Strike, m.StartTime, m.EndTime, m.UpTokenID, m.DownTokenID, outcome,
		); err != nil {
			return fmt.Errorf("storage.SaveHistory: market %s: %w", m.ID, err)
		}
	}

	for _, c := range hist.Candles {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO candles (ts, open, high, low, close) VALUES (?, ?, ?, ?, ?)`,
			c.Timestamp, c.Open, c.High, c.Low, c.Close,
		); err != nil {
			return fmt.Errorf("storage.SaveHistory: candle: %w", err)
		}
	}

	for tokenID, pts := range hist.Prices {
		for _, p := range pts {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO token_prices (token_id, ts, price) VALUES (?, ?, ?)`,
				tokenID, p.Timestamp, p.Price,
			); err != nil {
				return fmt.Errorf("storage.SaveHistory: price: %w", err)
			}
		}
	}

	for _, v := range hist.ImpliedVol {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO vol_points (ts, vol) VALUES (?, ?)`,
			v.Timestamp, v.Vol,
		); err != nil {
			return fmt.Errorf("storage.SaveHistory: vol: %w", err)
		}
	}

	for _, o := range hist.Oracle {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO oracle_prices (ts, price) VALUES (?, ?)`,
			o.Timestamp, o.Price,
		); err != nil {
			return fmt.Errorf("storage.SaveHistory: oracle: %w", err)
		}
	}

	return tx.Commit()
}

// LoadHistory reads the cached snapshot covering [from, to). Candles
// are loaded with a 4h lookback margin so the vol windows at the start
// of the range have history to work with.
func (s *SQLiteStorage) LoadHistory(ctx context.Context, from, to int64) (*domain.History, error) {
	const lookbackMS = 4 * 60 * 60 * 1000
	hist := &domain.History{Prices: make(map[string][]domain.PricePoint)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, strike, start_ms, end_ms, up_token_id, down_token_id, outcome
		FROM markets WHERE start_ms >= ? AND start_ms < ? ORDER BY start_ms`, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: markets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.Market
		var outcome sql.NullString
		if err := rows.Scan(&m.ID, &m.Strike, &m.StartTime, &m.EndTime, &m.UpTokenID, &m.DownTokenID, &outcome); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan market: %w", err)
		}
		if outcome.Valid {
			o := domain.Outcome(outcome.String)
			m.Resolved = &o
		}
		hist.Markets = append(hist.Markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: markets: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close FROM candles
		WHERE ts >= ? AND ts < ? ORDER BY ts`, from-lookbackMS, to)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: candles: %w", err)
	}
	defer crows.Close()
	for crows.Next() {
		var c domain.Candle
		if err := crows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan candle: %w", err)
		}
		hist.Candles = append(hist.Candles, c)
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: candles: %w", err)
	}

	prows, err := s.db.QueryContext(ctx, `
		SELECT token_id, ts, price FROM token_prices
		WHERE ts >= ? AND ts < ? ORDER BY token_id, ts`, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: prices: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var tokenID string
		var p domain.PricePoint
		if err := prows.Scan(&tokenID, &p.Timestamp, &p.Price); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan price: %w", err)
		}
		hist.Prices[tokenID] = append(hist.Prices[tokenID], p)
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: prices: %w", err)
	}

	vrows, err := s.db.QueryContext(ctx, `
		SELECT ts, vol FROM vol_points WHERE ts >= ? AND ts < ? ORDER BY ts`, from-lookbackMS, to)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: vol: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var v domain.VolPoint
		if err := vrows.Scan(&v.Timestamp, &v.Vol); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan vol: %w", err)
		}
		hist.ImpliedVol = append(hist.ImpliedVol, v)
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: vol: %w", err)
	}

	orows, err := s.db.QueryContext(ctx, `
		SELECT ts, price FROM oracle_prices WHERE ts >= ? AND ts < ? ORDER BY ts`, from, to)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: oracle: %w", err)
	}
	defer orows.Close()
	for orows.Next() {
		var o domain.PricePoint
		if err := orows.Scan(&o.Timestamp, &o.Price); err != nil {
			return nil, fmt.Errorf("storage.LoadHistory: scan oracle: %w", err)
		}
		hist.Oracle = append(hist.Oracle, o)
	}
	if err := orows.Err(); err != nil {
		return nil, fmt.Errorf("storage.LoadHistory: oracle: %w", err)
	}

	return hist, nil
}

// SaveReport persists one optimizer run: summary columns for listing,
// full JSON payload for inspection.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *domain.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("storage.SaveReport: marshal: %w", err)
	}

	var winnerEdge, winnerFrac, winnerScore *float64
	if report.Winner != nil {
		winnerEdge = &report.Winner.Cell.MinEdge
		winnerFrac = &report.Winner.Cell.Fraction
		winnerScore = &report.Winner.Score
	}
	noViable := 0
	if report.NoViable {
		noViable = 1
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
			(run_id, generated_at, from_ms, to_ms, grid_size, gate_survivors,
			 no_viable, winner_edge, winner_frac, winner_score, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.GeneratedAt, report.From, report.To,
		report.GridSize, report.GateSurvivors, noViable,
		winnerEdge, winnerFrac, winnerScore, string(payload),
	); err != nil {
		return fmt.Errorf("storage.SaveReport: insert: %w", err)
	}
	return nil
}

// LoadReport returns a persisted report by run ID.
func (s *SQLiteStorage) LoadReport(ctx context.Context, runID string) (*domain.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE run_id = ?`, runID,
	).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadReport: %q: %w", runID, err)
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("storage.LoadReport: unmarshal %q: %w", runID, err)
	}
	return &report, nil
}
