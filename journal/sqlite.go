package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, label, instrument, direction, margin_size, entry_price, exit_price, stop_loss,
		 pips, realized_pl, fee, outcome, open_time, close_time, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Label, t.Instrument, t.Direction, t.MarginSize, t.EntryPrice,
		t.ExitPrice, t.StopLoss, t.Pips, t.RealizedPL, t.Fee, t.Outcome,
		t.OpenTime, t.CloseTime, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, total_margin, available_margin, used_margin, high_water, low_water)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time, e.TotalMargin, e.AvailableMargin, e.UsedMargin, e.HighWater, e.LowWater,
	)
	return err
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, dataset, bars, start_balance, end_balance, high_water, low_water,
		 trades, wins, losses, pips)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Dataset, r.Bars, r.StartBalance, r.EndBalance,
		r.HighWater, r.LowWater, r.Trades, r.Wins, r.Losses, r.Pips,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
