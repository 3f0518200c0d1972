package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, label, instrument, direction, margin_size, entry_price, exit_price,
	stop_loss, pips, realized_pl, fee, outcome, open_time, close_time, reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.TradeID,
		&rec.Label,
		&rec.Instrument,
		&rec.Direction,
		&rec.MarginSize,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopLoss,
		&rec.Pips,
		&rec.RealizedPL,
		&rec.Fee,
		&rec.Outcome,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.Reason,
	)
	return rec, err
}

func (j *SQLite) queryTrades(query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByLabel returns the trades of one strategy in close order.
func (j *SQLite) ListTradesByLabel(label string) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades
		WHERE label = ?
		ORDER BY close_time ASC`, label)
}

// ListTrades returns every trade in close order.
func (j *SQLite) ListTrades() ([]TradeRecord, error) {
	return j.queryTrades(`SELECT ` + tradeColumns + ` FROM trades ORDER BY close_time ASC`)
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`SELECT `+tradeColumns+` FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
}

// ListEquityBetween returns snapshots taken within [start, end).
func (j *SQLite) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, total_margin, available_margin, used_margin, high_water, low_water
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.Time,
			&e.TotalMargin,
			&e.AvailableMargin,
			&e.UsedMargin,
			&e.HighWater,
			&e.LowWater,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LabelStats is the win/loss tally of one strategy label.
type LabelStats struct {
	Label  string
	Wins   int
	Losses int
	NetPL  float64
}

// StatsByLabel aggregates closed trades per label.
func (j *SQLite) StatsByLabel() ([]LabelStats, error) {
	rows, err := j.db.Query(`
		SELECT label,
			SUM(CASE WHEN outcome = 'win' THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = 'win' THEN 0 ELSE 1 END),
			SUM(realized_pl - fee)
		FROM trades
		GROUP BY label
		ORDER BY label ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LabelStats
	for rows.Next() {
		var s LabelStats
		if err := rows.Scan(&s.Label, &s.Wins, &s.Losses, &s.NetPL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
