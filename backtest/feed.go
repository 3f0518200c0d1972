package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Feed yields bars in time order and returns (ok=false, err=nil) at the
// end.
type Feed interface {
	Next() (b Bar, ok bool, err error)
	Close() error
}

// SliceFeed replays bars held in memory.
type SliceFeed struct {
	bars []Bar
	i    int
}

func NewSliceFeed(bars ...Bar) *SliceFeed {
	return &SliceFeed{bars: bars}
}

func (f *SliceFeed) Next() (Bar, bool, error) {
	if f.i >= len(f.bars) {
		return Bar{}, false, nil
	}
	b := f.bars[f.i]
	f.i++
	return b, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// priceColumns is the fixed head of every bar row; any further columns
// are signals named by the header.
var priceColumns = []string{
	"time",
	"bid_open", "bid_high", "bid_low", "bid_close",
	"ask_open", "ask_high", "ask_low", "ask_close",
}

// CSVFeed reads bar rows:
//
//	time,bid_open,bid_high,bid_low,bid_close,ask_open,ask_high,ask_low,ask_close[,label...]
//
// where time is RFC3339 and every extra column holds the signal of the
// strategy named in the header. The header row is required. Bars outside
// [From, To) are skipped when the bounds are set.
type CSVFeed struct {
	c      io.Closer
	r      *csv.Reader
	labels []string
	from   time.Time
	to     time.Time
}

func NewCSVFeed(path string, from, to time.Time) (*CSVFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	feed, err := NewCSVFeedReader(f, from, to)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	feed.c = f
	return feed, nil
}

// NewCSVFeedReader reads the header from r straight away.
func NewCSVFeedReader(r io.Reader, from, to time.Time) (*CSVFeed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(priceColumns) {
		return nil, fmt.Errorf("header has %d columns, want at least %d", len(header), len(priceColumns))
	}
	for i, want := range priceColumns {
		if got := strings.ToLower(strings.TrimSpace(header[i])); got != want {
			return nil, fmt.Errorf("header column %d is %q, want %q", i+1, got, want)
		}
	}
	labels := make([]string, 0, len(header)-len(priceColumns))
	for _, h := range header[len(priceColumns):] {
		labels = append(labels, strings.TrimSpace(h))
	}

	return &CSVFeed{r: cr, labels: labels, from: from, to: to}, nil
}

// Labels are the signal columns found in the header.
func (f *CSVFeed) Labels() []string { return f.labels }

func (f *CSVFeed) Close() error {
	if f.c != nil {
		return f.c.Close()
	}
	return nil
}

func (f *CSVFeed) Next() (Bar, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Bar{}, false, nil
		}
		if err != nil {
			return Bar{}, false, err
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		b, err := f.parseRow(row)
		if err != nil {
			line, _ := f.r.FieldPos(0)
			return Bar{}, false, fmt.Errorf("line %d: %w", line, err)
		}
		if !inRange(b.Time, f.from, f.to) {
			continue
		}
		return b, true, nil
	}
}

func (f *CSVFeed) parseRow(row []string) (Bar, error) {
	if len(row) < len(priceColumns) {
		return Bar{}, fmt.Errorf("row has %d columns, want at least %d", len(row), len(priceColumns))
	}

	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return Bar{}, fmt.Errorf("bad time %q: %w", ts, err)
	}

	var p [8]float64
	for i := range p {
		cell := strings.TrimSpace(row[i+1])
		p[i], err = strconv.ParseFloat(cell, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", priceColumns[i+1], cell, err)
		}
	}

	b := Bar{
		Time:    t,
		Bid:     OHLC{Open: p[0], High: p[1], Low: p[2], Close: p[3]},
		Ask:     OHLC{Open: p[4], High: p[5], Low: p[6], Close: p[7]},
		Signals: make(map[string]Signal, len(f.labels)),
	}
	for i, label := range f.labels {
		col := len(priceColumns) + i
		if col >= len(row) {
			break
		}
		s, err := ParseSignal(row[col])
		if err != nil {
			return Bar{}, fmt.Errorf("%s: %w", label, err)
		}
		b.Signals[label] = s
	}
	return b, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
