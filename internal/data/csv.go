package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DorukKorkmaz/crypto-backtest/internal/signal"
)

// DefaultLayout matches exported candle files: "2017-09-01 00:00:00".
const DefaultLayout = "2006-01-02 15:04:05"

// Path expands {symbol} in pattern and joins it onto dir.
func Path(dir, pattern, symbol string) string {
	return filepath.Join(dir, strings.ReplaceAll(pattern, "{symbol}", symbol))
}

// LoadCSV reads datetime,open,high,low,close,volume rows. A leading header row is skipped;
// empty or "null" fields load as zero and later show up as defective bars.
func LoadCSV(path, symbol, layout string) (Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open %s: %w", symbol, err)
	}
	defer file.Close()
	return ReadCSV(file, symbol, layout)
}

// ReadCSV parses candles from r. See LoadCSV.
func ReadCSV(r io.Reader, symbol, layout string) (Series, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	series := Series{Symbol: symbol}
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("%s line %d: %w", symbol, line, err)
		}
		if len(rec) < 6 {
			return Series{}, fmt.Errorf("%s line %d: expected 6 fields, got %d", symbol, line, len(rec))
		}
		ts, err := time.Parse(layout, strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return Series{}, fmt.Errorf("%s line %d: %w", symbol, line, err)
		}
		var vals [5]float64
		for j := range vals {
			if vals[j], err = parseField(rec[j+1]); err != nil {
				return Series{}, fmt.Errorf("%s line %d field %d: %w", symbol, line, j+1, err)
			}
		}
		series.Bars = append(series.Bars, signal.Bar{
			Time:   ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return series, nil
}

func parseField(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// LoadAll reads one file per symbol concurrently. It returns the series that loaded, in symbol
// order, together with the joined errors of those that did not.
func LoadAll(ctx context.Context, dir, pattern, layout string, symbols []string) ([]Series, error) {
	loaded := make([]Series, len(symbols))
	errs := make([]error, len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded[i], errs[i] = LoadCSV(Path(dir, pattern, sym), sym, layout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Series, 0, len(symbols))
	for i := range symbols {
		if errs[i] == nil {
			out = append(out, loaded[i])
		}
	}
	return out, errors.Join(errs...)
}
