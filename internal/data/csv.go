// Package data loads and validates daily price history for the engine:
// CSV cache files on disk, universe symbol lists, and a store-backed
// provider reading bars from ClickHouse.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"equity-strategy-lab/internal/domain"
)

// ErrBadCSV indicates a malformed price cache file.
var ErrBadCSV = errors.New("malformed price csv")

const dateLayout = "2006-01-02"

// LoadCSV reads one symbol's daily bars from a cache file with the header
// date,open,high,low,close,volume. Rows must already be in date order; the
// caller validates ordering and gaps via PriceSeries.Validate.
func LoadCSV(path string) (domain.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV parses price bars from a reader. See LoadCSV for the format.
func ParseCSV(r io.Reader) (domain.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 6

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header", ErrBadCSV)
	}
	if !strings.EqualFold(header[0], "date") {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrBadCSV, strings.Join(header, ","))
	}

	var series domain.PriceSeries
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line+1, err)
		}
		line++

		bar, err := parseBar(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line, err)
		}
		series = append(series, bar)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrBadCSV)
	}
	return series, nil
}

func parseBar(record []string) (domain.PriceBar, error) {
	var bar domain.PriceBar

	date, err := time.Parse(dateLayout, strings.TrimSpace(record[0]))
	if err != nil {
		return bar, fmt.Errorf("bad date %q", record[0])
	}
	bar.Date = date.UTC()

	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
		if err != nil || v <= 0 {
			return bar, fmt.Errorf("bad %s %q", f.name, record[i+1])
		}
		*f.dst = v
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64)
	if err != nil || volume < 0 {
		return bar, fmt.Errorf("bad volume %q", record[5])
	}
	bar.Volume = volume

	return bar, nil
}
