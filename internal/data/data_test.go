package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"equity-strategy-lab/internal/domain"
	"equity-strategy-lab/internal/storage/memory"
)

const sampleCSV = `date,open,high,low,close,volume
2024-01-02,100.0,102.0,99.0,101.0,100000
2024-01-03,101.0,103.0,100.5,102.5,110000
2024-01-04,102.5,104.0,101.0,103.0,90000
`

func TestParseCSV(t *testing.T) {
	series, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	if len(series) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(series))
	}
	first := series[0]
	if !first.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("wrong date: %s", first.Date)
	}
	if first.Open != 100 || first.High != 102 || first.Low != 99 || first.Close != 101 {
		t.Errorf("wrong OHLC: %+v", first)
	}
	if first.Volume != 100000 {
		t.Errorf("wrong volume: %d", first.Volume)
	}
}

func TestParseCSV_RejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"bad header":     "foo,bar\n",
		"bad date":       "date,open,high,low,close,volume\nnot-a-date,1,1,1,1,1\n",
		"negative price": "date,open,high,low,close,volume\n2024-01-02,-5,1,1,1,1\n",
		"bad volume":     "date,open,high,low,close,volume\n2024-01-02,1,1,1,1,abc\n",
		"empty file":     "date,open,high,low,close,volume\n",
	}
	for name, content := range cases {
		if _, err := ParseCSV(strings.NewReader(content)); !errors.Is(err, ErrBadCSV) {
			t.Errorf("%s: expected ErrBadCSV, got %v", name, err)
		}
	}
}

func TestFilter_YearsBack(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.PriceSeries, 0, 5*52)
	for d := 0; d < 5*52; d++ {
		series = append(series, domain.PriceBar{
			Date: start.AddDate(0, 0, d*7), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1,
		})
	}

	filtered := Filter{YearsBack: 2}.Apply(series)
	last := series[len(series)-1].Date
	cutoff := last.AddDate(-2, 0, 0)
	for _, b := range filtered {
		if b.Date.Before(cutoff) {
			t.Fatalf("bar %s survived a 2-year filter anchored at %s", b.Date, last)
		}
	}
	if len(filtered) == 0 {
		t.Fatal("filter removed everything")
	}
}

func TestFilter_FreezeDate(t *testing.T) {
	series, _ := ParseCSV(strings.NewReader(sampleCSV))

	freeze := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	filtered := Filter{Freeze: freeze}.Apply(series)
	if len(filtered) != 2 {
		t.Fatalf("expected 2 bars at or before the freeze date, got %d", len(filtered))
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &FileProvider{Dir: dir}
	series, err := p.GetPriceData(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetPriceData failed: %v", err)
	}
	if len(series) != 3 {
		t.Errorf("expected 3 bars, got %d", len(series))
	}

	if _, err := p.GetPriceData(context.Background(), "MISSING"); err == nil {
		t.Error("missing symbol must fail")
	}
}

func TestFileProvider_AllBarsFilteredOut(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	// Freeze date predates every bar in the file.
	p := &FileProvider{
		Dir:    dir,
		Filter: Filter{Freeze: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	if _, err := p.GetPriceData(context.Background(), "AAPL"); !errors.Is(err, ErrNoUsableData) {
		t.Errorf("expected ErrNoUsableData, got %v", err)
	}
}

func TestStoreProvider_AllBarsFilteredOut(t *testing.T) {
	series, _ := ParseCSV(strings.NewReader(sampleCSV))
	store := memory.NewPriceBarStore()
	if err := store.InsertBulk(context.Background(), "AAPL", series); err != nil {
		t.Fatal(err)
	}

	p := &StoreProvider{
		Store:  store,
		Filter: Filter{Freeze: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	if _, err := p.GetPriceData(context.Background(), "AAPL"); !errors.Is(err, ErrNoUsableData) {
		t.Errorf("expected ErrNoUsableData, got %v", err)
	}
}

func TestFileProvider_GapValidation(t *testing.T) {
	gapped := `date,open,high,low,close,volume
2024-01-02,100,101,99,100,1000
2024-06-02,100,101,99,100,1000
`
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "GAP.csv"), []byte(gapped), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &FileProvider{Dir: dir, MaxGap: 14 * 24 * time.Hour}
	if _, err := p.GetPriceData(context.Background(), "GAP"); !errors.Is(err, domain.ErrSeriesGap) {
		t.Errorf("expected ErrSeriesGap, got %v", err)
	}
}

func TestLoadUniverse(t *testing.T) {
	content := "# tech\naapl\nMSFT\n\nmsft\nnvda\n"
	path := filepath.Join(t.TempDir(), "universe.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	symbols, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse failed: %v", err)
	}

	want := []string{"AAPL", "MSFT", "NVDA"}
	if len(symbols) != len(want) {
		t.Fatalf("expected %v, got %v", want, symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbol %d: expected %s, got %s", i, want[i], symbols[i])
		}
	}
}

func TestLoadUniverse_EmptyFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.txt")
	if err := os.WriteFile(path, []byte("# nothing\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadUniverse(path); err == nil {
		t.Error("empty universe must fail")
	}
}
